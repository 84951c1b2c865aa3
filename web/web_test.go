package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os/exec"
	"regexp"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testPages struct {
	handler http.Handler
	store   ds.ContactsStore
	errs    []error
}

func newTestPages(t *testing.T, store ds.ContactsStore) *testPages {
	t.Helper()
	tp := &testPages{store: store}
	r := chi.NewRouter()
	(&Pages{
		Store:        store,
		ErrorHandler: func(_ context.Context, err error) { tp.errs = append(tp.errs, err) },
	}).Routes(r)
	tp.handler = r
	return tp
}

func (tp *testPages) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tp.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (tp *testPages) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	tp.handler.ServeHTTP(rec, req)
	return rec
}

func (tp *testPages) create(t *testing.T, c *ds.Contact) ds.ContactID {
	t.Helper()
	id, err := tp.store.Create(context.Background(), c)
	require.NoError(t, err)
	return id
}

var entryRe = regexp.MustCompile(`(?s)<li>\s*<a href="/contacts/([^"]+)" class="([^"]*)">(.*?)</a>`)

type entry struct{ id, class, text string }

func entries(body string) []entry {
	var out []entry
	for _, m := range entryRe.FindAllStringSubmatch(body, -1) {
		out = append(out, entry{id: m[1], class: m[2], text: m[3]})
	}
	return out
}

func TestShellWithoutContacts(t *testing.T) {
	tp := newTestPages(t, ds.NewContactsInmem())

	resp := tp.get("/")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, body, `<link rel="stylesheet" href="/app.css">`)
	assert.Contains(t, body, `<p><i>No contacts</i></p>`)
	assert.NotContains(t, body, "<ul>")
	assert.Contains(t, body, `<input id="q" aria-label="Search contacts" placeholder="Search" type="search" name="q" value="">`)
	assert.Contains(t, body, `<div id="detail" class="" data-loading-class="loading">`)
	assert.Contains(t, body, `<nav data-pending-class="pending">`)
	assert.Contains(t, body, `id="index-page"`)
}

func TestShellListsContacts(t *testing.T) {
	tp := newTestPages(t, ds.NewContactsInmem())
	zed := tp.create(t, &ds.Contact{First: "Ann", Last: "Zed", Favorite: true})
	nameless := tp.create(t, &ds.Contact{})
	berg := tp.create(t, &ds.Contact{Last: "Berg"})

	body := tp.get("/").Body.String()
	assert.NotContains(t, body, "No contacts")
	assert.Equal(t, []entry{
		{id: nameless.String(), text: "<i>No Name</i>"},
		{id: berg.String(), text: " Berg"},
		{id: zed.String(), text: "Ann Zed <span>★</span>"},
	}, entries(body))
}

func TestShellSearch(t *testing.T) {
	tp := newTestPages(t, ds.NewContactsInmem())
	joanna := tp.create(t, &ds.Contact{First: "Joanna", Last: "Berg"})
	tp.create(t, &ds.Contact{First: "Bob"})
	ann := tp.create(t, &ds.Contact{First: "Ann"})

	body := tp.get("/?q=ann").Body.String()
	assert.Contains(t, body, `name="q" value="ann"`)
	got := entries(body)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{joanna.String(), ann.String()}, []string{got[0].id, got[1].id})

	body = tp.get("/?q=nobody").Body.String()
	assert.Contains(t, body, "No contacts")
	assert.Contains(t, body, `value="nobody"`)

	body = tp.get("/?q=" + url.QueryEscape(`"><script>`)).Body.String()
	assert.NotContains(t, body, `"><script>`)
	assert.Contains(t, body, `value="&#34;&gt;&lt;script&gt;"`)
}

func TestCreate(t *testing.T) {
	store := ds.NewContactsInmem()
	tp := newTestPages(t, store)

	resp := tp.post("/", nil)
	require.Equal(t, http.StatusFound, resp.Code)

	contacts, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.False(t, contacts[0].HasName())
	assert.False(t, contacts[0].Favorite)
	assert.Equal(t, "/contacts/"+contacts[0].ID.String()+"/edit", resp.Header().Get("Location"))

	tp.post("/", nil)
	contacts, err = store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, contacts, 2, "every submission creates a contact")
}

func TestContactPages(t *testing.T) {
	store := ds.NewContactsInmem()
	tp := newTestPages(t, store)
	id := tp.create(t, &ds.Contact{First: "Ann", Twitter: "@ann", Notes: "likes go"})
	other := tp.create(t, &ds.Contact{First: "Bob"})
	path := "/contacts/" + id.String()

	t.Run("detail marks the displayed entry active", func(t *testing.T) {
		resp := tp.get(path)
		require.Equal(t, http.StatusOK, resp.Code)
		body := resp.Body.String()
		assert.Contains(t, body, `<div id="contact">`)
		assert.Contains(t, body, "likes go")
		assert.Contains(t, body, `aria-label="Add to favorites"`)

		classes := map[string]string{}
		for _, e := range entries(body) {
			classes[e.id] = e.class
		}
		assert.Equal(t, map[string]string{id.String(): "active", other.String(): ""}, classes)
	})

	t.Run("favorite toggle", func(t *testing.T) {
		resp := tp.post(path, url.Values{"favorite": {"true"}})
		require.Equal(t, http.StatusFound, resp.Code)
		assert.Equal(t, path, resp.Header().Get("Location"))

		body := tp.get(path).Body.String()
		assert.Contains(t, body, `aria-label="Remove from favorites"`)
		for _, e := range entries(body) {
			assert.Equal(t, e.id == id.String(), strings.HasSuffix(e.text, " <span>★</span>"), e.text)
		}

		tp.post(path, url.Values{"favorite": {"false"}})
		c, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, c.Favorite)
	})

	t.Run("edit then update", func(t *testing.T) {
		resp := tp.get(path + "/edit")
		require.Equal(t, http.StatusOK, resp.Code)
		body := resp.Body.String()
		assert.Contains(t, body, `action="`+path+`/edit"`)
		assert.Contains(t, body, `name="first" type="text" placeholder="First" value="Ann"`)

		resp = tp.post(path+"/edit", url.Values{"first": {"Anna"}, "last": {"Lee"}, "notes": {"moved"}})
		require.Equal(t, http.StatusFound, resp.Code)
		assert.Equal(t, path, resp.Header().Get("Location"))

		c, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Anna", c.First)
		assert.Equal(t, "Lee", c.Last)
		assert.Equal(t, "moved", c.Notes)
		assert.Empty(t, c.Twitter)
	})

	t.Run("destroy", func(t *testing.T) {
		resp := tp.post(path+"/destroy", nil)
		require.Equal(t, http.StatusFound, resp.Code)
		assert.Equal(t, "/", resp.Header().Get("Location"))

		_, err := store.Get(context.Background(), id)
		require.ErrorIs(t, err, ds.ErrObjectNotFound)
	})
}

func TestNotFound(t *testing.T) {
	tp := newTestPages(t, ds.NewContactsInmem())
	gone := tp.create(t, &ds.Contact{})
	require.NoError(t, tp.store.Delete(context.Background(), gone))

	for _, id := range []string{gone.String(), "malformed"} {
		resp := tp.get("/contacts/" + id)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "404 Not Found")

		assert.Equal(t, http.StatusNotFound, tp.get("/contacts/"+id+"/edit").Code)
		assert.Equal(t, http.StatusNotFound, tp.post("/contacts/"+id+"/destroy", nil).Code)
	}

	require.Len(t, tp.errs, 6)
	var statusErr huma.StatusError
	require.ErrorAs(t, tp.errs[0], &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
}

type brokenStore struct{ ds.ContactsStore }

var errBroken = errors.New("broken")

func (brokenStore) List(context.Context, string) ([]*ds.Contact, error) { return nil, errBroken }

func (brokenStore) Create(context.Context, *ds.Contact) (ds.ContactID, error) {
	return ds.ContactID{}, errBroken
}

func TestStoreFailures(t *testing.T) {
	tp := newTestPages(t, brokenStore{ds.NewContactsInmem()})

	assert.Equal(t, http.StatusInternalServerError, tp.get("/").Code)
	assert.Equal(t, http.StatusInternalServerError, tp.post("/", nil).Code)

	require.Len(t, tp.errs, 2)
	for _, err := range tp.errs {
		assert.ErrorIs(t, err, errBroken)
	}
}

func TestAssets(t *testing.T) {
	tp := newTestPages(t, ds.NewContactsInmem())

	resp := tp.get("/app.css")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, resp.Body.String(), "#sidebar nav a.active")

	resp = tp.get("/app.js")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "function contactsShell(win)")
}

// TestShellScript runs the client navigation against a stub DOM.
func TestShellScript(t *testing.T) {
	node, err := exec.LookPath("node")
	if err != nil {
		t.Skip("node is not installed")
	}

	out, err := exec.Command(node, "testdata/app_shell.js", "static/app.js").CombinedOutput()
	require.NoError(t, err, string(out))
	for _, scenario := range []string{
		"latest search wins",
		"first search pushes, later ones replace",
		"link navigation resyncs the input",
		"back and forward resync the input",
	} {
		assert.Contains(t, string(out), "ok "+scenario+"\n")
	}
}

func TestNavStatus(t *testing.T) {
	a, b := ds.ContactID{1}, ds.ContactID{2}
	assert.Equal(t, Idle, navStatus(a, nil))
	assert.Equal(t, Idle, navStatus(a, &b))
	assert.Equal(t, Active, navStatus(a, &a))

	assert.Empty(t, Idle.Class())
	assert.Equal(t, "pending", Pending.Class())
	assert.Equal(t, "active", Active.Class())
}
