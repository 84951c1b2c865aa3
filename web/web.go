// Package web serves the contacts application pages: the shell with its
// searchable sidebar, the create action and the per contact routes.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

type Pages struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

// Routes mounts the pages and their assets on r.
func (p *Pages) Routes(r chi.Router) {
	static := http.FileServerFS(assets())
	r.Get("/app.css", static.ServeHTTP)
	r.Get("/app.js", static.ServeHTTP)

	r.Get("/", p.handle(p.index))
	r.Post("/", p.handle(p.create))
	r.Route("/contacts/{id}", func(r chi.Router) {
		r.Get("/", p.handle(p.contact))
		r.Post("/", p.handle(p.favorite))
		r.Get("/edit", p.handle(p.edit))
		r.Post("/edit", p.handle(p.update))
		r.Post("/destroy", p.handle(p.destroy))
	})
}

var errBadRequest = errors.New("bad request")

// statusError implements [huma.StatusError] so page errors are reported
// like the API ones.
type statusError struct {
	status int
	err    error
}

var _ huma.StatusError = (*statusError)(nil)

func (e *statusError) Error() string  { return e.err.Error() }
func (e *statusError) GetStatus() int { return e.status }
func (e *statusError) Unwrap() error  { return e.err }

// handle is the error boundary of the pages: errors are reported to
// the error handler and answered with an error page.
func (p *Pages) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ds.ErrObjectNotFound):
			status = http.StatusNotFound
		case errors.Is(err, errBadRequest):
			status = http.StatusBadRequest
		}
		if p.ErrorHandler != nil {
			p.ErrorHandler(r.Context(), &statusError{status: status, err: err})
		}

		var buf bytes.Buffer
		_ = errorPage.ExecuteTemplate(&buf, "error", &errorView{
			Stylesheet: stylesheet,
			Status:     status,
			Text:       http.StatusText(status),
		})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = buf.WriteTo(w)
	}
}

// render writes the shell around the content of page. Every page lists the
// contacts matching the q parameter of the request.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, page string, displayed *ds.ContactID, content any) error {
	query := r.URL.Query().Get("q")
	contacts, err := p.Store.List(r.Context(), query)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = pages[page].ExecuteTemplate(&buf, "layout", newShellView(query, contacts, displayed, content))
	if err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

func (p *Pages) index(w http.ResponseWriter, r *http.Request) error {
	return p.render(w, r, "index", nil, nil)
}

// create adds an empty contact and sends the client to its edit form.
// It is not idempotent: every call creates one contact.
func (p *Pages) create(w http.ResponseWriter, r *http.Request) error {
	id, err := p.Store.Create(r.Context(), &ds.Contact{})
	if err != nil {
		return err
	}
	http.Redirect(w, r, contactPath(id)+"/edit", http.StatusFound)
	return nil
}

func (p *Pages) contact(w http.ResponseWriter, r *http.Request) error {
	c, err := p.lookup(r)
	if err != nil {
		return err
	}
	return p.render(w, r, "contact", &c.ID, c)
}

func (p *Pages) favorite(w http.ResponseWriter, r *http.Request) error {
	c, err := p.lookup(r)
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}
	c.Favorite = r.PostForm.Get("favorite") == "true"
	if err := p.Store.Update(r.Context(), c); err != nil {
		return err
	}
	http.Redirect(w, r, contactPath(c.ID), http.StatusFound)
	return nil
}

func (p *Pages) edit(w http.ResponseWriter, r *http.Request) error {
	c, err := p.lookup(r)
	if err != nil {
		return err
	}
	return p.render(w, r, "edit", &c.ID, c)
}

func (p *Pages) update(w http.ResponseWriter, r *http.Request) error {
	c, err := p.lookup(r)
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}
	c.First = r.PostForm.Get("first")
	c.Last = r.PostForm.Get("last")
	c.Avatar = r.PostForm.Get("avatar")
	c.Twitter = r.PostForm.Get("twitter")
	c.Notes = r.PostForm.Get("notes")
	if err := p.Store.Update(r.Context(), c); err != nil {
		return err
	}
	http.Redirect(w, r, contactPath(c.ID), http.StatusFound)
	return nil
}

func (p *Pages) destroy(w http.ResponseWriter, r *http.Request) error {
	c, err := p.lookup(r)
	if err != nil {
		return err
	}
	if err := p.Store.Delete(r.Context(), c.ID); err != nil {
		return err
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// lookup returns the contact addressed by the id URL parameter.
// A malformed id is reported as [ds.ErrObjectNotFound].
func (p *Pages) lookup(r *http.Request) (*ds.Contact, error) {
	id, err := ds.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ds.ErrObjectNotFound, err)
	}
	return p.Store.Get(r.Context(), id)
}

func contactPath(id ds.ContactID) string { return "/contacts/" + id.String() }
