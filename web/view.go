package web

import (
	"embed"
	"html/template"
	"io/fs"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

var (
	//go:embed templates
	templatesFS embed.FS

	//go:embed static
	staticFS embed.FS
)

const (
	title        = "Contacts"
	stylesheet   = "/app.css"
	script       = "/app.js"
	loadingClass = "loading"
)

// NavStatus is the state of a sidebar entry relative to the navigation.
type NavStatus int

const (
	Idle NavStatus = iota
	Pending
	Active
)

// Class is the style hook rendered for the status.
func (s NavStatus) Class() string {
	switch s {
	case Active:
		return "active"
	case Pending:
		return "pending"
	default:
		return ""
	}
}

// navStatus computes the status of the entry for contact id.
// Pending is only known by the client, which applies its class itself.
func navStatus(id ds.ContactID, displayed *ds.ContactID) NavStatus {
	if displayed != nil && *displayed == id {
		return Active
	}
	return Idle
}

type navEntry struct {
	*ds.Contact
	Status NavStatus
}

// shellView is the data of the layout template.
type shellView struct {
	Title        string
	Stylesheet   string
	Script       string
	Query        string
	Contacts     []navEntry
	PendingClass string
	LoadingClass string
	Content      any
}

func newShellView(query string, contacts []*ds.Contact, displayed *ds.ContactID, content any) *shellView {
	entries := make([]navEntry, 0, len(contacts))
	for _, c := range contacts {
		entries = append(entries, navEntry{Contact: c, Status: navStatus(c.ID, displayed)})
	}
	return &shellView{
		Title:        title,
		Stylesheet:   stylesheet,
		Script:       script,
		Query:        query,
		Contacts:     entries,
		PendingClass: Pending.Class(),
		LoadingClass: loadingClass,
		Content:      content,
	}
}

type errorView struct {
	Stylesheet string
	Status     int
	Text       string
}

// pages holds one template per route content, each parsed with the layout.
var pages = map[string]*template.Template{ //nolint: gochecknoglobals,nolintlint
	"index":   parsePage("index"),
	"contact": parsePage("contact"),
	"edit":    parsePage("edit"),
}

var errorPage = template.Must(template.ParseFS(templatesFS, "templates/error.gohtml")) //nolint: gochecknoglobals,nolintlint

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.gohtml", "templates/"+name+".gohtml"))
}

func assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
