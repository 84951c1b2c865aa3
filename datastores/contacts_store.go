package datastores

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"
)

type Contact struct {
	ID        ContactID
	First     string
	Last      string
	Avatar    string
	Twitter   string
	Notes     string
	Favorite  bool
	CreatedAt time.Time
}

// HasName reports whether either name is set.
func (c *Contact) HasName() bool { return c.First != "" || c.Last != "" }

// ContactsStore persists contacts.
//
// List returns the contacts matching query, ordered by last name then
// creation time. An empty query matches every contact.
// Update never changes ID nor CreatedAt.
type ContactsStore interface {
	Create(context.Context, *Contact) (ContactID, error)
	List(ctx context.Context, query string) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Update(context.Context, *Contact) error
	Delete(context.Context, ContactID) error
}

var ErrObjectNotFound = errors.New("store: object not found")

// searchKey is what a query is matched against: the lowercased full name.
// A substring of the first or the last name is also a substring of it.
func searchKey(c *Contact) string { return strings.ToLower(c.First + " " + c.Last) }

// matches is the matching rule shared by the stores: a case-insensitive
// substring of the first name, the last name or the full name.
func matches(c *Contact, query string) bool {
	return strings.Contains(searchKey(c), strings.ToLower(query))
}

// compareContacts orders by last name, compared bytewise, then creation time.
func compareContacts(a, b *Contact) int {
	return cmp.Or(
		strings.Compare(a.Last, b.Last),
		a.CreatedAt.Compare(b.CreatedAt),
	)
}
