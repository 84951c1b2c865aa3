package datastores

import (
	"context"
	"slices"
	"sync"
	"time"
)

// ContactsInmem implements [ContactsStore].
// Contacts are copied in and out so callers never share memory with the store.
type ContactsInmem struct {
	mu       sync.Mutex
	index    map[ContactID]int
	contacts []*Contact
	now      func() time.Time
}

var _ ContactsStore = (*ContactsInmem)(nil)

func NewContactsInmem() *ContactsInmem {
	return &ContactsInmem{index: make(map[ContactID]int), now: time.Now}
}

func (s *ContactsInmem) Create(_ context.Context, c *Contact) (ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
retry:
	c.ID = newContactID()
	_, loaded := s.index[c.ID]
	if loaded {
		goto retry
	}
	c.CreatedAt = s.now()
	s.index[c.ID] = len(s.contacts)
	s.contacts = append(s.contacts, clone(c))
	return c.ID, nil
}

func (s *ContactsInmem) List(_ context.Context, query string) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts := make([]*Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if matches(c, query) {
			contacts = append(contacts, clone(c))
		}
	}
	slices.SortStableFunc(contacts, compareContacts)
	return contacts, nil
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return clone(s.contacts[index]), nil
}

func (s *ContactsInmem) Update(_ context.Context, c *Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[c.ID]
	if !ok {
		return ErrObjectNotFound
	}
	updated := clone(c)
	updated.CreatedAt = s.contacts[index].CreatedAt
	s.contacts[index] = updated
	return nil
}

func (s *ContactsInmem) Delete(_ context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil
	}
	delete(s.index, id)
	s.contacts = slices.Delete(s.contacts, index, index+1)
	for i := index; i < len(s.contacts); i++ {
		s.index[s.contacts[i].ID] = i
	}
	return nil
}

func clone(c *Contact) *Contact { v := *c; return &v }
