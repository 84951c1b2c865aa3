package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

// ContactFields are the writable fields of a contact. Every field is optional.
type ContactFields struct {
	First    string `json:"first,omitempty"    example:"john"`
	Last     string `json:"last,omitempty"     example:"smith"`
	Avatar   string `json:"avatar,omitempty"   example:"https://example.com/john.png"`
	Twitter  string `json:"twitter,omitempty"  example:"@johnsmith"`
	Notes    string `json:"notes,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
}

type ContactModel struct {
	ID        string    `json:"id"        readOnly:"true" example:"AZJ8qZ5rcQ2Y7j8M0X1y2w"`
	CreatedAt time.Time `json:"createdAt" readOnly:"true"`
	ContactFields
}

func newContactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:        c.ID.String(),
		CreatedAt: c.CreatedAt,
		ContactFields: ContactFields{
			First:    c.First,
			Last:     c.Last,
			Avatar:   c.Avatar,
			Twitter:  c.Twitter,
			Notes:    c.Notes,
			Favorite: c.Favorite,
		},
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, input *struct {
	Query string `query:"q" doc:"only list contacts whose name contains q"`
}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, newContactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/",
		handlerWithErrorHandler(h.create, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated },
	)
}

type ContactsCreateOutput struct {
	Location string `header:"Location"`
	Body     ContactModel
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body *ContactFields `required:"false"`
}) (*ContactsCreateOutput, error) {
	contact := &ds.Contact{}
	if input.Body != nil {
		contact.First = input.Body.First
		contact.Last = input.Body.Last
		contact.Avatar = input.Body.Avatar
		contact.Twitter = input.Body.Twitter
		contact.Notes = input.Body.Notes
		contact.Favorite = input.Body.Favorite
	}

	id, err := h.Store.Create(ctx, contact)
	if err != nil {
		return nil, err
	}

	return &ContactsCreateOutput{
		Location: id.String(),
		Body:     newContactModel(contact),
	}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsGetOutput struct {
	Body ContactModel
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID string `path:"id" doc:"ID of the contact to get"`
}) (*ContactsGetOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	contact, err := h.Store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsGetOutput{Body: newContactModel(contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{id}",
		handlerWithErrorHandler(h.put, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   string `path:"id" doc:"ID of the contact to put"`
	Body ContactFields
}) (*ContactsGetOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	err = h.Store.Update(ctx, &ds.Contact{
		ID:       id,
		First:    input.Body.First,
		Last:     input.Body.Last,
		Avatar:   input.Body.Avatar,
		Twitter:  input.Body.Twitter,
		Notes:    input.Body.Notes,
		Favorite: input.Body.Favorite,
	})
	if err != nil {
		return nil, storeError(err)
	}

	contact, err := h.Store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsGetOutput{Body: newContactModel(contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID string `path:"id" doc:"ID of the contact to delete"`
}) (*struct{}, error) {
	id, err := ds.ParseContactID(input.ID)
	if err != nil {
		return nil, nil //nolint: nilerr // nothing to delete
	}
	return nil, h.Store.Delete(ctx, id)
}
