// Package handlers exposes the contacts store as a JSON API.
// Each type registers its operations through [huma.AutoRegister].
package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

// handlerWithErrorHandler calls do with every error returned by handler.
func handlerWithErrorHandler[I, O any](handler handler[I, O], do func(context.Context, error)) handler[I, O] {
	if do == nil {
		return handler
	}

	return func(ctx context.Context, i *I) (*O, error) {
		o, err := handler(ctx, i)
		if err != nil {
			do(ctx, err)
		}
		return o, err
	}
}

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

// storeError translates the store errors having an HTTP meaning.
func storeError(err error) error {
	if errors.Is(err, ds.ErrObjectNotFound) {
		return huma.Error404NotFound("id not found", err)
	}
	return err
}

// parseID maps a malformed id to the same response as an unknown one.
func parseID(id string) (ds.ContactID, error) {
	contactID, err := ds.ParseContactID(id)
	if err != nil {
		return contactID, huma.Error404NotFound("id not found", err)
	}
	return contactID, nil
}
