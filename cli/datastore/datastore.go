// Package datastore opens the contacts store selected on the command line.
package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

type StoreOptions struct {
	Store string `doc:"contacts store: memory, sqlite:<path> or a postgres:// URL" default:"memory"`
	Seed  string `doc:"YAML file of contacts loaded into an empty store"`
}

// Backend is an opened store with its lifecycle hooks.
type Backend struct {
	ds.ContactsStore
	Ping  func(context.Context) error
	Close func() error
}

var errUnknownStore = errors.New("unknown store")

func Open(ctx context.Context, options *StoreOptions, logger *slog.Logger) (*Backend, error) {
	backend, err := open(ctx, options.Store)
	if err != nil {
		return nil, err
	}

	seed := ds.DefaultSeed()
	switch {
	case options.Seed != "":
		f, err := os.Open(options.Seed)
		if err != nil {
			return nil, errors.Join(err, backend.Close())
		}
		seed, err = ds.LoadSeed(f)
		f.Close()
		if err != nil {
			return nil, errors.Join(err, backend.Close())
		}
	case options.Store != "memory" && options.Store != "":
		seed = nil
	}

	n, err := ds.Seed(ctx, backend, seed)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("seed: %w", err), backend.Close())
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "store opened",
		slog.String("store", redact(options.Store)),
		slog.Int("seeded", n),
	)
	return backend, nil
}

func open(ctx context.Context, dsn string) (*Backend, error) {
	var (
		dialect ds.Dialect
		source  string
	)
	switch {
	case dsn == "" || dsn == "memory":
		return &Backend{
			ContactsStore: ds.NewContactsInmem(),
			Ping:          func(context.Context) error { return nil },
			Close:         func() error { return nil },
		}, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		dialect, source = ds.SQLite, strings.TrimPrefix(dsn, "sqlite:")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialect, source = ds.Postgres, dsn
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStore, redact(dsn))
	}

	db, err := sql.Open(dialect.Driver, source)
	if err != nil {
		return nil, err
	}
	if dialect.Driver == ds.SQLite.Driver {
		db.SetMaxOpenConns(1)
	}
	if err := ds.EnsureSchema(ctx, db); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	store := ds.NewContactsSQL(db, dialect)
	return &Backend{ContactsStore: store, Ping: store.Ping, Close: db.Close}, nil
}

// redact hides the password of URL data source names.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
