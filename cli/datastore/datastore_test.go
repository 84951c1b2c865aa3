package datastore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("memory is seeded by default", func(t *testing.T) {
		backend, err := Open(ctx, &StoreOptions{Store: "memory"}, logger)
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, backend.Ping(ctx))
		contacts, err := backend.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, contacts, len(ds.DefaultSeed()))
	})

	t.Run("sqlite with seed file persists", func(t *testing.T) {
		dir := t.TempDir()
		seed := filepath.Join(dir, "seed.yaml")
		require.NoError(t, os.WriteFile(seed, []byte("- first: Ann\n- first: Bob\n"), 0o600))
		options := &StoreOptions{Store: "sqlite:" + filepath.Join(dir, "contacts.db"), Seed: seed}

		backend, err := Open(ctx, options, logger)
		require.NoError(t, err)
		require.NoError(t, backend.Ping(ctx))
		_, err = backend.Create(ctx, &ds.Contact{First: "Carl"})
		require.NoError(t, err)
		require.NoError(t, backend.Close())

		backend, err = Open(ctx, options, logger)
		require.NoError(t, err)
		defer backend.Close()
		contacts, err := backend.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, contacts, 3, "seed only applies to an empty store")
	})

	t.Run("sqlite without seed file starts empty", func(t *testing.T) {
		backend, err := Open(ctx, &StoreOptions{Store: "sqlite:" + filepath.Join(t.TempDir(), "c.db")}, logger)
		require.NoError(t, err)
		defer backend.Close()
		contacts, err := backend.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Open(ctx, &StoreOptions{Store: "redis://localhost"}, logger)
		require.ErrorIs(t, err, errUnknownStore)

		_, err = Open(ctx, &StoreOptions{Store: "memory", Seed: filepath.Join(t.TempDir(), "missing.yaml")}, logger)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/contacts", redact("postgres://app:secret@db:5432/contacts"))
	assert.Equal(t, "postgres://db/contacts", redact("postgres://db/contacts"))
	assert.Equal(t, "sqlite:contacts.db", redact("sqlite:contacts.db"))
}
