package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobfeed/internal/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreGetSet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "@JobApp:bookmarks_v1", []byte(`[{"id":1}]`)))

	got, err := s.Get(ctx, "@JobApp:bookmarks_v1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
}

func TestStoreOverwrite(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("first")))
	require.NoError(t, s.Set(ctx, "k", []byte("second")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestStoreGetNotFound(t *testing.T) {
	s := openTemp(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("durable")))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "durable", string(got))
	assert.NoError(t, s.Ping(ctx))
}
