package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ArtemEIPS/presentation-maker/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "docs"))
	require.NoError(t, err)

	_, err = s.Load(ctx, "deck")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Save(ctx, "deck", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "deck", []byte(`{"v":2}`)))

	data, err := s.Load(ctx, "deck")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "docs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "deck.json", entries[0].Name())

	require.NoError(t, s.Delete(ctx, "deck"))
	assert.ErrorIs(t, s.Delete(ctx, "deck"), store.ErrNotFound)
}

func TestStoreRejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	err = s.Save(context.Background(), "../escape", []byte("{}"))
	assert.ErrorIs(t, err, store.ErrInvalidKey)
	_, err = s.Load(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrInvalidKey)
}
