package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArtemEIPS/presentation-maker/store"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "db", "decks.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(ctx, "deck")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Save(ctx, "deck", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "deck", []byte(`{"v":2}`)))
	require.NoError(t, s.Save(ctx, "other", []byte(`{}`)))

	data, err := s.Load(ctx, "deck")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"deck", "other"}, keys)

	require.NoError(t, s.Delete(ctx, "deck"))
	assert.ErrorIs(t, s.Delete(ctx, "deck"), store.ErrNotFound)
}

func TestStoreInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(context.Background(), "a", []byte("x")))
	data, err := s.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.ErrorIs(t, s.Save(context.Background(), "a/b", nil), store.ErrInvalidKey)
}
