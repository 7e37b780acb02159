package prefs

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_, ok, err := store.Get(ctx, alice, "board-tab")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, alice, "board-tab", "kanban"))
	require.NoError(t, store.Set(ctx, bob, "board-tab", "table"))

	value, ok, err := store.Get(ctx, alice, "board-tab")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kanban", value)

	value, _, err = store.Get(ctx, bob, "board-tab")
	require.NoError(t, err)
	assert.Equal(t, "table", value)

	require.NoError(t, store.Set(ctx, alice, "board-tab", "calendar"))
	value, _, _ = store.Get(ctx, alice, "board-tab")
	assert.Equal(t, "calendar", value)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client))
}
