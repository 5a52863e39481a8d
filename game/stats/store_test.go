package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/reserve-solitaire/game/engine"
)

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Clear(ctx))

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, win(i, int64(i)), 3))
	}

	history, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].MoveCount, "oldest entries are evicted first")
	assert.Equal(t, 5, history[2].MoveCount)

	err = store.Append(ctx, engine.Outcome{Outcome: "draw"}, 3)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	require.NoError(t, store.Clear(ctx))
	history, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "stats", "history.json"))
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestFileStore_UnreadableFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	history, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, store.Append(context.Background(), loss(), 10))
	history, err = store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFileStore_SkipsMalformedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"outcome":"win","move_count":4},{"outcome":"tie"}]`), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	history, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 4, history[0].MoveCount)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	store, err := NewRedisStore(context.Background(), addr, "reserve-solitaire:test:"+t.Name())
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}
