package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	var got note
	err := s.Get(ctx, "prompts", &got)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "prompts", note{Title: "a", Tags: []string{"x"}}))
	require.NoError(t, s.Get(ctx, "prompts", &got))
	assert.Equal(t, note{Title: "a", Tags: []string{"x"}}, got)

	require.NoError(t, s.Set(ctx, "prompts", note{Title: "b"}))
	var second note
	require.NoError(t, s.Get(ctx, "prompts", &second))
	assert.Equal(t, "b", second.Title, "last write wins")

	fallback := note{Title: "default"}
	require.NoError(t, GetOrDefault(ctx, s, "folders", &fallback))
	assert.Equal(t, "default", fallback.Title)
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	exerciseStore(t, s)

	tags := []string{"shared"}
	require.NoError(t, s.Set(context.Background(), "n", note{Tags: tags}))
	tags[0] = "mutated"
	var got note
	require.NoError(t, s.Get(context.Background(), "n", &got))
	assert.Equal(t, []string{"shared"}, got.Tags)
}

func TestFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewFile(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)

	_, err = os.Stat(filepath.Join(dir, "prompts.json"))
	assert.NoError(t, err)

	assert.Error(t, s.Set(context.Background(), "../escape", note{}))
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisFromClient(client, "pb:")
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
	assert.True(t, mr.Exists("pb:prompts"))
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgres(ctx, url, 2, 1, "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.pool.Exec(ctx, `DELETE FROM kv_blobs WHERE key IN ('prompts', 'folders')`)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "etcd"})
	assert.ErrorContains(t, err, "etcd")

	s, err := Open(context.Background(), Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}
