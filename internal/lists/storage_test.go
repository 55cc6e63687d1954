package lists

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "lists")
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, err = fs.Get(ctx, "dev:fashionhub_shortlist")
	assert.ErrorIs(t, err, ErrNoValue)

	require.NoError(t, fs.Set(ctx, "dev:fashionhub_shortlist", []byte(`["7"]`)))
	require.NoError(t, fs.Set(ctx, "dev:fashionhub_shortlist", []byte(`["7","9"]`)))

	b, err := fs.Get(ctx, "dev:fashionhub_shortlist")
	require.NoError(t, err)
	assert.Equal(t, `["7","9"]`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStorage_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	s := NewStore(fs, WithNamespace("d1"))
	require.NoError(t, s.Add(ctx, Favorites, "12"))

	again := NewStore(fs, WithNamespace("d1"))
	again.Load(ctx)
	assert.Equal(t, []string{"12"}, again.Items(Favorites))
}

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client), mr
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()
	rs, mr := setupTestRedis(t)

	_, err := rs.Get(ctx, "fashionhub_favorites")
	assert.ErrorIs(t, err, ErrNoValue)

	require.NoError(t, rs.Set(ctx, "fashionhub_favorites", []byte(`["3"]`)))

	got, err := mr.Get("storefront:fashionhub_favorites")
	require.NoError(t, err)
	assert.Equal(t, `["3"]`, got)
	assert.Zero(t, mr.TTL("storefront:fashionhub_favorites"))

	b, err := rs.Get(ctx, "fashionhub_favorites")
	require.NoError(t, err)
	assert.Equal(t, `["3"]`, string(b))
	assert.NoError(t, rs.Ping(ctx))
}

func TestRedisStorage_ErrorsLoadEmpty(t *testing.T) {
	ctx := context.Background()
	rs, mr := setupTestRedis(t)

	s := NewStore(rs)
	require.NoError(t, s.Add(ctx, Shortlist, "1"))

	mr.SetError("ERR storage offline")
	s.Load(ctx)
	assert.Empty(t, s.Items(Shortlist))
	assert.Error(t, s.Add(ctx, Shortlist, "2"))
}
