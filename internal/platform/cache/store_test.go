package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `msgpack:"name"`
	Value float64 `msgpack:"value"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "test", time.Minute)
}

func TestStoreFetchCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	key, err := store.BuildKey(ctx, "report", "2024-01-15")
	require.NoError(t, err)
	require.Equal(t, "test:report:2024-01-15:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return payload{Name: "gula", Value: 27200}, nil
	}

	var first, second payload
	require.NoError(t, store.Fetch(ctx, key, &first, loader))
	require.NoError(t, store.Fetch(ctx, key, &second, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
	require.Equal(t, 27200.0, second.Value)
}

func TestStoreBumpChangesKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	before, err := store.BuildKey(ctx, "report")
	require.NoError(t, err)
	ver, err := store.Bump(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), ver)
	after, err := store.BuildKey(ctx, "report")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestStoreWithoutClientCallsLoader(t *testing.T) {
	ctx := context.Background()
	var store *Store

	key, err := store.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, "a:b", key)

	var out payload
	require.NoError(t, store.Fetch(ctx, key, &out, func(context.Context) (any, error) {
		return payload{Name: "x"}, nil
	}))
	require.Equal(t, "x", out.Name)

	_, err = store.Bump(ctx)
	require.NoError(t, err)
}

func TestStoreFetchPropagatesLoaderError(t *testing.T) {
	store := newTestStore(t)
	boom := errors.New("boom")
	var out payload
	err := store.Fetch(context.Background(), "k", &out, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}
