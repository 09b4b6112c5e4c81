package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const bumpChannel = "heytrack.cache.bump"

// Store wraps Redis based caching with versioning controls.
// A nil Store or one without a client calls loaders directly.
type Store struct {
	client     *redis.Client
	namespace  string
	ttl        time.Duration
	versionKey string
}

// NewStore instantiates the cache helper for a key namespace.
func NewStore(client *redis.Client, namespace string, ttl time.Duration) *Store {
	return &Store{
		client:     client,
		namespace:  namespace,
		ttl:        ttl,
		versionKey: namespace + ":version",
	}
}

// Version returns the current cache version, initialising when missing.
func (s *Store) Version(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}
	ver, err := s.client.Get(ctx, s.versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := s.client.SetNX(ctx, s.versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := s.client.Set(ctx, s.versionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes a namespaced cache key with the current version.
func (s *Store) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if s == nil {
		return strings.Join(parts, ":"), nil
	}
	joined := strings.Join(append([]string{s.namespace}, parts...), ":")
	if s.client == nil {
		return joined, nil
	}
	ver, err := s.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// Fetch loads a cached value into dest or populates it using the loader.
func (s *Store) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if s != nil && s.client != nil {
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			return msgpack.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	if s != nil && s.client != nil {
		if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			return err
		}
	}
	return msgpack.Unmarshal(raw, dest)
}

// Bump invalidates every key in the namespace by incrementing the version.
func (s *Store) Bump(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}
	ver, err := s.client.Incr(ctx, s.versionKey).Result()
	if err != nil {
		return 0, err
	}
	if err := s.client.Publish(ctx, bumpChannel, s.namespace+":"+strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, err
	}
	return ver, nil
}
