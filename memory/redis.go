package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding persistent entries when no key is configured.
const DefaultRedisKey = "thinkmachine:memory"

// RedisStore keeps entries as fields of a single Redis hash. Like DurableStore
// it holds no local copy, so every call observes writes made by other clients.
type RedisStore struct {
	client  redis.Cmdable
	scope   Scope
	hashKey string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore binds a store to hashKey on client. An empty hashKey uses
// DefaultRedisKey and an empty scope uses Persistent.
func NewRedisStore(client redis.Cmdable, scope Scope, hashKey string) *RedisStore {
	if scope == "" {
		scope = Persistent
	}
	if hashKey == "" {
		hashKey = DefaultRedisKey
	}
	return &RedisStore{client: client, scope: scope, hashKey: hashKey}
}

func (s *RedisStore) Scope() Scope { return s.scope }

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hkeys %s: %w", s.hashKey, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.hashKey, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Lookup, error) {
	v, err := s.client.HGet(ctx, s.hashKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return Lookup{Scope: s.scope, Key: key}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("redis hget %s: %w", s.hashKey, err)
	}
	return Lookup{Scope: s.scope, Key: key, Value: v, Found: true}, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.hashKey, key).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", s.hashKey, err)
	}
	return nil
}
