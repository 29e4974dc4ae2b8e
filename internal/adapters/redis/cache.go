// Package redis provides Redis-backed adapters for shared board state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/bullboard/internal/core"
)

// DefaultNamespace prefixes every key written by Cache.
const DefaultNamespace = "bullboard:"

// minLockTTL keeps SetIfNotExists keys from living forever.
const minLockTTL = time.Second

var errEmptyKey = errors.New("key cannot be empty")

// Cache implements core.CacheRepository on a Redis client.
type Cache struct {
	client    redis.UniversalClient
	namespace string
}

var _ core.CacheRepository = (*Cache)(nil)

// NewCache creates a Cache using DefaultNamespace.
func NewCache(client redis.UniversalClient) *Cache {
	return NewCacheWithNamespace(client, DefaultNamespace)
}

// NewCacheWithNamespace creates a Cache whose keys are prefixed with namespace.
func NewCacheWithNamespace(client redis.UniversalClient, namespace string) *Cache {
	ns := strings.TrimSpace(namespace)
	if ns != "" && !strings.HasSuffix(ns, ":") {
		ns += ":"
	}
	return &Cache{client: client, namespace: ns}
}

func (c *Cache) key(k string) (string, error) {
	if strings.TrimSpace(k) == "" {
		return "", errEmptyKey
	}
	return c.namespace + k, nil
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, k, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the stored value or nil when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := c.key(key)
	if err != nil {
		return nil, err
	}
	b, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	k, err := c.key(key)
	if err != nil {
		return false, err
	}
	n, err := c.client.Del(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// SetIfNotExists uses SET NX with a TTL so the write and the expiry are atomic.
func (c *Cache) SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	k, err := c.key(key)
	if err != nil {
		return false, err
	}
	if ttl < minLockTTL {
		ttl = minLockTTL
	}
	status, err := c.client.SetArgs(ctx, k, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// NX not met comes back as a nil reply
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis set nx: %w", err)
	}
	return status == "OK", nil
}

// Health pings Redis.
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
