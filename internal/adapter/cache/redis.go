package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis is a domain.TableStore shared between instances. Tables are stored
// as JSON under prefix + ":" + key and expire after ttl.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*Redis)

func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the expiry of stored tables. Zero keeps them indefinitely.
func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:    rdb,
		prefix: "rainmap:table",
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) (domain.WeeklyPointTable, bool, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.WeeklyPointTable{}, false, nil
	}
	if err != nil {
		return domain.WeeklyPointTable{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var table domain.WeeklyPointTable
	if err := json.Unmarshal(b, &table); err != nil {
		return domain.WeeklyPointTable{}, false, fmt.Errorf("decode cached table %s: %w", key, err)
	}
	return table, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, table domain.WeeklyPointTable) error {
	b, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the Redis server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
