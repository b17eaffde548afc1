package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pf:score:"

// RedisStore shares scores between engine processes through redis. Scores
// are stored as four big-endian bytes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: 24 * time.Hour}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (int32, bool, error) {
	b, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(b) != 4 {
		return 0, false, fmt.Errorf("redis store: bad value length %d for %q", len(b), key)
	}
	return int32(binary.BigEndian.Uint32(b)), true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, score int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(score))
	return r.rdb.Set(ctx, redisKeyPrefix+key, b[:], r.ttl).Err()
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
