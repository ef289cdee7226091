package listcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps list views in Redis so every server instance observes the
// same invalidations.
//
// Keys:
//
//	<prefix>gen:<path>                       generation counter (INCR)
//	<prefix>entry:<path>:<gen>:<variant>     cached payload, expires after ttl
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. Keys are namespaced under prefix.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) genKey(path string) string {
	return r.prefix + "gen:" + path
}

func (r *Redis) entryKey(path string, gen int64, variant string) string {
	return fmt.Sprintf("%sentry:%s:%d:%s", r.prefix, path, gen, variant)
}

func (r *Redis) generation(ctx context.Context, path string) (int64, error) {
	raw, err := r.client.Get(ctx, r.genKey(path)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read generation %s: %w", path, err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %s: %w", path, err)
	}
	return gen, nil
}

func (r *Redis) Get(ctx context.Context, path, variant string) ([]byte, int64, bool, error) {
	gen, err := r.generation(ctx, path)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := r.client.Get(ctx, r.entryKey(path, gen, variant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read entry %s: %w", path, err)
	}
	return data, gen, true, nil
}

// Set stores data under gen. An entry written for a generation that has
// since been bumped is unreachable and simply expires.
func (r *Redis) Set(ctx context.Context, path, variant string, gen int64, data []byte) error {
	if err := r.client.Set(ctx, r.entryKey(path, gen, variant), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("write entry %s: %w", path, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, path string) error {
	if err := r.client.Incr(ctx, r.genKey(path)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", path, err)
	}
	return nil
}
