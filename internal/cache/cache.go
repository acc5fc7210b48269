// Package cache keeps recent public tracking lookups in redis so the tracker
// page does not hit postgres on every poll.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dealership/internal/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tracking:"

// TrackingCache stores applications keyed by tracking id. A miss is
// (nil, nil).
type TrackingCache interface {
	Get(ctx context.Context, trackingID string) (*model.Application, error)
	Set(ctx context.Context, app *model.Application) error
	Invalidate(ctx context.Context, trackingID string) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) TrackingCache {
	return &redisCache{client: client, ttl: ttl}
}

// NewRedisClient dials addr with pool settings suited to short lookups.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func key(trackingID string) string { return keyPrefix + trackingID }

func (c *redisCache) Get(ctx context.Context, trackingID string) (*model.Application, error) {
	raw, err := c.client.Get(ctx, key(trackingID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var app model.Application
	if err := json.Unmarshal(raw, &app); err != nil {
		// Stale layout; drop it and treat as a miss.
		_ = c.client.Del(ctx, key(trackingID)).Err()
		return nil, nil
	}
	return &app, nil
}

func (c *redisCache) Set(ctx context.Context, app *model.Application) error {
	raw, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}
	if err := c.client.Set(ctx, key(app.TrackingID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, trackingID string) error {
	if err := c.client.Del(ctx, key(trackingID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

type noop struct{}

// Noop is used when redis is not configured.
func Noop() TrackingCache { return noop{} }

func (noop) Get(context.Context, string) (*model.Application, error) { return nil, nil }
func (noop) Set(context.Context, *model.Application) error { return nil }
func (noop) Invalidate(context.Context, string) error { return nil }
