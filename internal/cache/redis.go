// Package cache provides the Redis-backed key-value store used for token
// revocation tracking.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a thin KV wrapper around a Redis client
type Redis struct {
	client *redis.Client
	log    *slog.Logger
}

// New creates a Redis cache client
func New(cfg Config, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, log: log}
}

// Client exposes the underlying Redis client for health checks
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Ping verifies the connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}

// Set writes a value with the given TTL
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Error("cache set failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Get reads a value. A missing key returns "" with no error.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		r.log.Error("cache get failed", "key", key, "error", err)
		return "", err
	}
	return val, nil
}
