// Package redis implements the metrics storage backend on Redis. The funnel
// record is one JSON value under a single key, which maps directly onto the
// single-key contention model the funnel tolerates.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quizlab-dev/quizfunnel/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const connectPingTimeout = 5 * time.Second

// Adapter implements metrics.Backend for Redis.
type Adapter struct {
	client *redis.Client
	key    string
}

// NewAdapter connects to Redis and verifies connectivity. The record persists
// without a TTL; reset is an explicit operation, not an expiry.
func NewAdapter(addr, password string, db int, key string) (*Adapter, error) {
	if key == "" {
		return nil, fmt.Errorf("redis record key must not be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Adapter{client: client, key: key}, nil
}

// NewAdapterWithClient wraps an existing client. Used by tests.
func NewAdapterWithClient(client *redis.Client, key string) *Adapter {
	return &Adapter{client: client, key: key}
}

// Load fetches the stored record payload.
func (a *Adapter) Load(ctx context.Context) ([]byte, error) {
	data, err := a.client.Get(ctx, a.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, metrics.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load funnel record: %w", err)
	}
	return data, nil
}

// Save stores the record payload under the configured key.
func (a *Adapter) Save(ctx context.Context, data []byte) error {
	if err := a.client.Set(ctx, a.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save funnel record: %w", err)
	}
	return nil
}

// Ping reports Redis connectivity.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Close releases the client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
