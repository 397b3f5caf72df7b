package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss signals that the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache is a string key-value store. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Noop never stores anything; every Get misses.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) (string, error) { return "", ErrMiss }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Del(context.Context, ...string) (int64, error) { return 0, nil }
func (Noop) Ping(context.Context) error { return nil }
func (Noop) Close() error { return nil }
