package cache

import (
	"context"
	"errors"
)

// ErrStore wraps every failure reported by a durable tier. TTLCache absorbs
// these; they are only ever logged.
var ErrStore = errors.New("durable cache store")

// Store is the durable tier behind a TTLCache. Implementations persist opaque
// bytes; freshness is decided by the cache from the envelope it writes.
type Store interface {
	// Get returns the stored bytes, or ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// NopStore is the local-only durable tier: every read misses and writes are dropped.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Set(context.Context, string, []byte) error { return nil }
