// Package cache stores raw service responses keyed by request fingerprint so
// that reruns do not hit rate-limited services again.
package cache

import (
	"context"
	"fmt"
)

// Store is a response cache. A miss returns ok == false with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Chain reads through its layers in order, backfilling faster layers on a
// hit in a slower one. Writes go to every layer.
type Chain struct {
	layers []Store
}

// NewChain creates a Chain, fastest layer first.
func NewChain(layers ...Store) *Chain {
	return &Chain{layers: layers}
}

func (c *Chain) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, layer := range c.layers {
		value, ok, err := layer.Get(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("cache layer %d: %w", i, err)
		}
		if !ok {
			continue
		}
		for _, faster := range c.layers[:i] {
			if err := faster.Put(ctx, key, value); err != nil {
				return nil, false, fmt.Errorf("backfill cache: %w", err)
			}
		}
		return value, true, nil
	}
	return nil, false, nil
}

func (c *Chain) Put(ctx context.Context, key string, value []byte) error {
	for i, layer := range c.layers {
		if err := layer.Put(ctx, key, value); err != nil {
			return fmt.Errorf("cache layer %d: %w", i, err)
		}
	}
	return nil
}
