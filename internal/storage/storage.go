package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"historicalmap/internal/config"
)

// Package storage contains the tile store abstraction and its backends.
// Values are the raw encoded tile images exactly as fetched from the tile server.

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("tile not found")

// TileStore is a key/value store for raw tile bytes.
// Implementations are safe for concurrent use by multiple goroutines.
type TileStore interface {
	// Get returns the stored bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// TileKey is the canonical store key of tile (z, x, y).
func TileKey(z, x, y int) string {
	return fmt.Sprintf("tiles/%d/%d/%d", z, x, y)
}

// New opens the backend selected by cfg.Tile.Store.
// The returned close function releases backend resources and is never nil.
func New(cfg *config.AppConfig) (TileStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Tile.Store {
	case "", "memory":
		return NewMemory(cfg.Tile.MemoryLimit), noop, nil
	case "fs":
		s, err := NewFS(cfg.Tile.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "badger":
		s, err := OpenBadger(cfg.Tile.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "minio":
		s, err := NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "redis":
		s, err := NewRedis(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported tile store %q", cfg.Tile.Store)
	}
}

func ttl(sec int) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}
