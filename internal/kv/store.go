// Package kv persists named JSON blobs. Every backend is last-write-wins
// with no transactions across keys.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence mechanism the rest of the application sees.
type Store interface {
	// Get decodes the value stored under key into dest.
	Get(ctx context.Context, key string, dest any) error
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value any) error
	Close() error
}

// GetOrDefault is Get with ErrNotFound treated as success, leaving dest as is.
func GetOrDefault(ctx context.Context, s Store, key string, dest any) error {
	err := s.Get(ctx, key, dest)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Options configures Open.
type Options struct {
	Backend       string
	Path          string
	Prefix        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
	MaxConns      int
	MinConns      int
	Migrations    string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(opts.Path)
	case "sqlite":
		return NewSQLite(opts.Path)
	case "redis":
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.Prefix)
	case "postgres":
		return NewPostgres(ctx, opts.DatabaseURL, opts.MaxConns, opts.MinConns, opts.Migrations)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func logSet(backend, key string, start time.Time) {
	slog.Debug("kv set", "backend", backend, "key", key, "elapsed", time.Since(start))
}
