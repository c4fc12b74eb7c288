package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/promptbench/internal/config"
	"github.com/nikhilbhutani/promptbench/internal/database"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool and applies the embedded schema plus any SQL files
// found in migrationsPath.
func NewPostgres(ctx context.Context, url string, maxConns, minConns int, migrationsPath string) (*Postgres, error) {
	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		URL:      url,
		MaxConns: maxConns,
		MinConns: minConns,
	})
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool, migrationsPath); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string, dest any) error {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_blobs WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("postgres get %s: %w", key, err)
	}
	return json.Unmarshal(value, dest)
}

func (p *Postgres) Set(ctx context.Context, key string, value any) error {
	start := time.Now()
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO kv_blobs (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	logSet("postgres", key, start)
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
