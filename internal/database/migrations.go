package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migration is one named SQL script.
type Migration struct {
	Version string
	SQL     string
}

// LoadMigrations returns the embedded schema followed by any *.sql files in
// extraPath, ordered by file name within each group. extraPath may be empty
// or missing.
func LoadMigrations(extraPath string) ([]Migration, error) {
	base, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	migs, err := readDir(base)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	if extraPath == "" {
		return migs, nil
	}
	if _, err := os.Stat(extraPath); os.IsNotExist(err) {
		return migs, nil
	}
	extra, err := readDir(os.DirFS(extraPath))
	if err != nil {
		return nil, fmt.Errorf("read migrations from %s: %w", extraPath, err)
	}
	return append(migs, extra...), nil
}

func readDir(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migration files: %w", err)
	}
	sort.Strings(files)

	migs := make([]Migration, 0, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", f, err)
		}
		migs = append(migs, Migration{Version: f, SQL: string(data)})
	}
	return migs, nil
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool, extraPath string) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	migs, err := LoadMigrations(extraPath)
	if err != nil {
		return err
	}

	for _, m := range migs {
		var exists bool
		err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if exists {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version)
	}

	return nil
}
