package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the PostgreSQL-backed implementation of every table
// the service reads or writes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunMigrations applies every pending .up.sql file in lexical order. Each file
// runs in its own transaction together with its schema_migrations record.
func (s *PostgresStore) RunMigrations(ctx context.Context, migrationsDir string) ([]string, error) {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	migrations, err := findMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, path := range migrations {
		version := filepath.Base(path)

		var exists bool
		err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("checking migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		sql, err := os.ReadFile(path)
		if err != nil {
			return applied, fmt.Errorf("reading migration %s: %w", version, err)
		}

		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return fmt.Errorf("executing migration %s: %w", version, err)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
				return fmt.Errorf("recording migration %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}

	return applied, nil
}

func findMigrations(dir string) ([]string, error) {
	var migrations []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".up.sql") {
			migrations = append(migrations, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Strings(migrations)
	return migrations, nil
}
