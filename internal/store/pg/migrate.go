package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate aplica en orden los *_up.sql de fsys que aún no figuran en schema_migrations.
// Cada archivo corre en su propia transacción. Retorna las versiones aplicadas.
func (s *Store) Migrate(ctx context.Context, fsys fs.FS) ([]string, error) {
	if _, err := s.pool.Exec(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("pg: create schema_migrations: %w", err)
	}
	files, err := listMigrations(fsys, "_up.sql")
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range files {
		version := strings.TrimSuffix(name, "_up.sql")
		var done bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&done); err != nil {
			return applied, fmt.Errorf("pg: check migration %s: %w", version, err)
		}
		if done {
			continue
		}
		if err := s.runMigration(ctx, fsys, name, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}
	return applied, nil
}

// Rollback revierte las últimas `steps` migraciones aplicadas (todas si steps <= 0).
func (s *Store) Rollback(ctx context.Context, fsys fs.FS, steps int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC`)
	if err != nil {
		return nil, fmt.Errorf("pg: list applied migrations: %w", err)
	}
	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, err
		}
		versions = append(versions, v)
	}
	rows.Close()
	if steps > 0 && steps < len(versions) {
		versions = versions[:steps]
	}

	var reverted []string
	for _, v := range versions {
		if err := s.runMigration(ctx, fsys, v+"_down.sql", `DELETE FROM schema_migrations WHERE version = $1`, v); err != nil {
			return reverted, err
		}
		reverted = append(reverted, v)
	}
	return reverted, nil
}

func (s *Store) runMigration(ctx context.Context, fsys fs.FS, name, bookkeeping, version string) error {
	sqlBytes, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("pg: read %s: %w", name, err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("pg: exec %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, bookkeeping, version); err != nil {
		return fmt.Errorf("pg: record %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

func listMigrations(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("pg: read migrations: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
