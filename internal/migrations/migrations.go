// Package migrations создает схему кэша ответов в PostgreSQL.
package migrations

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration - одна миграция схемы кэша ответов.
type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20240110140000_create_http_cache_table",
		UpSQL: `
		CREATE TABLE http_cache(
		key TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		header JSONB NOT NULL DEFAULT '{}'::jsonb,
		body BYTEA NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
		);`,
	},
	{
		ID: "20240110140100_index_http_cache_expires_at",
		UpSQL: `
		CREATE INDEX http_cache_expires_at_idx ON http_cache (expires_at);`,
	},
}

// pending возвращает еще не примененные миграции в порядке идентификаторов.
func pending(all []Migration, applied map[string]bool) []Migration {
	out := make([]Migration, 0, len(all))
	for _, m := range all {
		if !applied[m.ID] {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func appliedIDs(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration id: %w", err)
	}
	applied := make(map[string]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}

// Apply применяет недостающие миграции в одной транзакции.
func Apply(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	log = log.With(slog.String("component", "migrations"))
	log.Info("Starting database migrations check...")
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (id TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	applied, err := appliedIDs(ctx, pool)
	if err != nil {
		return err
	}
	todo := pending(allMigrations, applied)
	if len(todo) == 0 {
		log.Info("Database is up to date, no new migrations found.")
		return nil
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, m := range todo {
			log.Info("Applying migration", slog.String("id", m.ID))
			if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1)", m.ID); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("Database migrations applied successfully", slog.Int("count", len(todo)))
	return nil
}
