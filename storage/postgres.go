package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResponseCache хранит ответы транспорта в таблице http_cache.
type PostgresResponseCache struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresResponseCache(pool *pgxpool.Pool, log *slog.Logger) *PostgresResponseCache {
	log.Info("Initializing Postgres response cache")
	return &PostgresResponseCache{
		pool: pool,
		log:  log,
	}
}

func (db *PostgresResponseCache) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

func (db *PostgresResponseCache) Get(ctx context.Context, key string) (*Entry, error) {
	const op = "storage.postgres.Get"
	log := db.log.With(slog.String("op", op))
	query := `
	SELECT status, header, body, expires_at
	FROM http_cache
	WHERE key = $1 AND expires_at > now();
	`
	var (
		e      Entry
		header []byte
	)
	err := db.pool.QueryRow(ctx, query, key).Scan(&e.Status, &header, &e.Body, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	e.Header = http.Header{}
	if len(header) > 0 {
		if err := json.Unmarshal(header, &e.Header); err != nil {
			log.Error("Failed to decode cached header", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to decode header: %w", op, err)
		}
	}
	return &e, nil
}

func (db *PostgresResponseCache) Put(ctx context.Context, key string, e Entry) error {
	const op = "storage.postgres.Put"
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("%s: failed to encode header: %w", op, err)
	}
	query := `
	INSERT INTO http_cache (key, status, header, body, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (key) DO UPDATE
	SET status = EXCLUDED.status,
		header = EXCLUDED.header,
		body = EXCLUDED.body,
		expires_at = EXCLUDED.expires_at;
	`
	if _, err := db.pool.Exec(ctx, query, key, e.Status, header, e.Body, e.ExpiresAt); err != nil {
		db.log.Error("Failed to store response",
			slog.String("op", op),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	return nil
}

func (db *PostgresResponseCache) Purge(ctx context.Context) (int64, error) {
	const op = "storage.postgres.Purge"
	tag, err := db.pool.Exec(ctx, `DELETE FROM http_cache WHERE expires_at <= now();`)
	if err != nil {
		db.log.Error("Failed to purge expired responses",
			slog.String("op", op),
			slog.Any("error", err),
		)
		return 0, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	if n := tag.RowsAffected(); n > 0 {
		db.log.Info("Expired responses purged", slog.Int64("count", n))
	}
	return tag.RowsAffected(), nil
}
