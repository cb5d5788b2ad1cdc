package storage

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrCacheMiss возвращается, когда записи нет или срок ее хранения истек.
var ErrCacheMiss = errors.New("cache miss")

// Entry - сохраненный ответ вышестоящего источника.
type Entry struct {
	Status    int
	Header    http.Header
	Body      []byte
	ExpiresAt time.Time
}

// ResponseCache определяет общий интерфейс хранилища ответов транспорта.
// Get возвращает ErrCacheMiss для отсутствующих и просроченных записей,
// Purge удаляет просроченные записи и возвращает их число.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, e Entry) error
	Purge(ctx context.Context) (int64, error)
	Close()
}
