package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"caserss/internal/usecase"
	"caserss/storage"
)

// CachingFetcher оборачивает транспорт кэшем ответов.
// Кэшируются только успешные (2xx) ответы на запросы с ненулевым CacheTTL.
// Ошибки кэша не прерывают запрос: ответ берется из сети.
type CachingFetcher struct {
	next  usecase.Fetcher
	cache storage.ResponseCache
	log   *slog.Logger
	now   func() time.Time
}

func NewCachingFetcher(next usecase.Fetcher, cache storage.ResponseCache, log *slog.Logger) *CachingFetcher {
	return &CachingFetcher{
		next:  next,
		cache: cache,
		log:   log.With(slog.String("component", "response-cache")),
		now:   time.Now,
	}
}

// CacheKey строит ключ кэша как хеш метода, адреса и тела запроса.
// Адрес может содержать учетные данные (OC), поэтому в хранилище попадает только хеш.
func CacheKey(r usecase.Request) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL))
	h.Write([]byte{0})
	h.Write(r.Body)
	return hex.EncodeToString(h.Sum(nil))
}

func (f *CachingFetcher) Fetch(ctx context.Context, r usecase.Request) (*usecase.Response, error) {
	if r.CacheTTL <= 0 {
		return f.next.Fetch(ctx, r)
	}
	key := CacheKey(r)
	log := f.log.With(slog.String("url", r.URL))

	e, err := f.cache.Get(ctx, key)
	switch {
	case err == nil:
		log.Debug("Cache hit")
		return &usecase.Response{Status: e.Status, Header: e.Header, Body: e.Body}, nil
	case !errors.Is(err, storage.ErrCacheMiss):
		log.Warn("Cache lookup failed", slog.Any("error", err))
	}

	resp, err := f.next.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	if resp.Status >= 200 && resp.Status < 300 {
		entry := storage.Entry{
			Status:    resp.Status,
			Header:    resp.Header,
			Body:      resp.Body,
			ExpiresAt: f.now().Add(r.CacheTTL),
		}
		if err := f.cache.Put(ctx, key, entry); err != nil {
			log.Warn("Cache store failed", slog.Any("error", err))
		}
	}
	return resp, nil
}
