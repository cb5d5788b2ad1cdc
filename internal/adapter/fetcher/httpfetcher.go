package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"caserss/internal/usecase"
)

// HTTPFetcher реализует интерфейс usecase.Fetcher поверх net/http.
// Возвращает ответ с любым статусом: проверку статуса выполняет usecase.Do.
type HTTPFetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewHTTPFetcher создает транспорт с таймаутом на один запрос.
// Нулевой timeout означает отсутствие ограничения.
func NewHTTPFetcher(log *slog.Logger, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		log:    log.With(slog.String("component", "fetcher")),
	}
}

// Fetch выполняет запрос и читает тело ответа целиком.
func (f *HTTPFetcher) Fetch(ctx context.Context, r usecase.Request) (*usecase.Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	log := f.log.With(
		slog.String("method", method),
		slog.String("url", r.URL),
	)
	log.Debug("Fetching URL")

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", usecase.Endpoint(r.URL), unwrapURLError(err))
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch url %s: %w", usecase.Endpoint(r.URL), unwrapURLError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", slog.Any("error", err))
		return nil, fmt.Errorf("failed to read body of %s: %w", usecase.Endpoint(r.URL), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("Unexpected status code", slog.Int("status_code", resp.StatusCode))
	} else {
		log.Info("Successfully fetched URL", slog.Int("bytes", len(data)))
	}
	return &usecase.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// unwrapURLError отбрасывает *url.Error, текст которого содержит полный адрес.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
