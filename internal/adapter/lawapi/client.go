// Package lawapi реализует источник прецедентов информационного центра
// законодательства (law.go.kr, DRF API), отдающего чистый XML.
package lawapi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"caserss/internal/adapter/rss"
	"caserss/internal/domain"
	"caserss/internal/usecase"
)

const (
	DefaultListURL    = "https://www.law.go.kr/DRF/lawSearch.do"
	DefaultServiceURL = "http://www.law.go.kr/DRF/lawService.do"
	MaxListSize       = 100

	listCacheTTL        = 15 * time.Minute
	descriptionCacheTTL = 24 * time.Hour

	orgSupremeCourt = "400201"
	orgOtherCourts  = "400202"
)

// Client загружает прецеденты из DRF API. Реализует usecase.PrecedentSource.
type Client struct {
	fetcher    usecase.Fetcher
	log        *slog.Logger
	listURL    string
	serviceURL string
}

// Option настраивает Client.
type Option func(*Client)

// WithEndpoints задает адреса поиска и сервиса (используется в тестах).
func WithEndpoints(listURL, serviceURL string) Option {
	return func(c *Client) {
		c.listURL = listURL
		c.serviceURL = serviceURL
	}
}

func NewClient(fetcher usecase.Fetcher, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		fetcher:    fetcher,
		log:        log.With(slog.String("component", "lawapi")),
		listURL:    DefaultListURL,
		serviceURL: DefaultServiceURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "lawapi" }

// Ingest загружает список и затем, последовательно и в порядке списка,
// описание каждой записи.
func (c *Client) Ingest(ctx context.Context, q domain.Query) ([]domain.Precedent, error) {
	items, err := c.FetchList(ctx, q.Credential, q.Court, q.Limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		desc, err := c.FetchDescription(ctx, q.Credential, items[i].ID())
		if err != nil {
			return nil, err
		}
		items[i].Abstract = desc
	}
	return items, nil
}

func (c *Client) Present(p domain.Precedent) rss.Item {
	return NewItem(p)
}

// FetchList запрашивает список прецедентов суда court.
func (c *Client) FetchList(ctx context.Context, credential string, court domain.Court, limit int) ([]domain.Precedent, error) {
	const op = "lawapi.FetchList"
	log := c.log.With(slog.String("op", op), slog.String("court", court.Name()))

	org := orgOtherCourts
	if court.IsSupreme() {
		org = orgSupremeCourt
	}
	q := url.Values{}
	q.Set("OC", credential)
	q.Set("target", "prec")
	q.Set("org", org)
	q.Set("curt", court.Name())
	q.Set("display", strconv.Itoa(clampLimit(limit)))
	q.Set("sort", "ddes")
	q.Set("type", "XML")

	body, err := c.fetchXML(ctx, c.listURL+"?"+q.Encode(), listCacheTTL)
	if err != nil {
		log.Error("List fetch failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := ParseList(bytes.NewReader(body))
	if err != nil {
		log.Error("List decode failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("Precedents listed", slog.Int("count", len(items)))
	return items, nil
}

// FetchDescription запрашивает документ прецедента и возвращает поле 판시사항.
func (c *Client) FetchDescription(ctx context.Context, credential string, id int64) (string, error) {
	const op = "lawapi.FetchDescription"
	q := url.Values{}
	q.Set("OC", credential)
	q.Set("target", "prec")
	q.Set("ID", strconv.FormatInt(id, 10))
	q.Set("type", "XML")

	body, err := c.fetchXML(ctx, c.serviceURL+"?"+q.Encode(), descriptionCacheTTL)
	if err != nil {
		c.log.Error("Description fetch failed", slog.String("op", op), slog.Int64("id", id), slog.Any("error", err))
		return "", fmt.Errorf("%s %d: %w", op, id, err)
	}
	desc, err := ParseDescription(bytes.NewReader(body))
	if err != nil {
		c.log.Error("Description decode failed", slog.String("op", op), slog.Int64("id", id), slog.Any("error", err))
		return "", fmt.Errorf("%s %d: %w", op, id, err)
	}
	return desc, nil
}

// fetchXML выполняет GET и отклоняет ответы, Content-Type которых не XML.
func (c *Client) fetchXML(ctx context.Context, u string, ttl time.Duration) ([]byte, error) {
	resp, err := usecase.Do(ctx, c.fetcher, usecase.Request{
		Method:   http.MethodGet,
		URL:      u,
		CacheTTL: ttl,
	})
	if err != nil {
		return nil, err
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "xml") {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnexpectedContentType, ct)
	}
	return resp.Body, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 1
	case limit > MaxListSize:
		return MaxListSize
	default:
		return limit
	}
}
