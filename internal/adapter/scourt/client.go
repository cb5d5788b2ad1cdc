// Package scourt реализует источник прецедентов библиотеки Верховного суда
// (library.scourt.go.kr): список в JSON и детальные документы по каждой записи.
package scourt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"caserss/internal/adapter/rss"
	"caserss/internal/domain"
	"caserss/internal/usecase"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL = "https://library.scourt.go.kr"
	MaxListSize    = 100

	listCacheTTL   = 15 * time.Minute
	detailCacheTTL = 24 * time.Hour
)

// Client загружает прецеденты из библиотеки Верховного суда.
// Реализует usecase.PrecedentSource.
type Client struct {
	fetcher           usecase.Fetcher
	log               *slog.Logger
	baseURL           string
	detailConcurrency int
}

// Option настраивает Client.
type Option func(*Client)

// WithBaseURL задает адрес API (используется в тестах).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithDetailConcurrency задает число одновременных запросов деталей.
// Значение 1 (по умолчанию) - строго последовательно в порядке списка.
func WithDetailConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.detailConcurrency = n
		}
	}
}

func NewClient(fetcher usecase.Fetcher, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		fetcher:           fetcher,
		log:               log.With(slog.String("component", "scourt")),
		baseURL:           DefaultBaseURL,
		detailConcurrency: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "scourt" }

// Ingest реализует метод интерфейса PrecedentSource.
func (c *Client) Ingest(ctx context.Context, q domain.Query) ([]domain.Precedent, error) {
	return c.FetchList(ctx, q.Limit)
}

// Present реализует метод интерфейса PrecedentSource.
func (c *Client) Present(p domain.Precedent) rss.Item {
	return NewItem(p)
}

// FetchList загружает список прецедентов и для каждой записи со ссылкой
// на детальный документ запрашивает его. Порядок списка сохраняется.
// Ошибка разбора списка или любой детали прерывает всю загрузку.
// Запись без ссылки на детали получает значения по умолчанию без запроса.
func (c *Client) FetchList(ctx context.Context, limit int) ([]domain.Precedent, error) {
	const op = "scourt.FetchList"
	log := c.log.With(slog.String("op", op))
	limit = clampLimit(limit)

	resp, err := usecase.Do(ctx, c.fetcher, c.listRequest(limit))
	if err != nil {
		log.Error("List fetch failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	overviews, err := decodeList(resp.Body)
	if err != nil {
		log.Error("List decode failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Debug("List decoded", slog.Int("count", len(overviews)))

	details := make([]detail, len(overviews))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.detailConcurrency)
	for i, ov := range overviews {
		if ov.detailFile == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := c.fetchDetail(gctx, ov.detailFile)
			if err != nil {
				return fmt.Errorf("detail %d (%s): %w", ov.precedent.ID(), ov.detailFile, err)
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("Detail fetch failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]domain.Precedent, 0, len(overviews))
	for i, ov := range overviews {
		if ov.detailFile == "" {
			result = append(result, ov.precedent)
			continue
		}
		result = append(result, merge(ov, details[i]))
	}
	log.Info("Precedents loaded", slog.Int("count", len(result)))
	return result, nil
}

func (c *Client) fetchDetail(ctx context.Context, file string) (detail, error) {
	req, err := c.detailRequest(file)
	if err != nil {
		return detail{}, err
	}
	resp, err := usecase.Do(ctx, c.fetcher, req)
	if err != nil {
		return detail{}, err
	}
	return decodeDetail(resp.Body)
}

func (c *Client) listRequest(limit int) usecase.Request {
	q := url.Values{}
	q.Set("search_category", "1")
	q.Set("search_kind", "2")
	q.Set("facet_search_yn", "Y")
	q.Set("param_orderby_item", "DECI_DATE")
	q.Set("param_lib_orderby", "DESC")
	q.Set("param_lib_display", strconv.Itoa(limit))
	q.Set("param_pageNo", "1")

	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0")
	h.Set("Accept", "application/json")
	return usecase.Request{
		Method:   http.MethodGet,
		URL:      c.baseURL + "/api/decisionSearch/result?" + q.Encode(),
		Header:   h,
		CacheTTL: listCacheTTL,
	}
}

// detailRequest строит запрос детального документа. Каталог файла
// определяется по первым двум цифрам имени (год: "24..." -> case_xml/2024).
func (c *Client) detailRequest(file string) (usecase.Request, error) {
	if len(file) < 2 {
		return usecase.Request{}, fmt.Errorf("%w: invalid detail file name %q", domain.ErrDecode, file)
	}
	form := url.Values{}
	form.Set("filePath", fmt.Sprintf("case_xml/20%s/%s", file[:2], file))

	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return usecase.Request{
		Method:   http.MethodPost,
		URL:      c.baseURL + "/api/decisionSearch/textxml/info",
		Header:   h,
		Body:     []byte(form.Encode()),
		CacheTTL: detailCacheTTL,
	}, nil
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
