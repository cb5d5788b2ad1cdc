package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"caserss/internal/adapter/rss"
	"caserss/internal/domain"
)

// Request описывает исходящий запрос к вышестоящему источнику.
// CacheTTL - подсказка транспорту, сколько можно хранить ответ; 0 отключает кэш.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	CacheTTL time.Duration
}

// Response - ответ транспорта: статус, заголовки и тело целиком.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher определяет интерфейс транспорта, через который ядро обращается к источникам.
// Повторы, таймауты и кэширование - ответственность реализации.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// SecretReader определяет интерфейс чтения секретов (ключей API).
type SecretReader interface {
	ReadSecret(name string) (string, error)
}

// PrecedentSource определяет интерфейс источника прецедентов.
// Ingest загружает полные записи в порядке источника,
// Present отображает запись на поля элемента ленты.
type PrecedentSource interface {
	Name() string
	Ingest(ctx context.Context, q domain.Query) ([]domain.Precedent, error)
	Present(p domain.Precedent) rss.Item
}

// Do выполняет запрос через транспорт и проверяет статус ответа.
// Любая ошибка транспорта или статус вне 2xx оборачивается в domain.ErrTransport.
func Do(ctx context.Context, f Fetcher, req Request) (*Response, error) {
	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, req.Method, Endpoint(req.URL), err)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, fmt.Errorf("%w: %s %s: unexpected status code: %d", domain.ErrTransport, req.Method, Endpoint(req.URL), resp.Status)
	}
	return resp, nil
}

// Endpoint возвращает адрес без строки запроса: в ней передаются ключи API,
// которые не должны попадать в тексты ошибок.
func Endpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
