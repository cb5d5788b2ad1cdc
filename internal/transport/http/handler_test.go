package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"caserss/internal/config"
	"caserss/internal/domain"
	"caserss/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	got  domain.Query
	feed *usecase.Feed
	err  error
}

func (g *fakeGenerator) Generate(ctx context.Context, q domain.Query) (*usecase.Feed, error) {
	g.got = q
	return g.feed, g.err
}

type fakeSecrets map[string]string

func (s fakeSecrets) ReadSecret(name string) (string, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found", name)
}

func okFeed() *usecase.Feed {
	return &usecase.Feed{ContentType: "application/rss+xml; charset=utf-8", Body: "<rss></rss>"}
}

func newTestServer(scourt, law *fakeGenerator, secrets fakeSecrets, cfg config.ServerConfig) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(log, scourt, law, secrets, HandlerConfig{
		CredentialSecret: "LAW_OC",
		DefaultLimit:     49,
		DefaultCourt:     "대법원",
	})
	return NewServer(log, h, cfg)
}

func defaultServerConfig() config.ServerConfig {
	return config.ServerConfig{RequestTimeout: "5s", CORSOrigins: []string{"*"}}
}

func TestScourtFeed(t *testing.T) {
	scourt := &fakeGenerator{feed: okFeed()}
	srv := newTestServer(scourt, &fakeGenerator{}, nil, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scourt.xml?limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<rss></rss>", rec.Body.String())
	assert.Equal(t, 5, scourt.got.Limit)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestScourtFeed_DefaultLimit(t *testing.T) {
	scourt := &fakeGenerator{feed: okFeed()}
	srv := newTestServer(scourt, &fakeGenerator{}, nil, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scourt.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 49, scourt.got.Limit)
}

func TestFeed_InvalidLimit(t *testing.T) {
	srv := newTestServer(&fakeGenerator{feed: okFeed()}, &fakeGenerator{}, nil, defaultServerConfig())

	for _, q := range []string{"abc", "0", "-3"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scourt.xml?limit="+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestLawFeed_QueryAndCredential(t *testing.T) {
	law := &fakeGenerator{feed: okFeed()}
	srv := newTestServer(&fakeGenerator{}, law, fakeSecrets{"LAW_OC": "oc-key"}, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prec.xml?"+url.Values{"limit": {"7"}, "court": {"서울고등법원"}}.Encode(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Query{Limit: 7, Credential: "oc-key", Court: domain.NamedCourt("서울고등법원")}, law.got)
}

func TestLawFeed_DefaultCourt(t *testing.T) {
	law := &fakeGenerator{feed: okFeed()}
	srv := newTestServer(&fakeGenerator{}, law, fakeSecrets{"LAW_OC": "oc-key"}, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prec.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SupremeCourt, law.got.Court)
}

func TestLawFeed_MissingCredential(t *testing.T) {
	law := &fakeGenerator{feed: okFeed()}
	srv := newTestServer(&fakeGenerator{}, law, fakeSecrets{}, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prec.xml", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "LAW_OC")
}

func TestFeed_PipelineFailure(t *testing.T) {
	scourt := &fakeGenerator{err: fmt.Errorf("ingest: %w", domain.ErrTransport)}
	srv := newTestServer(scourt, &fakeGenerator{}, nil, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scourt.xml", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "<rss")
}

func TestFeed_Timeout(t *testing.T) {
	scourt := &fakeGenerator{err: errors.Join(domain.ErrTransport, context.DeadlineExceeded)}
	srv := newTestServer(scourt, &fakeGenerator{}, nil, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scourt.xml", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&fakeGenerator{}, &fakeGenerator{}, nil, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID_Propagated(t *testing.T) {
	srv := newTestServer(&fakeGenerator{}, &fakeGenerator{}, nil, defaultServerConfig())
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	cfg := defaultServerConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	srv := newTestServer(&fakeGenerator{}, &fakeGenerator{}, nil, cfg)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	other.RemoteAddr = "10.0.0.2:4000"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	cfg := defaultServerConfig()
	cfg.CORSOrigins = []string{"https://reader.example"}
	srv := newTestServer(&fakeGenerator{feed: okFeed()}, &fakeGenerator{}, nil, cfg)

	req := httptest.NewRequest(http.MethodGet, "/scourt.xml", nil)
	req.Header.Set("Origin", "https://reader.example")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "https://reader.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(&fakeGenerator{}, &fakeGenerator{}, nil, defaultServerConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := timeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestIPLimiter_EvictsIdleVisitors(t *testing.T) {
	l := newIPLimiter(100, 1)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.get("10.0.0.1")
	now = now.Add(6 * time.Minute)
	active := l.get("10.0.0.2")
	now = now.Add(5 * time.Minute)
	l.get("10.0.0.3")

	assert.Len(t, l.visitors, 2)
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Same(t, active, l.get("10.0.0.2"))
}

func TestIPLimiter_IdleTTLCoversRefill(t *testing.T) {
	assert.Equal(t, limiterIdleTTL, newIPLimiter(5, 10).idleTTL)
	assert.Equal(t, 2000*time.Second, newIPLimiter(0.5, 1000).idleTTL)
}
