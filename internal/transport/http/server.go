package http

import (
	"log/slog"
	"net/http"

	"caserss/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewServer создает роутер с эндпоинтами лент и цепочкой middleware.
func NewServer(log *slog.Logger, h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler)
	if cfg.RateLimit > 0 {
		r.Use(rateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	}
	if d := cfg.Timeout(); d > 0 {
		r.Use(timeoutMiddleware(d))
	}
	r.Use(middleware.GetHead)

	r.Get("/scourt.xml", h.getScourtFeed)
	r.Get("/prec.xml", h.getLawFeed)
	r.Get("/api/health", h.healthCheck)
	return r
}
