package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"caserss/internal/domain"
	"caserss/internal/usecase"
)

type feedGenerator interface {
	Generate(ctx context.Context, q domain.Query) (*usecase.Feed, error)
}

// Handler обслуживает ленты прецедентов и проверку состояния.
type Handler struct {
	log              *slog.Logger
	scourt           feedGenerator
	law              feedGenerator
	secrets          usecase.SecretReader
	credentialSecret string
	defaultLimit     int
	defaultCourt     domain.Court
}

// HandlerConfig - параметры запросов по умолчанию.
type HandlerConfig struct {
	CredentialSecret string
	DefaultLimit     int
	DefaultCourt     string
}

func NewHandler(log *slog.Logger, scourt, law feedGenerator, secrets usecase.SecretReader, cfg HandlerConfig) *Handler {
	court := domain.ParseCourt(cfg.DefaultCourt)
	if court.Name() == "" {
		court = domain.SupremeCourt
	}
	return &Handler{
		log:              log,
		scourt:           scourt,
		law:              law,
		secrets:          secrets,
		credentialSecret: cfg.CredentialSecret,
		defaultLimit:     cfg.DefaultLimit,
		defaultCourt:     court,
	}
}

// getScourtFeed - хендлер для эндпоинта GET /scourt.xml
func (h *Handler) getScourtFeed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getScourtFeed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	limit, ok := h.parseLimit(w, r, log)
	if !ok {
		return
	}
	h.serveFeed(w, r, log, h.scourt, domain.Query{Limit: limit})
}

// getLawFeed - хендлер для эндпоинта GET /prec.xml
func (h *Handler) getLawFeed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getLawFeed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	limit, ok := h.parseLimit(w, r, log)
	if !ok {
		return
	}
	court := h.defaultCourt
	if c := domain.ParseCourt(r.URL.Query().Get("court")); c.Name() != "" {
		court = c
	}
	credential, err := h.secrets.ReadSecret(h.credentialSecret)
	if err != nil {
		log.Error("Credential is not available", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Upstream credential is not configured")
		return
	}
	h.serveFeed(w, r, log, h.law, domain.Query{Limit: limit, Credential: credential, Court: court})
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return h.defaultLimit, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		log.Warn("invalid limit parameter", slog.String("limit", limitStr))
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
		return 0, false
	}
	return limit, true
}

func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request, log *slog.Logger, gen feedGenerator, q domain.Query) {
	feed, err := gen.Generate(r.Context(), q)
	if err != nil {
		log.Error("Failed to generate feed", slog.Any("error", err))
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		respondWithError(w, status, "Upstream source failed")
		return
	}
	w.Header().Set("Content-Type", feed.ContentType)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write([]byte(feed.Body))
	}
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
