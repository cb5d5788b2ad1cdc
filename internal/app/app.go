package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"caserss/internal/adapter/fetcher"
	"caserss/internal/adapter/lawapi"
	"caserss/internal/adapter/scourt"
	"caserss/internal/adapter/secret"
	"caserss/internal/config"
	"caserss/internal/domain"
	"caserss/internal/logger"
	"caserss/internal/migrations"
	server "caserss/internal/transport/http"
	"caserss/internal/usecase"
	"caserss/internal/worker"
	"caserss/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Имена лент для команды render и журналов.
const (
	FeedScourt = "scourt"
	FeedLaw    = "law"
)

// App связывает компоненты сервиса: кэш ответов, источники прецедентов,
// HTTP-сервер и воркер прогрева кэша.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	closeLog func()
	cache    storage.ResponseCache
	secrets  usecase.SecretReader
	scourt   *usecase.FeedUseCase
	law      *usecase.FeedUseCase
	server   *http.Server
	worker   *worker.Worker
	wg       sync.WaitGroup
}

// New создает и инициализирует приложение.
// Если база данных настроена, применяет миграции и хранит кэш ответов в PostgreSQL,
// иначе использует кэш в памяти.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	appLogger, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	cache, err := newCache(ctx, cfg.Database, appLogger)
	if err != nil {
		closeLog()
		return nil, err
	}
	secrets, err := secret.NewEnvSecrets(cfg.App.EnvFiles...)
	if err != nil {
		cache.Close()
		closeLog()
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	var transport usecase.Fetcher = fetcher.NewHTTPFetcher(appLogger, cfg.FetchTimeout())
	transport = fetcher.NewCachingFetcher(transport, cache, appLogger)

	scourtSource := scourt.NewClient(transport, appLogger, scourt.WithDetailConcurrency(cfg.App.DetailConcurrency))
	lawSource := lawapi.NewClient(transport, appLogger)

	a := &App{
		config:   cfg,
		logger:   appLogger,
		closeLog: closeLog,
		cache:    cache,
		secrets:  secrets,
		scourt:   usecase.NewFeedUseCase(scourtSource, cfg.App.Scourt.Channel, appLogger),
		law:      usecase.NewFeedUseCase(lawSource, cfg.App.Law.Channel, appLogger),
	}

	handler := server.NewHandler(appLogger, a.scourt, a.law, secrets, server.HandlerConfig{
		CredentialSecret: cfg.App.CredentialSecret,
		DefaultLimit:     cfg.App.DefaultLimit,
		DefaultCourt:     cfg.App.DefaultCourt,
	})
	a.server = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.NewServer(appLogger, handler, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if interval := cfg.WarmInterval(); interval > 0 {
		a.worker = worker.New([]worker.Job{
			{Name: FeedScourt, Generator: a.scourt, Query: func() (domain.Query, error) { return a.query(FeedScourt, 0, "") }},
			{Name: FeedLaw, Generator: a.law, Query: func() (domain.Query, error) { return a.query(FeedLaw, 0, "") }},
		}, cache, interval, cfg.Server.Timeout(), appLogger)
	}
	return a, nil
}

func newCache(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (storage.ResponseCache, error) {
	if !cfg.Enabled() {
		return storage.NewMemoryResponseCache(log), nil
	}
	dbPool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("Database connection established", slog.String("component", "database"))
	if err := migrations.Apply(ctx, log, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return storage.NewPostgresResponseCache(dbPool, log), nil
}

// query собирает параметры запуска ленты; limit и court по умолчанию берутся из конфигурации.
func (a *App) query(feed string, limit int, court string) (domain.Query, error) {
	if limit <= 0 {
		limit = a.config.App.DefaultLimit
	}
	q := domain.Query{Limit: limit}
	if feed != FeedLaw {
		return q, nil
	}
	if court == "" {
		court = a.config.App.DefaultCourt
	}
	q.Court = domain.ParseCourt(court)
	credential, err := a.secrets.ReadSecret(a.config.App.CredentialSecret)
	if err != nil {
		return domain.Query{}, err
	}
	q.Credential = credential
	return q, nil
}

// Render генерирует одну ленту и пишет документ RSS в out.
func (a *App) Render(ctx context.Context, feed string, limit int, court string, out io.Writer) error {
	var uc *usecase.FeedUseCase
	switch feed {
	case FeedScourt:
		uc = a.scourt
	case FeedLaw:
		uc = a.law
	default:
		return fmt.Errorf("unknown feed %q: expected %s or %s", feed, FeedScourt, FeedLaw)
	}
	q, err := a.query(feed, limit, court)
	if err != nil {
		return err
	}
	result, err := uc.Generate(ctx, q)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, result.Body)
	return err
}

// Run запускает HTTP-сервер и воркер прогрева и блокируется до сигнала завершения.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Starting caserss",
		slog.String("component", "app"),
		slog.Bool("database", a.config.Database.Enabled()),
		slog.Bool("warm_worker", a.worker != nil),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serveErr <- err
		}
	}()
	if a.worker != nil {
		a.worker.Start(ctx)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received", slog.String("component", "app"))
	case err = <-serveErr:
	}
	if shutdownErr := a.Shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// Shutdown останавливает воркер и HTTP-сервер и освобождает ресурсы.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	if a.worker != nil {
		a.worker.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	a.wg.Wait()
	a.Close()
	return err
}

// Close освобождает кэш и файлы журналов без остановки сервера.
func (a *App) Close() {
	a.cache.Close()
	a.logger.Info("Application stopped", slog.String("component", "app"))
	a.closeLog()
}
