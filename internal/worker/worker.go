package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"caserss/internal/domain"
	"caserss/internal/usecase"
)

// FeedGenerator определяет интерфейс генерации ленты, которую прогревает воркер.
type FeedGenerator interface {
	Generate(ctx context.Context, q domain.Query) (*usecase.Feed, error)
}

// Purger удаляет просроченные записи кэша ответов.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Job - одна лента для периодического прогрева.
// Query вызывается перед каждым запуском, чтобы ключи API читались заново.
type Job struct {
	Name      string
	Generator FeedGenerator
	Query     func() (domain.Query, error)
}

// Stats - итог одного цикла прогрева.
type Stats struct {
	Successful int
	Errors     int
}

// Worker периодически генерирует ленты, наполняя кэш ответов источников,
// и очищает просроченные записи кэша.
type Worker struct {
	jobs     []Job
	purger   Purger
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New создает воркер. purger может быть nil.
func New(jobs []Job, purger Purger, interval, timeout time.Duration, log *slog.Logger) *Worker {
	return &Worker{
		jobs:     jobs,
		purger:   purger,
		interval: interval,
		timeout:  timeout,
		log:      log.With(slog.String("component", "worker")),
	}
}

// Start запускает воркер в отдельной горутине.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop отменяет текущий цикл и дожидается завершения горутины.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	w.log.Info("Cache warm worker started",
		slog.String("interval", w.interval.String()),
		slog.Int("feed_count", len(w.jobs)),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// RunOnce прогревает все ленты параллельно и очищает кэш.
func (w *Worker) RunOnce(ctx context.Context) Stats {
	start := time.Now()
	w.log.Info("Cache warm cycle started", slog.Int("feeds_to_process", len(w.jobs)))

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	for _, job := range w.jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := w.warm(ctx, j); err != nil {
				errorCount.Add(1)
				w.log.Error("Feed warm failed",
					slog.String("feed", j.Name),
					slog.Any("error", err),
				)
				return
			}
			successCount.Add(1)
		}(job)
	}
	wg.Wait()

	if w.purger != nil && ctx.Err() == nil {
		if _, err := w.purger.Purge(ctx); err != nil {
			w.log.Warn("Cache purge failed", slog.Any("error", err))
		}
	}

	stats := Stats{Successful: int(successCount.Load()), Errors: int(errorCount.Load())}
	w.log.Info("Cache warm cycle completed",
		slog.Int("successful", stats.Successful),
		slog.Int("errors", stats.Errors),
		slog.Int("total", len(w.jobs)),
		slog.Duration("duration", time.Since(start)),
	)
	return stats
}

func (w *Worker) warm(ctx context.Context, j Job) error {
	q, err := j.Query()
	if err != nil {
		return err
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	_, err = j.Generator.Generate(ctx, q)
	return err
}

// Interval возвращает период прогрева.
func (w *Worker) Interval() time.Duration { return w.interval }
