package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caserss/internal/adapter/rss"
	"caserss/internal/domain"
)

// Feed - результат генерации ленты: тип содержимого и документ RSS.
type Feed struct {
	ContentType string
	Body        string
	Items       int
}

// FeedUseCase реализует конвейер генерации ленты для одного источника:
// загрузка прецедентов, отображение на элементы и отрисовка RSS.
type FeedUseCase struct {
	source  PrecedentSource
	channel rss.ChannelConfig
	log     *slog.Logger
}

// NewFeedUseCase создает конвейер для источника с метаданными канала.
func NewFeedUseCase(source PrecedentSource, channel rss.ChannelConfig, log *slog.Logger) *FeedUseCase {
	return &FeedUseCase{
		source:  source,
		channel: channel,
		log:     log,
	}
}

// Name возвращает имя источника конвейера.
func (uc *FeedUseCase) Name() string { return uc.source.Name() }

// Generate выполняет полный цикл генерации ленты. Ошибка любого этапа
// прерывает весь запуск: частичная лента не возвращается.
func (uc *FeedUseCase) Generate(ctx context.Context, q domain.Query) (*Feed, error) {
	start := time.Now()
	log := uc.log.With(
		slog.String("component", "feed-generator"),
		slog.String("source", uc.source.Name()),
		slog.Int("limit", q.Limit),
	)
	log.Info("Feed generation started")

	precedents, err := uc.source.Ingest(ctx, q)
	if err != nil {
		log.Error("Feed ingest failed",
			slog.String("stage", "ingest"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("ingest failed for %s: %w", uc.source.Name(), err)
	}
	log.Debug("Precedents ingested",
		slog.String("stage", "ingest"),
		slog.Int("items_found", len(precedents)),
	)

	items := make([]rss.Item, 0, len(precedents))
	for _, p := range precedents {
		items = append(items, uc.source.Present(p))
	}
	body, err := rss.Render(uc.channel, items)
	if err != nil {
		log.Error("Feed render failed",
			slog.String("stage", "render"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("render failed for %s: %w", uc.source.Name(), err)
	}

	log.Info("Feed generation completed successfully",
		slog.Int("items_found", len(items)),
		slog.Duration("duration", time.Since(start)),
	)
	return &Feed{
		ContentType: rss.ContentType,
		Body:        body,
		Items:       len(items),
	}, nil
}
