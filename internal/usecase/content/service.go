package content

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/metrics"
)

// ErrEmptyCatalog возвращается, если каталог динозавров пуст.
var ErrEmptyCatalog = errors.New("content: catalog is empty")

// Refresher отвечает за «динозавра дня»: раз в сутки выбирает случайную
// статью каталога, разбирает её и атомарно публикует как текущий контент.
type Refresher struct {
	catalog  domain.CatalogRepo
	source   domain.ContentSource
	taxonomy []Rule
	interval time.Duration
	log      zerolog.Logger

	// одновременно выполняется не более одного обновления
	mu      sync.Mutex
	current atomic.Pointer[domain.Content]

	// подменяется в тестах
	pickFn func(n int) int
}

// NewRefresher создаёт сервис обновления контента.
func NewRefresher(catalog domain.CatalogRepo, source domain.ContentSource, interval time.Duration, log zerolog.Logger) *Refresher {
	return &Refresher{
		catalog:  catalog,
		source:   source,
		taxonomy: DefaultTaxonomy,
		interval: interval,
		log:      log,
		pickFn:   rand.Intn,
	}
}

// Current возвращает последний опубликованный контент или nil,
// если ни одно обновление ещё не завершилось успешно.
func (r *Refresher) Current() *domain.Content {
	return r.current.Load()
}

// Refresh выполняет один цикл обновления. При любой ошибке предыдущее
// значение остаётся опубликованным без изменений.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	err := r.refresh(ctx)
	metrics.ContentRefreshSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ContentRefreshErrors.Inc()
	}
	return err
}

func (r *Refresher) refresh(ctx context.Context) error {
	refs, err := r.catalog.ListRefs(ctx)
	if err != nil {
		return fmt.Errorf("чтение каталога: %w", err)
	}
	if len(refs) == 0 {
		return ErrEmptyCatalog
	}
	ref := refs[r.pickFn(len(refs))]

	summary, err := r.source.Summary(ctx, ref.PageKey)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			r.log.Warn().Str("page", ref.PageKey).Msg("страница не найдена, оставляем предыдущий контент")
		}
		return fmt.Errorf("summary %q: %w", ref.PageKey, err)
	}

	article, err := r.source.Article(ctx, ref.URL)
	if err != nil {
		return fmt.Errorf("статья %q: %w", ref.URL, err)
	}

	next := &domain.Content{
		Title:        summary.Title,
		URL:          ref.URL,
		Summary:      summary.Extract,
		ThumbnailURL: article.ThumbnailURL,
		Sections:     Classify(article.Sections, r.taxonomy),
	}
	r.current.Store(next)
	r.log.Info().Str("title", next.Title).Int("sections", len(next.Sections)).Msg("контент дня обновлён")
	return nil
}

// Run крутит цикл обновления до отмены контекста.
// Ошибка одного цикла логируется и не останавливает следующий.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.Refresh(ctx); err != nil {
		r.log.Error().Err(err).Msg("не удалось обновить контент дня")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Error().Err(err).Msg("не удалось обновить контент дня")
			}
		}
	}
}
