package roster

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/metrics"
)

// Cache держит в памяти снимок списка гильдий.
// Снимок заменяется целиком; при ошибке загрузки остаётся предыдущий.
type Cache struct {
	repo     domain.RecipientRepo
	interval time.Duration
	log      zerolog.Logger

	snapshot atomic.Pointer[[]domain.Recipient]
}

// NewCache создаёт кэш получателей.
func NewCache(repo domain.RecipientRepo, interval time.Duration, log zerolog.Logger) *Cache {
	return &Cache{repo: repo, interval: interval, log: log}
}

// Snapshot возвращает последний успешно загруженный снимок.
// До первой загрузки список пуст.
func (c *Cache) Snapshot() []domain.Recipient {
	if p := c.snapshot.Load(); p != nil {
		return *p
	}
	return nil
}

// Loaded сообщает, была ли хоть одна успешная загрузка.
func (c *Cache) Loaded() bool {
	return c.snapshot.Load() != nil
}

// Refresh перечитывает таблицу гильдий и атомарно подменяет снимок.
// Вызывается циклом и сразу после любой мутации хранилища.
func (c *Cache) Refresh(ctx context.Context) error {
	recipients, err := c.repo.ListRecipients(ctx)
	if err != nil {
		metrics.RosterRefreshErrors.Inc()
		return fmt.Errorf("загрузка гильдий: %w", err)
	}
	c.snapshot.Store(&recipients)
	metrics.RosterSnapshotSize.Set(float64(len(recipients)))
	c.log.Debug().Int("guilds", len(recipients)).Msg("снимок гильдий обновлён")
	return nil
}

// Run крутит цикл обновления до отмены контекста.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if err := c.Refresh(ctx); err != nil {
		c.log.Error().Err(err).Msg("не удалось обновить снимок гильдий")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Error().Err(err).Msg("не удалось обновить снимок гильдий")
			}
		}
	}
}
