package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// ListRecipients возвращает все настроенные гильдии.
func (p *Postgres) ListRecipients(ctx context.Context) ([]domain.Recipient, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, channel_id, scheduled_hour, scheduled_minute, time_zone, added_at, edited_at
FROM servers
`)
	metrics.ObserveNetworkRequest("postgres", "servers_list", "servers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []domain.Recipient
	for rows.Next() {
		var (
			r      domain.Recipient
			hour   int16
			minute int16
			edited sql.NullTime
		)
		if err := rows.Scan(&r.GuildID, &r.ChannelID, &hour, &minute, &r.Timezone, &r.AddedAt, &edited); err != nil {
			return nil, err
		}
		r.Time = domain.Clock{Hour: int(hour), Minute: int(minute)}
		if !r.Time.Valid() {
			return nil, fmt.Errorf("servers: некорректное время у гильдии %d: %d:%d", r.GuildID, hour, minute)
		}
		if edited.Valid {
			r.EditedAt = edited.Time
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// AddRecipient вставляет гильдию; повторная вставка того же id — тихий no-op.
func (p *Postgres) AddRecipient(ctx context.Context, r domain.Recipient) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO servers (id, channel_id, scheduled_hour, scheduled_minute, time_zone, added_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO NOTHING
`, r.GuildID, r.ChannelID, int16(r.Time.Hour), int16(r.Time.Minute), r.Timezone)
	metrics.ObserveNetworkRequest("postgres", "servers_add", "servers", start, err)
	return err
}

// RemoveRecipient удаляет гильдию.
func (p *Postgres) RemoveRecipient(ctx context.Context, guildID int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM servers WHERE id = $1`, guildID)
	metrics.ObserveNetworkRequest("postgres", "servers_remove", "servers", start, err)
	return err
}

// ListRefs возвращает весь каталог динозавров.
// Каталог небольшой, случайный выбор делается на стороне клиента.
func (p *Postgres) ListRefs(ctx context.Context) ([]domain.ContentRef, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, name, href, page_name, scraped_date
FROM dino_refs
`)
	metrics.ObserveNetworkRequest("postgres", "dino_refs_list", "dino_refs", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.ContentRef
	for rows.Next() {
		var ref domain.ContentRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.URL, &ref.PageKey, &ref.CataloguedAt); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
