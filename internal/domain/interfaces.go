package domain

import (
	"context"
	"time"
)

// RecipientRepo управляет строками гильдий в хранилище.
type RecipientRepo interface {
	ListRecipients(ctx context.Context) ([]Recipient, error)
	// AddRecipient вставляет запись; повторная регистрация той же гильдии —
	// тихий no-op (ON CONFLICT DO NOTHING).
	AddRecipient(ctx context.Context, r Recipient) error
	RemoveRecipient(ctx context.Context, guildID int64) error
}

// CatalogRepo возвращает каталог статей для выбора «динозавра дня».
type CatalogRepo interface {
	ListRefs(ctx context.Context) ([]ContentRef, error)
}

// ContentSource отвечает за получение данных статьи из внешнего источника.
type ContentSource interface {
	// Summary возвращает ErrPageNotFound, если страницы не существует.
	Summary(ctx context.Context, pageKey string) (PageSummary, error)
	Article(ctx context.Context, url string) (Article, error)
}

// Messenger абстрагирует платформу доставки (Discord).
type Messenger interface {
	// HasGuild сообщает, числится ли бот в гильдии.
	HasGuild(guildID int64) bool
	// SendDaily публикует контент в канал и возвращает id сообщения.
	SendDaily(channelID int64, content *Content) (string, error)
	// OpenThread создаёт ветку обсуждения под сообщением.
	OpenThread(channelID int64, messageID, title string) error
}

// ContentProvider выдаёт текущий опубликованный контент.
type ContentProvider interface {
	Current() *Content
}

// RosterProvider выдаёт последний снимок списка получателей.
type RosterProvider interface {
	Snapshot() []Recipient
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
