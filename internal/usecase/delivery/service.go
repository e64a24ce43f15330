package delivery

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/metrics"
)

// ErrNotConfigured возвращается, если гильдия не настроена.
var ErrNotConfigured = errors.New("delivery: гильдия не настроена")

// ErrNoContent возвращается, если контент дня ещё не опубликован.
var ErrNoContent = errors.New("delivery: контент дня ещё не готов")

const dedupTTL = 24 * time.Hour

// Service раз в минуту проверяет, у кого из гильдий наступило
// локальное время рассылки, и отправляет им контент дня.
type Service struct {
	roster    domain.RosterProvider
	content   domain.ContentProvider
	messenger domain.Messenger
	// dedup опционален: с ним повторная отправка в те же сутки подавляется,
	// без него действует чистое сравнение (час, минута) каждый тик.
	dedup domain.Cache
	tick  time.Duration
	log   zerolog.Logger

	// подменяется в тестах
	nowFn func() time.Time
}

// NewService создаёт планировщик доставки.
func NewService(roster domain.RosterProvider, content domain.ContentProvider, messenger domain.Messenger, dedup domain.Cache, tick time.Duration, log zerolog.Logger) *Service {
	return &Service{
		roster:    roster,
		content:   content,
		messenger: messenger,
		dedup:     dedup,
		tick:      tick,
		log:       log,
		nowFn:     time.Now,
	}
}

// Run крутит цикл доставки до отмены контекста.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(s.nowFn())
		}
	}
}

// Tick обрабатывает всех получателей текущего снимка для момента now.
// Гильдии независимы: ошибка одной не влияет на остальных.
func (s *Service) Tick(now time.Time) {
	current := s.content.Current()
	if current == nil {
		s.log.Debug().Msg("контент дня ещё не опубликован, тик пропущен")
		return
	}

	tickID := uuid.NewString()
	for _, recipient := range s.roster.Snapshot() {
		s.attempt(tickID, recipient, current, now)
	}
}

func (s *Service) attempt(tickID string, r domain.Recipient, current *domain.Content, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().
				Str("tick", tickID).
				Int64("guild", r.GuildID).
				Any("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("паника при доставке")
		}
	}()

	if !s.messenger.HasGuild(r.GuildID) {
		s.log.Warn().Str("tick", tickID).Int64("guild", r.GuildID).Msg("гильдия недоступна, пропускаем")
		return
	}

	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		s.log.Error().Str("tick", tickID).Int64("guild", r.GuildID).Str("tz", r.Timezone).Err(err).Msg("неизвестный часовой пояс")
		return
	}
	local := now.In(loc)
	if local.Hour() != r.Time.Hour || local.Minute() != r.Time.Minute {
		return
	}

	if err := s.deliverOnce(r, current, local); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.DeliveryPermissionErrors.Inc()
			s.log.Warn().Str("tick", tickID).Int64("guild", r.GuildID).Msg("нет прав на отправку в гильдии")
			return
		}
		metrics.DeliveryErrors.Inc()
		s.log.Error().Str("tick", tickID).Int64("guild", r.GuildID).Err(err).Msg("не удалось доставить контент")
	}
}

// deliverOnce отправляет контент, при настроенном dedup — не чаще раза
// в локальные сутки получателя.
func (s *Service) deliverOnce(r domain.Recipient, current *domain.Content, local time.Time) error {
	send := func() error { return s.send(r, current) }
	if s.dedup == nil {
		return send()
	}
	key := fmt.Sprintf("daily:%d:%s", r.GuildID, local.Format("2006-01-02"))
	return s.dedup.Once(key, dedupTTL, send)
}

func (s *Service) send(r domain.Recipient, current *domain.Content) error {
	messageID, err := s.messenger.SendDaily(r.ChannelID, current)
	if err != nil {
		return err
	}
	metrics.DeliveriesTotal.Inc()
	metrics.IncDeliveryForGuild(r.GuildID)

	if err := s.messenger.OpenThread(r.ChannelID, messageID, "Discuss "+current.Title); err != nil {
		// Сообщение уже ушло, поэтому ошибка ветки не считается провалом доставки.
		s.log.Warn().Int64("guild", r.GuildID).Err(err).Msg("не удалось открыть ветку обсуждения")
	}
	return nil
}

// SendNow доставляет контент одной гильдии в обход проверки времени.
func (s *Service) SendNow(guildID int64) error {
	current := s.content.Current()
	if current == nil {
		return ErrNoContent
	}
	for _, recipient := range s.roster.Snapshot() {
		if recipient.GuildID == guildID {
			return s.send(recipient, current)
		}
	}
	return ErrNotConfigured
}
