package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dino-daily-bot/internal/domain"
)

// ErrInvalidTimezone возвращается, если указан некорректный часовой пояс.
var ErrInvalidTimezone = errors.New("invalid timezone")

// ErrInvalidTime возвращается, если время не в формате HH:MM.
var ErrInvalidTime = errors.New("invalid time")

// RosterRefresher обновляет снимок гильдий сразу после мутации хранилища.
type RosterRefresher interface {
	Refresh(ctx context.Context) error
}

// Service отвечает за регистрацию и удаление гильдий.
type Service struct {
	recipients domain.RecipientRepo
	roster     RosterRefresher
}

// NewService создаёт сервис.
func NewService(recipients domain.RecipientRepo, roster RosterRefresher) *Service {
	return &Service{recipients: recipients, roster: roster}
}

// ParseClock разбирает время в формате HH:MM с необязательным маркером AM/PM.
// Маркер передаётся отдельным аргументом, внутри строки времени он запрещён.
func ParseClock(raw, ampm string) (domain.Clock, error) {
	candidate := strings.TrimSpace(raw)
	lower := strings.ToLower(candidate)
	if strings.Contains(lower, "am") || strings.Contains(lower, "pm") {
		return domain.Clock{}, ErrInvalidTime
	}
	if !strings.Contains(candidate, ":") {
		return domain.Clock{}, ErrInvalidTime
	}
	parts := strings.Split(candidate, ":")
	if len(parts) != 2 {
		return domain.Clock{}, ErrInvalidTime
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return domain.Clock{}, ErrInvalidTime
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.Clock{}, ErrInvalidTime
	}

	switch strings.ToUpper(strings.TrimSpace(ampm)) {
	case "":
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 12 {
			hour += 12
		}
	default:
		return domain.Clock{}, ErrInvalidTime
	}

	clock := domain.Clock{Hour: hour, Minute: minute}
	if !clock.Valid() {
		return domain.Clock{}, ErrInvalidTime
	}
	return clock, nil
}

// Register валидирует ввод, сохраняет гильдию и сразу обновляет снимок.
// Повторная регистрация той же гильдии — тихий no-op на уровне хранилища.
func (s *Service) Register(ctx context.Context, guildID, channelID int64, rawTime, ampm, timezone string) (domain.Recipient, error) {
	clock, err := ParseClock(rawTime, ampm)
	if err != nil {
		return domain.Recipient{}, err
	}
	normalized, err := normalizeTimezone(timezone)
	if err != nil {
		return domain.Recipient{}, err
	}

	recipient := domain.Recipient{
		GuildID:   guildID,
		ChannelID: channelID,
		Time:      clock,
		Timezone:  normalized,
	}
	if err := s.recipients.AddRecipient(ctx, recipient); err != nil {
		return domain.Recipient{}, fmt.Errorf("сохранение гильдии: %w", err)
	}
	if err := s.roster.Refresh(ctx); err != nil {
		return domain.Recipient{}, fmt.Errorf("обновление снимка: %w", err)
	}
	return recipient, nil
}

// Remove удаляет гильдию и сразу обновляет снимок.
func (s *Service) Remove(ctx context.Context, guildID int64) error {
	if err := s.recipients.RemoveRecipient(ctx, guildID); err != nil {
		return fmt.Errorf("удаление гильдии: %w", err)
	}
	if err := s.roster.Refresh(ctx); err != nil {
		return fmt.Errorf("обновление снимка: %w", err)
	}
	return nil
}

func normalizeTimezone(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", ErrInvalidTimezone
	}
	candidate = strings.ReplaceAll(candidate, " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, nil
	}

	lower := strings.ToLower(candidate)
	parts := strings.Split(lower, "/")
	for i, part := range parts {
		segments := strings.Split(part, "_")
		for j, segment := range segments {
			pieces := strings.Split(segment, "-")
			for k, piece := range pieces {
				if piece == "" {
					continue
				}
				pieces[k] = strings.ToUpper(piece[:1]) + piece[1:]
			}
			segments[j] = strings.Join(pieces, "-")
		}
		parts[i] = strings.Join(segments, "_")
	}
	normalized := strings.Join(parts, "/")
	if _, err := time.LoadLocation(normalized); err == nil {
		return normalized, nil
	}
	return "", ErrInvalidTimezone
}
