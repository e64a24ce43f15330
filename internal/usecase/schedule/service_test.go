package schedule

import (
	"context"
	"errors"
	"testing"

	"dino-daily-bot/internal/domain"
)

type stubRepo struct {
	added   []domain.Recipient
	removed []int64
	addErr  error
}

func (s *stubRepo) ListRecipients(context.Context) ([]domain.Recipient, error) { return nil, nil }

func (s *stubRepo) AddRecipient(_ context.Context, r domain.Recipient) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, r)
	return nil
}

func (s *stubRepo) RemoveRecipient(_ context.Context, guildID int64) error {
	s.removed = append(s.removed, guildID)
	return nil
}

type stubRoster struct {
	refreshed int
}

func (s *stubRoster) Refresh(context.Context) error {
	s.refreshed++
	return nil
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ampm string
		want domain.Clock
		err  bool
	}{
		{name: "сутки 24 часа", raw: "13:00", want: domain.Clock{Hour: 13}},
		{name: "начальные нули", raw: "09:05", want: domain.Clock{Hour: 9, Minute: 5}},
		{name: "PM сдвигает час", raw: "1:00", ampm: "PM", want: domain.Clock{Hour: 13}},
		{name: "12 PM остаётся полднем", raw: "12:30", ampm: "PM", want: domain.Clock{Hour: 12, Minute: 30}},
		{name: "12 AM становится полночью", raw: "12:30", ampm: "AM", want: domain.Clock{Minute: 30}},
		{name: "маркер в нижнем регистре", raw: "7:15", ampm: "pm", want: domain.Clock{Hour: 19, Minute: 15}},
		{name: "без двоеточия", raw: "1300", err: true},
		{name: "час вне диапазона", raw: "25:00", err: true},
		{name: "минута вне диапазона", raw: "10:60", err: true},
		{name: "маркер внутри строки", raw: "9:00 PM", err: true},
		{name: "не числа", raw: "aa:bb", err: true},
		{name: "лишние сегменты", raw: "9:00:00", err: true},
		{name: "неизвестный маркер", raw: "9:00", ampm: "XM", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseClock(tc.raw, tc.ampm)
			if tc.err {
				if !errors.Is(err, ErrInvalidTime) {
					t.Fatalf("ожидали ErrInvalidTime, получили %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ожидали %+v, получили %+v", tc.want, got)
			}
		})
	}
}

func TestNormalizeTimezone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		err  bool
	}{
		{raw: "America/Chicago", want: "America/Chicago"},
		{raw: "america/chicago", want: "America/Chicago"},
		{raw: "AMERICA/NEW_YORK", want: "America/New_York"},
		{raw: "America/New York", want: "America/New_York"},
		{raw: "europe/moscow", want: "Europe/Moscow"},
		{raw: "UTC", want: "UTC"},
		{raw: "", err: true},
		{raw: "Mars/Olympus_Mons", err: true},
	}
	for _, tc := range cases {
		got, err := normalizeTimezone(tc.raw)
		if tc.err {
			if !errors.Is(err, ErrInvalidTimezone) {
				t.Fatalf("%q: ожидали ErrInvalidTimezone, получили %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: не ожидали ошибку: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("%q: ожидали %q, получили %q", tc.raw, tc.want, got)
		}
	}
}

func TestRegisterStoresAndRefreshes(t *testing.T) {
	repo := &stubRepo{}
	roster := &stubRoster{}
	service := NewService(repo, roster)

	got, err := service.Register(context.Background(), 1, 100, "9:30", "", "america/chicago")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	want := domain.Recipient{GuildID: 1, ChannelID: 100, Time: domain.Clock{Hour: 9, Minute: 30}, Timezone: "America/Chicago"}
	if got != want {
		t.Fatalf("ожидали %+v, получили %+v", want, got)
	}
	if len(repo.added) != 1 || repo.added[0] != want {
		t.Fatalf("в хранилище попало не то: %+v", repo.added)
	}
	if roster.refreshed != 1 {
		t.Fatalf("снимок должен обновиться ровно один раз, обновился %d", roster.refreshed)
	}
}

func TestRegisterInvalidInputSkipsStorage(t *testing.T) {
	repo := &stubRepo{}
	roster := &stubRoster{}
	service := NewService(repo, roster)

	if _, err := service.Register(context.Background(), 1, 100, "25:00", "", "UTC"); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("ожидали ErrInvalidTime, получили %v", err)
	}
	if _, err := service.Register(context.Background(), 1, 100, "9:00", "", "Nowhere"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("ожидали ErrInvalidTimezone, получили %v", err)
	}
	if len(repo.added) != 0 || roster.refreshed != 0 {
		t.Fatalf("при невалидном вводе не должно быть записей и обновлений")
	}
}

func TestRemoveRefreshesRoster(t *testing.T) {
	repo := &stubRepo{}
	roster := &stubRoster{}
	service := NewService(repo, roster)

	if err := service.Remove(context.Background(), 7); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(repo.removed) != 1 || repo.removed[0] != 7 {
		t.Fatalf("удаление не дошло до хранилища: %v", repo.removed)
	}
	if roster.refreshed != 1 {
		t.Fatalf("снимок должен обновиться после удаления")
	}
}
