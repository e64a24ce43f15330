package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
)

type stubCatalog struct {
	refs []domain.ContentRef
	err  error
}

func (s *stubCatalog) ListRefs(context.Context) ([]domain.ContentRef, error) {
	return s.refs, s.err
}

type stubSource struct {
	summary    domain.PageSummary
	summaryErr error
	article    domain.Article
	articleErr error
}

func (s *stubSource) Summary(context.Context, string) (domain.PageSummary, error) {
	return s.summary, s.summaryErr
}

func (s *stubSource) Article(context.Context, string) (domain.Article, error) {
	return s.article, s.articleErr
}

func newTestRefresher(catalog *stubCatalog, source *stubSource) *Refresher {
	r := NewRefresher(catalog, source, time.Hour, zerolog.Nop())
	r.pickFn = func(int) int { return 0 }
	return r
}

func TestRefreshPublishesContent(t *testing.T) {
	catalog := &stubCatalog{refs: []domain.ContentRef{{ID: 1, Name: "Tyrannosaurus", URL: "https://example.org/trex", PageKey: "Tyrannosaurus"}}}
	source := &stubSource{
		summary: domain.PageSummary{Title: "Tyrannosaurus", Extract: "крупный теропод"},
		article: domain.Article{
			ThumbnailURL: "https://upload.example.org/trex.jpg",
			Sections: []domain.SectionNode{
				{Title: "Description", Text: "описание"},
			},
		},
	}
	refresher := newTestRefresher(catalog, source)

	if refresher.Current() != nil {
		t.Fatalf("до первого обновления контента быть не должно")
	}
	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	current := refresher.Current()
	if current == nil {
		t.Fatalf("ожидали опубликованный контент")
	}
	if current.Title != "Tyrannosaurus" || current.URL != "https://example.org/trex" {
		t.Fatalf("неожиданный контент: %+v", current)
	}
	if current.ThumbnailURL != "https://upload.example.org/trex.jpg" {
		t.Fatalf("ожидали миниатюру из статьи, получили %q", current.ThumbnailURL)
	}
	if _, ok := current.Sections["description"]; !ok {
		t.Fatalf("ожидали классифицированный раздел description, получили %v", current.Sections)
	}
}

func TestRefreshPageNotFoundKeepsPrevious(t *testing.T) {
	catalog := &stubCatalog{refs: []domain.ContentRef{{ID: 1, PageKey: "Tyrannosaurus", URL: "https://example.org/trex"}}}
	source := &stubSource{summary: domain.PageSummary{Title: "Tyrannosaurus"}}
	refresher := newTestRefresher(catalog, source)

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	previous := refresher.Current()

	source.summaryErr = domain.ErrPageNotFound
	if err := refresher.Refresh(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку для отсутствующей страницы")
	}
	if refresher.Current() != previous {
		t.Fatalf("предыдущий контент должен остаться тем же значением")
	}
}

func TestRefreshCatalogErrorKeepsPrevious(t *testing.T) {
	catalog := &stubCatalog{refs: []domain.ContentRef{{ID: 1, PageKey: "Stegosaurus"}}}
	source := &stubSource{summary: domain.PageSummary{Title: "Stegosaurus"}}
	refresher := newTestRefresher(catalog, source)

	if err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	previous := refresher.Current()

	catalog.err = errors.New("база недоступна")
	if err := refresher.Refresh(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку чтения каталога")
	}
	if refresher.Current() != previous {
		t.Fatalf("предыдущий контент должен остаться тем же значением")
	}
}

func TestRefreshEmptyCatalog(t *testing.T) {
	refresher := newTestRefresher(&stubCatalog{}, &stubSource{})
	err := refresher.Refresh(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("ожидали ErrEmptyCatalog, получили %v", err)
	}
	if refresher.Current() != nil {
		t.Fatalf("контент не должен публиковаться при пустом каталоге")
	}
}
