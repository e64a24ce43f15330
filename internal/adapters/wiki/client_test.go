package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
)

const articleHTML = `<html><body><div class="mw-parser-output">
<p>Вступление, которое покрывается кратким описанием.</p>
<table class="infobox"><tbody><tr><td>
<img src="//upload.wikimedia.org/tyrannosaurus.jpg">
</td></tr></tbody></table>
<div class="mw-heading mw-heading2"><h2 id="Description">Description<span class="mw-editsection">[edit]</span></h2></div>
<p>Крупный двуногий хищник.</p>
<ul><li>длина до 12 метров</li></ul>
<div class="mw-heading mw-heading3"><h3 id="Skull">Skull</h3></div>
<p>Массивный череп.</p>
<div class="mw-heading mw-heading4"><h4 id="Teeth">Teeth</h4></div>
<p>Зубы разной формы.</p>
<div class="mw-heading mw-heading2"><h2 id="Paleobiology">Paleobiology</h2></div>
<p>Образ жизни.</p>
</div></body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("не удалось разобрать HTML: %v", err)
	}
	return doc
}

func TestParseArticleSections(t *testing.T) {
	article := ParseArticle(parseDoc(t, articleHTML))

	if len(article.Sections) != 2 {
		t.Fatalf("ожидали 2 корневых раздела, получили %d", len(article.Sections))
	}

	description := article.Sections[0]
	if description.Title != "Description" {
		t.Fatalf("ожидали раздел Description без [edit], получили %q", description.Title)
	}
	if !strings.Contains(description.Text, "Крупный двуногий хищник.") || !strings.Contains(description.Text, "длина до 12 метров") {
		t.Fatalf("текст раздела собран не полностью: %q", description.Text)
	}
	if len(description.Children) != 1 || description.Children[0].Title != "Skull" {
		t.Fatalf("ожидали вложенный Skull, получили %+v", description.Children)
	}
	skull := description.Children[0]
	if len(skull.Children) != 1 || skull.Children[0].Title != "Teeth" {
		t.Fatalf("h4 должен вкладываться в h3, получили %+v", skull.Children)
	}

	if article.Sections[1].Title != "Paleobiology" {
		t.Fatalf("второй h2 должен закрыть вложенность, получили %q", article.Sections[1].Title)
	}
	if len(article.Sections[1].Children) != 0 {
		t.Fatalf("Paleobiology не должен наследовать чужих детей: %+v", article.Sections[1].Children)
	}
}

func TestParseArticleSkipsIntro(t *testing.T) {
	article := ParseArticle(parseDoc(t, articleHTML))
	for _, section := range article.Sections {
		if strings.Contains(section.Text, "Вступление") {
			t.Fatalf("вступление не должно попадать в разделы: %q", section.Text)
		}
	}
}

func TestParseArticleThumbnail(t *testing.T) {
	article := ParseArticle(parseDoc(t, articleHTML))
	want := "https://upload.wikimedia.org/tyrannosaurus.jpg"
	if article.ThumbnailURL != want {
		t.Fatalf("ожидали %q, получили %q", want, article.ThumbnailURL)
	}
}

func TestParseArticleBareHeadings(t *testing.T) {
	html := `<html><body><div class="mw-parser-output">
<h2>History</h2><p>Старая разметка.</p>
</div></body></html>`
	article := ParseArticle(parseDoc(t, html))
	if len(article.Sections) != 1 || article.Sections[0].Title != "History" {
		t.Fatalf("голый h2 тоже должен распознаваться, получили %+v", article.Sections)
	}
	if article.ThumbnailURL != "" {
		t.Fatalf("без инфобокса миниатюры быть не должно, получили %q", article.ThumbnailURL)
	}
}

func TestNormalizeImageURL(t *testing.T) {
	if got := NormalizeImageURL("//upload.wikimedia.org/a.jpg"); got != "https://upload.wikimedia.org/a.jpg" {
		t.Fatalf("относительный протокол не нормализован: %q", got)
	}
	if got := NormalizeImageURL("https://example.org/a.jpg"); got != "https://example.org/a.jpg" {
		t.Fatalf("абсолютный URL должен остаться как есть: %q", got)
	}
}

func TestSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rest_v1/page/summary/Tyrannosaurus":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"title":"Tyrannosaurus","extract":"Род тероподов."}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "dino-daily-test", time.Second, zerolog.Nop())

	summary, err := client.Summary(context.Background(), "Tyrannosaurus")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if summary.Title != "Tyrannosaurus" || summary.Extract != "Род тероподов." {
		t.Fatalf("получили не тот ответ: %+v", summary)
	}

	if _, err := client.Summary(context.Background(), "Unknownosaurus"); !errors.Is(err, domain.ErrPageNotFound) {
		t.Fatalf("на 404 ожидали ErrPageNotFound, получили %v", err)
	}
}

func TestArticleNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "dino-daily-test", time.Second, zerolog.Nop())
	if _, err := client.Article(context.Background(), server.URL+"/wiki/Missing"); !errors.Is(err, domain.ErrPageNotFound) {
		t.Fatalf("на 404 ожидали ErrPageNotFound, получили %v", err)
	}
}
