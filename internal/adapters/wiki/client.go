package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/metrics"
)

// Client ходит в Википедию за кратким описанием и HTML статьи.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	log       zerolog.Logger
}

// NewClient создаёт клиент с ограниченным таймаутом.
func NewClient(baseURL, userAgent string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		log:       log,
	}
}

type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Summary запрашивает краткое описание страницы через REST API.
func (c *Client) Summary(ctx context.Context, pageKey string) (domain.PageSummary, error) {
	endpoint := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", c.baseURL, url.PathEscape(pageKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.PageSummary{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("wikipedia", "page_summary", pageKey, start, err)
	if err != nil {
		return domain.PageSummary{}, fmt.Errorf("запрос summary: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.PageSummary{}, domain.ErrPageNotFound
	case resp.StatusCode != http.StatusOK:
		return domain.PageSummary{}, fmt.Errorf("summary %q: статус %d", pageKey, resp.StatusCode)
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.PageSummary{}, fmt.Errorf("декодирование summary: %w", err)
	}
	if body.Title == "" {
		return domain.PageSummary{}, domain.ErrPageNotFound
	}
	return domain.PageSummary{Title: body.Title, Extract: body.Extract}, nil
}

// Article скачивает страницу статьи и разбирает дерево разделов и миниатюру.
func (c *Client) Article(ctx context.Context, articleURL string) (domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return domain.Article{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("wikipedia", "article_html", articleURL, start, err)
	if err != nil {
		return domain.Article{}, fmt.Errorf("запрос статьи: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Article{}, domain.ErrPageNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Article{}, fmt.Errorf("статья %q: статус %d", articleURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.Article{}, fmt.Errorf("разбор HTML: %w", err)
	}
	return ParseArticle(doc), nil
}

// ParseArticle извлекает дерево разделов и миниатюру из готового документа.
func ParseArticle(doc *goquery.Document) domain.Article {
	return domain.Article{
		Sections:     parseSections(doc),
		ThumbnailURL: parseThumbnail(doc),
	}
}

type sectionBuilder struct {
	title    string
	text     strings.Builder
	children []*sectionBuilder
}

func (b *sectionBuilder) toNode() domain.SectionNode {
	node := domain.SectionNode{
		Title: b.title,
		Text:  strings.TrimSpace(b.text.String()),
	}
	for _, child := range b.children {
		node.Children = append(node.Children, child.toNode())
	}
	return node
}

// parseSections обходит тело статьи и восстанавливает иерархию по уровням
// заголовков: h2 — корневой раздел, h3/h4 — вложенные.
func parseSections(doc *goquery.Document) []domain.SectionNode {
	root := &sectionBuilder{}
	stack := []*sectionBuilder{root}
	levels := []int{1}

	doc.Find("div.mw-parser-output").First().Children().Each(func(_ int, sel *goquery.Selection) {
		if level, title, ok := headingOf(sel); ok {
			for len(stack) > 1 && levels[len(levels)-1] >= level {
				stack = stack[:len(stack)-1]
				levels = levels[:len(levels)-1]
			}
			parent := stack[len(stack)-1]
			section := &sectionBuilder{title: title}
			parent.children = append(parent.children, section)
			stack = append(stack, section)
			levels = append(levels, level)
			return
		}

		current := stack[len(stack)-1]
		if current == root {
			// Вступление до первого заголовка покрывается summary.
			return
		}
		if text := blockText(sel); text != "" {
			if current.text.Len() > 0 {
				current.text.WriteString("\n")
			}
			current.text.WriteString(text)
		}
	})

	node := root.toNode()
	return node.Children
}

// headingOf распознаёт заголовок раздела как в новой разметке MediaWiki
// (div.mw-heading), так и в старой (голые h2/h3/h4).
func headingOf(sel *goquery.Selection) (level int, title string, ok bool) {
	heading := sel
	if sel.HasClass("mw-heading") {
		heading = sel.Find("h2, h3, h4").First()
		if heading.Length() == 0 {
			return 0, "", false
		}
	}
	switch goquery.NodeName(heading) {
	case "h2":
		level = 2
	case "h3":
		level = 3
	case "h4":
		level = 4
	default:
		return 0, "", false
	}
	cleaned := heading.Clone()
	cleaned.Find(".mw-editsection").Remove()
	title = strings.TrimSpace(cleaned.Text())
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

func blockText(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "p", "ul", "ol", "blockquote", "dl":
		return strings.TrimSpace(sel.Text())
	}
	return ""
}

// parseThumbnail берёт первую картинку инфобокса.
// Протокольно-относительные ссылки приводятся к https.
func parseThumbnail(doc *goquery.Document) string {
	img := doc.Find("table.infobox img").First()
	src, ok := img.Attr("src")
	if !ok {
		return ""
	}
	return NormalizeImageURL(src)
}

// NormalizeImageURL превращает //upload.wikimedia.org/... в абсолютный https URL.
func NormalizeImageURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}
