package domain

import "time"

// Clock хранит время ежедневной отправки без секунд.
type Clock struct {
	Hour   int
	Minute int
}

// Valid проверяет диапазоны часа и минуты.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// Recipient описывает гильдию Discord с настроенной рассылкой.
type Recipient struct {
	GuildID   int64
	ChannelID int64
	Time      Clock
	Timezone  string
	AddedAt   time.Time
	EditedAt  time.Time
}

// ContentRef указывает на одну статью каталога динозавров.
type ContentRef struct {
	ID           int64
	Name         string
	URL          string
	PageKey      string
	CataloguedAt time.Time
}

// Section содержит классифицированный раздел статьи.
type Section struct {
	Title       string
	Text        string
	Subsections map[string]Section
}

// Content представляет собой полностью разобранный «динозавр дня».
// Значение публикуется целиком и никогда не изменяется на месте.
type Content struct {
	Title        string
	URL          string
	Summary      string
	ThumbnailURL string
	Sections     map[string]Section
}

// PageSummary содержит ответ источника на запрос краткого описания страницы.
type PageSummary struct {
	Title   string
	Extract string
}

// Article содержит разобранную HTML-страницу статьи.
type Article struct {
	Sections     []SectionNode
	ThumbnailURL string
}

// SectionNode — узел дерева разделов исходной статьи до классификации.
type SectionNode struct {
	Title    string
	Text     string
	Children []SectionNode
}
