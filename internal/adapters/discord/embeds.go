package discord

import (
	"github.com/bwmarrin/discordgo"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/usecase/content"
)

const (
	embedColor       = 0x95a5a6
	descriptionLimit = 4096
	// у Discord жёсткий потолок в 10 embed на сообщение
	maxEmbeds = 10
)

// BuildDailyEmbeds собирает сообщение дня: заглавный embed с описанием и
// миниатюрой, дальше по одному embed на классифицированный раздел
// в порядке таксономии.
func BuildDailyEmbeds(c *domain.Content) []*discordgo.MessageEmbed {
	head := &discordgo.MessageEmbed{
		Title:       c.Title,
		URL:         c.URL,
		Description: truncate(c.Summary, descriptionLimit),
		Color:       embedColor,
	}
	if c.ThumbnailURL != "" {
		head.Image = &discordgo.MessageEmbedImage{URL: c.ThumbnailURL}
	}

	embeds := []*discordgo.MessageEmbed{head}
	for _, rule := range content.DefaultTaxonomy {
		if len(embeds) >= maxEmbeds {
			break
		}
		section, ok := c.Sections[rule.Category]
		if !ok || section.Text == "" {
			continue
		}
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       section.Title,
			Description: truncate(section.Text, descriptionLimit),
			Color:       embedColor,
		})
	}
	return embeds
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
