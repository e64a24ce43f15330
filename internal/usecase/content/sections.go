package content

import (
	"strings"

	"dino-daily-bot/internal/domain"
)

// Rule связывает категорию с ключевыми словами заголовков.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultTaxonomy — фиксированный набор интересных категорий.
// Порядок важен: при совпадении нескольких категорий выигрывает первая.
var DefaultTaxonomy = []Rule{
	{Category: "description", Keywords: []string{"description", "distinguishing features", "appearance"}},
	{Category: "discovery", Keywords: []string{"discovery and naming", "discovery", "history of discovery", "fossil history", "history"}},
	{Category: "classification", Keywords: []string{"classification", "taxonomy", "phylogeny"}},
	{Category: "paleobiology", Keywords: []string{"paleobiology", "biology", "life history"}},
	{Category: "size", Keywords: []string{"size", "dimensions"}},
	{Category: "diet", Keywords: []string{"diet", "dietary history", "feeding", "feeding behavior"}},
	{Category: "paleoecology", Keywords: []string{"paleoecology", "palaeocology", "environment", "habitat"}},
	{Category: "locomotion", Keywords: []string{"locomotion", "movement", "posture and gait"}},
	{Category: "growth", Keywords: []string{"growth", "ontogeny", "growth and reproduction"}},
	{Category: "popular_culture", Keywords: []string{"popular culture", "in popular culture", "cultural significance"}},
}

// Classify рекурсивно раскладывает дерево разделов статьи по категориям.
//
// Правила:
//   - заголовок сопоставляется по подстроке без учёта регистра, категорию
//     забирает первое совпадение в порядке таксономии;
//   - уже занятая категория повторно не заполняется;
//   - потомки совпавшего раздела складываются в его Subsections;
//   - потомки несовпавшего раздела всплывают в текущий уровень результата.
//
// Функция чистая: без I/O и побочных эффектов.
func Classify(nodes []domain.SectionNode, taxonomy []Rule) map[string]domain.Section {
	extracted := make(map[string]domain.Section)

	for _, node := range nodes {
		matched := false
		for _, rule := range taxonomy {
			if !titleMatches(node.Title, rule.Keywords) {
				continue
			}
			if _, taken := extracted[rule.Category]; !taken {
				extracted[rule.Category] = domain.Section{Title: node.Title, Text: node.Text}
			}
			matched = true
			break
		}

		if len(node.Children) == 0 {
			continue
		}
		sub := Classify(node.Children, taxonomy)
		if matched && len(sub) > 0 {
			for category, section := range extracted {
				if section.Title == node.Title {
					section.Subsections = sub
					extracted[category] = section
				}
			}
		} else if !matched {
			for category, section := range sub {
				extracted[category] = section
			}
		}
	}

	return extracted
}

func titleMatches(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
