package domain

import (
	"fmt"
	"strings"
)

// Niche categories as presented to the user.
const (
	CategoryQuickStart = "🔥 Быстрый старт"
	CategoryBalanced   = "🚀 Сбалансированный"
	CategoryLongTerm   = "🌱 Долгосрочный"
	CategoryRisky      = "💎 Рискованный"
	CategoryHidden     = "🎯 Скрытая ниша"
)

// Niche is one generated business niche suggestion.
type Niche struct {
	ID          int      `json:"id"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Why         string   `json:"why"`
	Format      string   `json:"format"`
	Investment  string   `json:"investment"`
	Payback     string   `json:"payback"`
	Steps       []string `json:"steps"`
}

// FormatCard renders the niche card shown during selection.
func (n Niche) FormatCard(index, total int) string {
	var steps strings.Builder
	for i, step := range n.Steps {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&steps, "%d. %s\n", i+1, step)
	}

	return fmt.Sprintf(`🎯 *НИША %d из %d*

%s

*%s*

📝 *Суть:*
%s

✅ *Почему вам подходит:*
%s

📊 *Детали:*
• Формат: %s
• Инвестиции: %s
• Окупаемость: %s

🚀 *Первые шаги:*
%s`, index, total, n.Category, n.Name, n.Description, n.Why, n.Format, n.Investment, n.Payback,
		strings.TrimRight(steps.String(), "\n"))
}
