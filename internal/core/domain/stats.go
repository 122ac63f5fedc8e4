package domain

import (
	"fmt"
	"time"
)

// Usage accumulates token consumption and the estimated cost of model calls.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Requests         int     `json:"requests"`
	Succeeded        int     `json:"succeeded"`
	Failed           int     `json:"failed"`
	CostUSD          float64 `json:"cost_usd"`
}

// gpt-3.5-turbo pricing per 1k tokens.
const (
	promptCostPer1k     = 0.0015
	completionCostPer1k = 0.002
)

// Add records a successful call and updates the cost estimate.
func (u *Usage) Add(meta ResponseMetadata) {
	u.PromptTokens += meta.PromptTokens
	u.CompletionTokens += meta.CompletionTokens
	u.TotalTokens += meta.TotalTokens
	u.Requests++
	u.Succeeded++
	u.CostUSD = float64(u.PromptTokens)*promptCostPer1k/1000 +
		float64(u.CompletionTokens)*completionCostPer1k/1000
}

func (u *Usage) AddFailure() {
	u.Requests++
	u.Failed++
}

func (u Usage) String() string {
	successRate := 0.0
	if u.Requests > 0 {
		successRate = float64(u.Succeeded) / float64(u.Requests) * 100
	}
	return fmt.Sprintf("📊 *Статистика OpenAI:*\n"+
		"• Запросов: %d\n"+
		"• Успешных: %d (%.1f%%)\n"+
		"• Токенов: %d\n"+
		"• Стоимость: $%.4f",
		u.Requests, u.Succeeded, successRate, u.TotalTokens, u.CostUSD)
}

// Stats are the bot-wide counters reported by /stats.
type Stats struct {
	Users             int       `json:"users"`
	ActiveSessions    int       `json:"active_sessions"`
	CompletedProfiles int       `json:"completed_profiles"`
	GeneratedNiches   int       `json:"generated_niches"`
	GeneratedPlans    int       `json:"generated_plans"`
	Messages          int       `json:"messages"`
	StartedAt         time.Time `json:"started_at"`
}

func (s Stats) Uptime() string {
	delta := time.Since(s.StartedAt)
	return fmt.Sprintf("%dч %dм", int(delta.Hours()), int(delta.Minutes())%60)
}

func (s Stats) String() string {
	return fmt.Sprintf("🤖 *Статистика бота:*\n"+
		"• Пользователей: %d\n"+
		"• Активных: %d\n"+
		"• Завершено: %d\n"+
		"• Ниш сгенерировано: %d\n"+
		"• Планов: %d\n"+
		"• Сообщений: %d\n"+
		"• Работает: %s",
		s.Users, s.ActiveSessions, s.CompletedProfiles, s.GeneratedNiches,
		s.GeneratedPlans, s.Messages, s.Uptime())
}
