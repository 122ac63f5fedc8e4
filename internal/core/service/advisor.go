package service

import (
	"context"
	"embed"
	"fmt"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// SystemPrompt frames every completion request.
const SystemPrompt = "Ты — опытный бизнес-консультант и психолог. " +
	"Помогаешь людям находить бизнес-ниши, которые подходят именно им."

// Generation settings per artifact.
var (
	analysisOpts = domain.GenerationOptions{MaxTokens: 3000, Temperature: 0.5}
	nichesOpts   = domain.GenerationOptions{MaxTokens: 4000, Temperature: 0.8}
	planOpts     = domain.GenerationOptions{MaxTokens: 4000, Temperature: 0.6}
)

const analysisExcerptLimit = 2000

// Advisor produces the three AI artifacts of the flow: the psychological
// profile analysis, the niche suggestions and the detailed business plan.
// With no generator configured it degrades to static fallback content, so
// its methods always return something presentable.
type Advisor struct {
	generator port.TextGenerator
	tracker   Tracker
}

func NewAdvisor(generator port.TextGenerator, tracker Tracker) *Advisor {
	return &Advisor{generator: generator, tracker: tracker}
}

// Available reports whether a text generator is configured.
func (a *Advisor) Available() bool {
	return a.generator != nil
}

func (a *Advisor) AnalyzeProfile(ctx context.Context, data map[string]any) string {
	analysis, err := a.generate(ctx, "analysis.txt", data, analysisOpts)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to static profile analysis")
		return fallbackAnalysis(data)
	}

	log.Info().Int("length", len(analysis)).Msg("profile analysis generated")
	return analysis
}

func (a *Advisor) SuggestNiches(ctx context.Context, data map[string]any, analysis string,
	count int) []domain.Niche {
	merged := make(map[string]any, len(data)+2)
	for k, v := range data {
		merged[k] = v
	}
	merged["analysis"] = truncateRunes(analysis, analysisExcerptLimit)
	merged["count"] = count

	text, err := a.generate(ctx, "niches.txt", merged, nichesOpts)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to static niches")
		return fallbackNiches(data)
	}

	niches := parseNiches(text)
	if len(niches) == 0 {
		log.Warn().Msg("no niches parsed from completion, using fallback")
		return fallbackNiches(data)
	}

	log.Info().Int("niches", len(niches)).Msg("niches generated")
	return niches
}

func (a *Advisor) BuildPlan(ctx context.Context, data map[string]any, niche domain.Niche) string {
	merged := make(map[string]any, len(data)+1)
	for k, v := range data {
		merged[k] = v
	}
	merged["niche"] = map[string]any{
		"name":        niche.Name,
		"description": niche.Description,
	}

	plan, err := a.generate(ctx, "plan.txt", merged, planOpts)
	if err != nil {
		log.Warn().Err(err).Str("niche", niche.Name).Msg("falling back to static plan")
		return fallbackPlan(niche)
	}

	log.Info().Str("niche", niche.Name).Msg("detailed plan generated")
	return plan
}

func (a *Advisor) generate(ctx context.Context, template string, data map[string]any,
	opts domain.GenerationOptions) (string, error) {
	if a.generator == nil {
		return "", domain.ErrGeneratorUnavailable
	}

	raw, err := promptFS.ReadFile("prompts/" + template)
	if err != nil {
		return "", fmt.Errorf("failed to load prompt template %s: %w", template, err)
	}

	prompt := fillTemplate(string(raw), data)

	resp, err := a.generator.GenerateFromPrompt(ctx, []domain.Prompt{
		{Author: domain.User, Prompt: prompt},
	}, opts)
	if err != nil {
		a.tracker.RecordFailure()
		return "", fmt.Errorf("completion failed: %w", err)
	}

	a.tracker.RecordUsage(resp.Metadata)

	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("empty completion for template %s", template)
	}

	return resp.Response, nil
}

// fillTemplate replaces {key} and {key.sub} placeholders. Unknown
// placeholders are left in place.
func fillTemplate(template string, data map[string]any) string {
	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			for sub, subValue := range v {
				template = strings.ReplaceAll(template,
					"{"+key+"."+sub+"}", fmt.Sprint(subValue))
			}
		default:
			template = strings.ReplaceAll(template, "{"+key+"}", fmt.Sprint(v))
		}
	}
	return template
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// parseNiches extracts the structured niche blocks out of a completion.
// The prompt instructs the model to emit "НИША n:" blocks with fixed
// field markers; lines that don't match any marker are ignored.
func parseNiches(text string) []domain.Niche {
	var niches []domain.Niche
	var current *domain.Niche
	inSteps := false

	flush := func() {
		if current != nil && current.Name != "" {
			niches = append(niches, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "НИША"):
			flush()
			current = &domain.Niche{ID: len(niches) + 1}
			inSteps = false
			if _, category, found := strings.Cut(line, ":"); found {
				current.Category = strings.TrimSpace(category)
			}
		case current == nil:
			continue
		case strings.HasPrefix(line, "НАЗВАНИЕ:"):
			current.Name = strings.TrimSpace(strings.TrimPrefix(line, "НАЗВАНИЕ:"))
		case strings.HasPrefix(line, "СУТЬ:"):
			current.Description = strings.TrimSpace(strings.TrimPrefix(line, "СУТЬ:"))
		case strings.HasPrefix(line, "ПОЧЕМУ ПОДХОДИТ:"):
			current.Why = strings.TrimSpace(strings.TrimPrefix(line, "ПОЧЕМУ ПОДХОДИТ:"))
		case strings.HasPrefix(line, "ФОРМАТ:"):
			current.Format = strings.TrimSpace(strings.TrimPrefix(line, "ФОРМАТ:"))
		case strings.HasPrefix(line, "ИНВЕСТИЦИИ:"):
			current.Investment = strings.TrimSpace(strings.TrimPrefix(line, "ИНВЕСТИЦИИ:"))
		case strings.HasPrefix(line, "СРОК ОКУПАЕМОСТИ:"):
			current.Payback = strings.TrimSpace(strings.TrimPrefix(line, "СРОК ОКУПАЕМОСТИ:"))
		case strings.HasPrefix(line, "ПЕРВЫЕ 3 ШАГА:"):
			inSteps = true
		case inSteps && len(line) > 2 && line[0] >= '1' && line[0] <= '9' && line[1] == '.':
			current.Steps = append(current.Steps, strings.TrimSpace(line[2:]))
		}
	}
	flush()

	for i := range niches {
		if len(niches[i].Steps) < 3 {
			niches[i].Steps = []string{
				"Провести анализ рынка и конкурентов",
				"Создать MVP продукта или услуги",
				"Найти первых 3 клиентов для тестирования",
			}
		}
	}

	return niches
}

func fallbackAnalysis(data map[string]any) string {
	demographics, _ := data["demographics"].(map[string]any)
	return fmt.Sprintf(`# ПСИХОЛОГИЧЕСКИЙ АНАЛИЗ (базовый режим)

## 1. КЛЮЧЕВЫЕ ХАРАКТЕРИСТИКИ:
- **Возрастная группа:** %v
- **Образование:** %v
- **Локация:** %v

## 2. СКРЫТЫЙ ПОТЕНЦИАЛ:
- Возможность монетизации образования и опыта
- Географические преимущества вашего региона
- Сочетание практических навыков и личных интересов

## 3. РЕКОМЕНДАЦИИ:
1. Начинать с небольших проектов для быстрого получения результата
2. Использовать сильные стороны для создания конкурентного преимущества
3. Постепенно расширять масштаб по мере роста уверенности`,
		field(demographics, "age_group"), field(demographics, "education"), field(demographics, "location"))
}

func fallbackNiches(data map[string]any) []domain.Niche {
	demographics, _ := data["demographics"].(map[string]any)
	location := fmt.Sprint(field(demographics, "location"))

	return []domain.Niche{
		{
			ID:          1,
			Category:    domain.CategoryQuickStart,
			Name:        "Консультационные услуги",
			Description: "Профессиональные консультации в вашей сфере знаний для бизнеса (" + location + ")",
			Why:         "Использует ваши профессиональные навыки и образование",
			Format:      "Гибрид",
			Investment:  "10,000-50,000₽",
			Payback:     "1-2 месяца",
			Steps: []string{
				"Определить 3 ключевые темы для консультаций",
				"Создать профессиональное портфолио",
				"Найти первых клиентов через LinkedIn",
			},
		},
		{
			ID:          2,
			Category:    domain.CategoryBalanced,
			Name:        "Онлайн-обучение",
			Description: "Создание и продажа онлайн-курсов по вашей экспертизе",
			Why:         "Сочетает образование и желание делиться знаниями",
			Format:      "Онлайн",
			Investment:  "50,000-100,000₽",
			Payback:     "3-4 месяца",
			Steps: []string{
				"Разработать программу мини-курса",
				"Создать пробные уроки",
				"Запустить предзаказ через соцсети",
			},
		},
	}
}

func fallbackPlan(niche domain.Niche) string {
	return fmt.Sprintf(`# 📋 ДЕТАЛЬНЫЙ БИЗНЕС-ПЛАН (базовый режим)

## 🎯 НИША: %s

### 1. ПЕРВЫЕ ШАГИ (неделя 1):
- Изучить конкурентов в вашей нише
- Определить уникальное предложение
- Создать базовые материалы для продвижения

### 2. ЗАПУСК (месяц 1-3):
- Найти первых 3-5 клиентов
- Протестировать предложение
- Собрать обратную связь и улучшить

### 3. МАСШТАБИРОВАНИЕ (месяц 4-6):
- Оптимизировать процессы
- Расширить предложение
- Увеличить клиентскую базу

💡 **Совет:** Начинайте с малого, быстро тестируйте гипотезы, собирайте обратную связь.`, niche.Name)
}

func field(section map[string]any, key string) any {
	if section == nil {
		return "не указано"
	}
	if v, ok := section[key]; ok {
		return v
	}
	return "не указано"
}
