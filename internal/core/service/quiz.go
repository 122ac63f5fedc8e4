package service

import (
	"fmt"
	"navbot/internal/core/domain"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Quiz holds the questionnaire catalog and the answer validation rules.
// The questionnaire ships five parts: demographics, personality, skills,
// values and practical limitations.
type Quiz struct {
	questions []domain.Question
	praise    []string
}

func NewQuiz() *Quiz {
	return &Quiz{
		questions: catalog(),
		praise: []string{
			"Отлично! Вижу, вы подходите к делу серьезно 👏",
			"Прекрасный ответ! Это многое проясняет 💡",
			"Замечательно! Вы раскрываетесь с каждой минутой 🌟",
			"Восхитительно! Такие ответы делают анализ максимально точным 🎯",
			"Браво! Вы мыслите нестандартно, это ценно 🚀",
			"Потрясающе! Чувствуется глубина мышления 🧠",
			"Великолепно! Вы делаете эту анкету лучше с каждым ответом 💎",
			"Изумительно! Такой анализ будет максимально персонализированным ✨",
		},
	}
}

func (q *Quiz) Total() int {
	return len(q.questions)
}

func (q *Quiz) Question(index int) (domain.Question, error) {
	if index < 0 || index >= len(q.questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q.questions[index], nil
}

// PartFor returns the questionnaire state the question at index belongs to.
func (q *Quiz) PartFor(index int) domain.State {
	question, err := q.Question(index)
	if err != nil {
		return domain.StateStart
	}
	return question.Part
}

// Praise returns a rotating praise phrase after every third answer, or "".
func (q *Quiz) Praise(answered int) string {
	if answered == 0 || answered%3 != 0 {
		return ""
	}
	return q.praise[(answered/3-1)%len(q.praise)]
}

// Validate checks a raw answer value against the question rules and returns
// the value to store. Multi-select questions are validated per toggled
// option; the selection count is checked by ValidateSelection.
func (q *Quiz) Validate(question domain.Question, value string) (any, error) {
	switch question.Type {
	case domain.QuestionChoice, domain.QuestionMultiSelect:
		for _, opt := range question.Options {
			if opt.Value == value {
				return value, nil
			}
		}
		return nil, domain.Invalid("вариант не найден, выберите ответ кнопкой")

	case domain.QuestionScale, domain.QuestionRating:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, domain.Invalid("нужно число от %d до %d", question.Min, question.Max)
		}
		if n < question.Min || n > question.Max {
			return nil, domain.Invalid("значение должно быть от %d до %d", question.Min, question.Max)
		}
		return n, nil

	case domain.QuestionText:
		text := strings.TrimSpace(value)
		length := utf8.RuneCountInString(text)
		if question.MinLen > 0 && length < question.MinLen {
			return nil, domain.Invalid("слишком коротко, напишите хотя бы %d символов", question.MinLen)
		}
		if question.MaxLen > 0 && length > question.MaxLen {
			return nil, domain.Invalid("слишком длинно, уложитесь в %d символов", question.MaxLen)
		}
		return text, nil
	}

	return nil, domain.Invalid("неизвестный тип вопроса")
}

// ValidateSelection checks the selection-count limits of a multi-select
// question when the user finishes it.
func (q *Quiz) ValidateSelection(question domain.Question, selected []string) error {
	if question.MinChoices > 0 && len(selected) < question.MinChoices {
		return domain.Invalid("выберите хотя бы %d вариант(а)", question.MinChoices)
	}
	if question.MaxChoices > 0 && len(selected) > question.MaxChoices {
		return domain.Invalid("не больше %d вариантов", question.MaxChoices)
	}
	return nil
}

// Render builds the question text with the progress header and the inline
// keyboard for the question type.
func (q *Quiz) Render(question domain.Question, session *domain.Session) (string, domain.Keyboard) {
	header := fmt.Sprintf("🟢 *Вопрос %d/%d*\n%s\n\n",
		session.QuestionIndex+1, q.Total(), session.ProgressBar(q.Total()))

	text := header + question.Text

	var keyboard domain.Keyboard

	switch question.Type {
	case domain.QuestionChoice:
		for _, opt := range question.Options {
			keyboard = keyboard.Row(domain.Button{Label: opt.Label, Data: "answer:" + opt.Value})
		}

	case domain.QuestionMultiSelect:
		selected := make(map[string]bool, len(session.Pending))
		for _, v := range session.Pending {
			selected[v] = true
		}
		for _, opt := range question.Options {
			label := opt.Label
			if selected[opt.Value] {
				label = "✅ " + label
			}
			keyboard = keyboard.Row(domain.Button{Label: label, Data: "multi:" + opt.Value})
		}
		keyboard = keyboard.Row(domain.Button{Label: "➡️ Готово", Data: "multi:done"})
		text += fmt.Sprintf("\n\n📊 Выбрано: %d (мин: %d, макс: %d)",
			len(session.Pending), question.MinChoices, question.MaxChoices)

	case domain.QuestionScale:
		var row []domain.Button
		for n := question.Min; n <= question.Max; n++ {
			row = append(row, domain.Button{Label: strconv.Itoa(n), Data: "answer:" + strconv.Itoa(n)})
			if len(row) == 5 {
				keyboard = keyboard.Row(row...)
				row = nil
			}
		}
		if len(row) > 0 {
			keyboard = keyboard.Row(row...)
		}

	case domain.QuestionRating:
		var row []domain.Button
		for n := question.Min; n <= question.Max; n++ {
			row = append(row, domain.Button{
				Label: strings.Repeat("⭐", n),
				Data:  "answer:" + strconv.Itoa(n),
			})
		}
		keyboard = keyboard.Row(row...)

	case domain.QuestionText:
		text += "\n\n✍️ Напишите ответ сообщением."
	}

	if session.QuestionIndex > 0 {
		keyboard = keyboard.Row(domain.Button{Label: "⬅️ Назад", Data: "quiz:back"})
	}

	return text, keyboard
}

// PromptData flattens the session answers into the five profile sections
// consumed by the prompt templates.
func (q *Quiz) PromptData(s *domain.Session) map[string]any {
	get := func(field string) any {
		v, ok := s.Answers[field]
		if !ok {
			return "не указано"
		}
		if list, ok := v.([]string); ok {
			return strings.Join(list, ", ")
		}
		// answers round-tripped through JSON come back as []any
		if list, ok := v.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				parts = append(parts, fmt.Sprint(item))
			}
			return strings.Join(parts, ", ")
		}
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			return int(f)
		}
		return v
	}

	return map[string]any{
		"demographics": map[string]any{
			"age_group": get("age_group"),
			"education": get("education"),
			"location":  get("location"),
		},
		"personality": map[string]any{
			"motivations":    get("motivations"),
			"decision_style": get("decision_style"),
			"risk_tolerance": get("risk_tolerance"),
			"energy_peak":    get("energy_peak"),
			"fears":          get("fears"),
		},
		"skills": map[string]any{
			"analytics":     get("skill_analytics"),
			"communication": get("skill_communication"),
			"superpower":    get("superpower"),
			"work_style":    get("work_style"),
		},
		"values": map[string]any{
			"existential_answer": get("existential_answer"),
			"flow_experience":    get("flow_experience"),
			"ideal_client":       get("ideal_client"),
		},
		"limitations": map[string]any{
			"budget":          get("budget"),
			"time_per_week":   get("time_per_week"),
			"business_format": get("business_format"),
		},
	}
}

func catalog() []domain.Question {
	return []domain.Question{
		// Part 1: demographics
		{
			ID: "q1", Part: domain.StateDemographics, Field: "age_group",
			Text: "Сколько вам лет?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "18–24", Value: "18-24"},
				{Label: "25–34", Value: "25-34"},
				{Label: "35–44", Value: "35-44"},
				{Label: "45–54", Value: "45-54"},
				{Label: "55+", Value: "55+"},
			},
		},
		{
			ID: "q2", Part: domain.StateDemographics, Field: "education",
			Text: "Какое у вас образование?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "Среднее", Value: "среднее"},
				{Label: "Среднее специальное", Value: "среднее специальное"},
				{Label: "Высшее", Value: "высшее"},
				{Label: "Несколько высших / учёная степень", Value: "несколько высших"},
				{Label: "Самообразование", Value: "самообразование"},
			},
		},
		{
			ID: "q3", Part: domain.StateDemographics, Field: "location",
			Text: "Где вы живёте?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "Мегаполис", Value: "мегаполис"},
				{Label: "Крупный город", Value: "крупный город"},
				{Label: "Небольшой город", Value: "небольшой город"},
				{Label: "Село / посёлок", Value: "село"},
			},
		},
		// Part 2: personality and motivation
		{
			ID: "q4", Part: domain.StatePersonality, Field: "motivations",
			Text: "Что вас мотивирует больше всего? Выберите до трёх вариантов.",
			Type: domain.QuestionMultiSelect, MinChoices: 1, MaxChoices: 3,
			Options: []domain.Option{
				{Label: "💰 Финансовая свобода", Value: "финансовая свобода"},
				{Label: "🎨 Самореализация", Value: "самореализация"},
				{Label: "🕊 Независимость", Value: "независимость"},
				{Label: "🤝 Помощь людям", Value: "помощь людям"},
				{Label: "🏆 Признание", Value: "признание"},
				{Label: "⚡ Новые вызовы", Value: "новые вызовы"},
			},
		},
		{
			ID: "q5", Part: domain.StatePersonality, Field: "decision_style",
			Text: "Как вы обычно принимаете важные решения?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "Быстро и интуитивно", Value: "интуитивно"},
				{Label: "Взвешенно, после анализа", Value: "после анализа"},
				{Label: "Советуюсь с близкими", Value: "советуюсь"},
				{Label: "Долго сомневаюсь", Value: "долго сомневаюсь"},
			},
		},
		{
			ID: "q6", Part: domain.StatePersonality, Field: "risk_tolerance",
			Text: "Оцените вашу готовность к риску от 1 (избегаю) до 10 (готов на всё).",
			Type: domain.QuestionScale, Min: 1, Max: 10,
		},
		{
			ID: "q7", Part: domain.StatePersonality, Field: "energy_peak",
			Text: "Когда у вас пик энергии и продуктивности?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "🌅 Утро", Value: "утро"},
				{Label: "☀️ День", Value: "день"},
				{Label: "🌙 Вечер", Value: "вечер"},
			},
		},
		{
			ID: "q8", Part: domain.StatePersonality, Field: "fears",
			Text: "Что пугает вас в предпринимательстве? Выберите до трёх вариантов.",
			Type: domain.QuestionMultiSelect, MinChoices: 1, MaxChoices: 3,
			Options: []domain.Option{
				{Label: "Потерять деньги", Value: "потерять деньги"},
				{Label: "Публичные неудачи", Value: "публичные неудачи"},
				{Label: "Нестабильный доход", Value: "нестабильный доход"},
				{Label: "Не хватит компетенций", Value: "нехватка компетенций"},
				{Label: "Выгорание", Value: "выгорание"},
				{Label: "Ничего не боюсь", Value: "ничего"},
			},
		},
		// Part 3: skills
		{
			ID: "q9", Part: domain.StateSkills, Field: "skill_analytics",
			Text: "Оцените свои аналитические способности.",
			Type: domain.QuestionRating, Min: 1, Max: 5,
		},
		{
			ID: "q10", Part: domain.StateSkills, Field: "skill_communication",
			Text: "Оцените свои навыки общения и переговоров.",
			Type: domain.QuestionRating, Min: 1, Max: 5,
		},
		{
			ID: "q11", Part: domain.StateSkills, Field: "superpower",
			Text: "Какая ваша суперспособность — что даётся вам заметно легче, чем большинству людей?",
			Type: domain.QuestionText, MinLen: 10, MaxLen: 500,
		},
		{
			ID: "q12", Part: domain.StateSkills, Field: "work_style",
			Text: "Какой режим работы вам ближе?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "📋 Строгая система и план", Value: "система и план"},
				{Label: "🎭 Гибкость и творческий хаос", Value: "творческий хаос"},
				{Label: "⚖️ Смешанный режим", Value: "смешанный"},
			},
		},
		// Part 4: values and interests
		{
			ID: "q13", Part: domain.StateValues, Field: "existential_answer",
			Text: "Представьте, что деньги больше не нужны. Чем бы вы занимались каждый день?",
			Type: domain.QuestionText, MinLen: 20, MaxLen: 1000,
		},
		{
			ID: "q14", Part: domain.StateValues, Field: "flow_experience",
			Text: "Вспомните занятие, за которым время летит незаметно. Что это за занятие и что вы при этом чувствуете?",
			Type: domain.QuestionText, MinLen: 20, MaxLen: 1000,
		},
		{
			ID: "q15", Part: domain.StateValues, Field: "ideal_client",
			Text: "Опишите человека, которому вам было бы приятно помогать: возраст, сфера, какая у него «боль»?",
			Type: domain.QuestionText, MinLen: 15, MaxLen: 1000,
		},
		// Part 5: practical limitations
		{
			ID: "q16", Part: domain.StateLimitations, Field: "budget",
			Text: "Какой стартовый бюджет вы готовы вложить?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "До 50 000 ₽", Value: "до 50000"},
				{Label: "50–150 тыс. ₽", Value: "50000-150000"},
				{Label: "150–500 тыс. ₽", Value: "150000-500000"},
				{Label: "Больше 500 тыс. ₽", Value: "больше 500000"},
			},
		},
		{
			ID: "q17", Part: domain.StateLimitations, Field: "time_per_week",
			Text: "Сколько времени в неделю вы готовы уделять бизнесу?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "До 10 часов", Value: "до 10 часов"},
				{Label: "10–20 часов", Value: "10-20 часов"},
				{Label: "20–40 часов", Value: "20-40 часов"},
				{Label: "Полная занятость", Value: "полная занятость"},
			},
		},
		{
			ID: "q18", Part: domain.StateLimitations, Field: "business_format",
			Text: "Какой формат бизнеса вам ближе?", Type: domain.QuestionChoice,
			Options: []domain.Option{
				{Label: "💻 Онлайн", Value: "онлайн"},
				{Label: "🏪 Офлайн", Value: "офлайн"},
				{Label: "🔀 Гибрид", Value: "гибрид"},
			},
		},
	}
}
