package service

import (
	"context"
	"errors"
	"fmt"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// Flow drives a user through the advisory pipeline: questionnaire answers,
// profile analysis, niche selection and the plan with its PDF report. All
// Telegram updates that are not commands end up here.
type Flow struct {
	store     port.SessionStore
	quiz      *Quiz
	advisor   *Advisor
	sender    port.TextSender
	keyboards port.KeyboardSender
	documents port.DocumentSender
	renderer  port.ReportRenderer
	tracker   Tracker
	maxNiches int
	maxPlans  int
}

func NewFlow(store port.SessionStore, quiz *Quiz, advisor *Advisor, sender port.TextSender,
	keyboards port.KeyboardSender, documents port.DocumentSender, renderer port.ReportRenderer,
	tracker Tracker, maxNiches, maxPlans int) *Flow {
	return &Flow{
		store:     store,
		quiz:      quiz,
		advisor:   advisor,
		sender:    sender,
		keyboards: keyboards,
		documents: documents,
		renderer:  renderer,
		tracker:   tracker,
		maxNiches: maxNiches,
		maxPlans:  maxPlans,
	}
}

// Session loads the user session or creates a fresh one, refreshing the
// identity fields from the incoming message.
func (f *Flow) Session(ctx context.Context, msg *domain.Message) *domain.Session {
	session, err := f.store.Get(ctx, msg.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			log.Error().Err(err).Int64("userId", msg.UserID).Msg("failed to load session")
		}
		session = domain.NewSession(msg.UserID, msg.ChatID)
	}

	session.ChatID = msg.ChatID
	session.Username = msg.Username
	session.FirstName = msg.FirstName
	session.Touch()

	f.tracker.CountUser(msg.UserID)

	return session
}

func (f *Flow) Quiz() *Quiz {
	return f.quiz
}

// StartQuestionnaire resets the questionnaire progress and asks the first
// question.
func (f *Flow) StartQuestionnaire(ctx context.Context, session *domain.Session) error {
	session.Reset()
	session.State = f.quiz.PartFor(0)

	return f.askQuestion(ctx, session)
}

// HandleCallback routes a pressed inline-keyboard button based on the
// session state and the callback data prefix.
func (f *Flow) HandleCallback(ctx context.Context, callback *domain.Callback) error {
	f.tracker.CountMessage()

	if err := f.keyboards.AnswerCallback(ctx, callback.ID); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback query")
	}

	session := f.Session(ctx, &callback.Message)

	l := log.With().
		Int64("chatId", session.ChatID).
		Str("state", string(session.State)).
		Str("data", callback.Data).
		Logger()
	l.Debug().Msg("handling callback")

	if callback.Data == "quiz:start" {
		return f.StartQuestionnaire(ctx, session)
	}

	switch {
	case session.State.InQuestionnaire():
		return f.handleQuestionnaireCallback(ctx, session, callback)

	case session.State == domain.StateAnalyzing:
		_, err := f.sender.SendMarkdown(ctx, session.ChatID,
			"🤖 *Идет анализ...*\n\nПожалуйста, подождите.")
		return err

	case session.State == domain.StateNicheSelection:
		return f.handleNicheCallback(ctx, session, callback)

	case session.State == domain.StatePlanReady:
		return f.handlePlanCallback(ctx, session, callback)
	}

	l.Debug().Msg("callback ignored in current state")
	return nil
}

// HandleText consumes free-text answers while a text question is active.
func (f *Flow) HandleText(ctx context.Context, msg *domain.Message) error {
	f.tracker.CountMessage()
	session := f.Session(ctx, msg)

	if !session.State.InQuestionnaire() {
		_, err := f.sender.SendMessageReply(ctx, msg,
			"Пожалуйста, используйте кнопки для навигации или команду /start")
		return err
	}

	question, err := f.quiz.Question(session.QuestionIndex)
	if err != nil {
		return err
	}

	if question.Type != domain.QuestionText {
		_, err := f.sender.SendMessageReply(ctx, msg, "На этот вопрос нужно ответить кнопкой 👆")
		return err
	}

	value, verr := f.quiz.Validate(question, msg.Text)
	if verr != nil {
		var validation *domain.ValidationError
		if errors.As(verr, &validation) {
			_, err := f.sender.SendMessageReply(ctx, msg, "⚠️ "+validation.Reason)
			return err
		}
		return verr
	}

	session.Answers[question.Field] = value
	session.Answered++

	return f.advance(ctx, session)
}

func (f *Flow) handleQuestionnaireCallback(ctx context.Context, session *domain.Session,
	callback *domain.Callback) error {
	question, err := f.quiz.Question(session.QuestionIndex)
	if err != nil {
		return err
	}

	switch {
	case callback.Data == "quiz:back":
		return f.stepBack(ctx, session, callback.Message.ID)

	case strings.HasPrefix(callback.Data, "answer:"):
		raw := strings.TrimPrefix(callback.Data, "answer:")

		value, verr := f.quiz.Validate(question, raw)
		if verr != nil {
			var validation *domain.ValidationError
			if errors.As(verr, &validation) {
				_, err := f.sender.SendMessage(ctx, session.ChatID, "⚠️ "+validation.Reason)
				return err
			}
			return verr
		}

		session.Answers[question.Field] = value
		session.Answered++

		return f.advance(ctx, session)

	case callback.Data == "multi:done":
		if err := f.quiz.ValidateSelection(question, session.Pending); err != nil {
			var validation *domain.ValidationError
			if errors.As(err, &validation) {
				_, serr := f.sender.SendMessage(ctx, session.ChatID, "⚠️ "+validation.Reason)
				return serr
			}
			return err
		}

		session.Answers[question.Field] = append([]string(nil), session.Pending...)
		session.Pending = nil
		session.Answered++

		return f.advance(ctx, session)

	case strings.HasPrefix(callback.Data, "multi:"):
		value := strings.TrimPrefix(callback.Data, "multi:")
		if _, verr := f.quiz.Validate(question, value); verr != nil {
			return verr
		}

		session.Pending = toggle(session.Pending, value)
		if question.MaxChoices > 0 && len(session.Pending) > question.MaxChoices {
			session.Pending = session.Pending[1:]
		}

		text, keyboard := f.quiz.Render(question, session)
		if err := f.keyboards.EditKeyboard(ctx, session.ChatID, callback.Message.ID,
			text, keyboard); err != nil {
			return err
		}

		return f.put(ctx, session)
	}

	return nil
}

// stepBack returns to the previous question, dropping its stored answer so
// it can be given again. Multi-select answers come back as the pending
// selection for editing.
func (f *Flow) stepBack(ctx context.Context, session *domain.Session, messageID int) error {
	if session.QuestionIndex == 0 {
		return nil
	}

	session.Pending = nil
	session.QuestionIndex--

	question, err := f.quiz.Question(session.QuestionIndex)
	if err != nil {
		return err
	}

	if prev, answered := session.Answers[question.Field]; answered {
		delete(session.Answers, question.Field)
		session.Answered--

		if question.Type == domain.QuestionMultiSelect {
			session.Pending = toStrings(prev)
		}
	}

	session.State = f.quiz.PartFor(session.QuestionIndex)

	text, keyboard := f.quiz.Render(question, session)

	if messageID > 0 && len(keyboard) > 0 {
		if err := f.keyboards.EditKeyboard(ctx, session.ChatID, messageID, text, keyboard); err != nil {
			return err
		}
		return f.put(ctx, session)
	}

	return f.askQuestion(ctx, session)
}

func (f *Flow) advance(ctx context.Context, session *domain.Session) error {
	if praise := f.quiz.Praise(session.Answered); praise != "" {
		if _, err := f.sender.SendMessage(ctx, session.ChatID, praise); err != nil {
			log.Warn().Err(err).Msg("failed to send praise message")
		}
	}

	session.QuestionIndex++

	if session.QuestionIndex < f.quiz.Total() {
		session.State = f.quiz.PartFor(session.QuestionIndex)
		return f.askQuestion(ctx, session)
	}

	return f.finishQuestionnaire(ctx, session)
}

func (f *Flow) askQuestion(ctx context.Context, session *domain.Session) error {
	question, err := f.quiz.Question(session.QuestionIndex)
	if err != nil {
		return err
	}

	text, keyboard := f.quiz.Render(question, session)

	if len(keyboard) == 0 {
		_, err = f.sender.SendMessage(ctx, session.ChatID, text)
	} else {
		_, err = f.keyboards.SendKeyboard(ctx, session.ChatID, text, keyboard)
	}
	if err != nil {
		return fmt.Errorf("failed to ask question %s: %w", question.ID, err)
	}

	return f.put(ctx, session)
}

func (f *Flow) finishQuestionnaire(ctx context.Context, session *domain.Session) error {
	session.State = domain.StateAnalyzing
	if err := f.put(ctx, session); err != nil {
		return err
	}

	f.tracker.ProfileCompleted()

	if _, err := f.sender.SendMarkdown(ctx, session.ChatID,
		"🎉 *Анкета завершена!*\n\nАнализирую ваши ответы и подбираю бизнес-ниши. "+
			"Это займет пару минут..."); err != nil {
		return err
	}

	actionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.sender.SendChatAction(actionCtx, session.ChatID, domain.Typing)

	data := f.quiz.PromptData(session)

	session.Analysis = f.advisor.AnalyzeProfile(ctx, data)
	if _, err := f.sender.SendMessage(ctx, session.ChatID, session.Analysis); err != nil {
		log.Warn().Err(err).Msg("failed to send analysis")
	}

	session.Niches = f.advisor.SuggestNiches(ctx, data, session.Analysis, f.maxNiches)
	f.tracker.NichesGenerated(len(session.Niches))

	session.SelectedNiche = 0
	session.State = domain.StateNicheSelection
	if err := f.put(ctx, session); err != nil {
		return err
	}

	return f.showNiche(ctx, session, 0)
}

func (f *Flow) handleNicheCallback(ctx context.Context, session *domain.Session,
	callback *domain.Callback) error {
	if len(session.Niches) == 0 {
		return domain.ErrNoNiches
	}

	switch callback.Data {
	case "niche:prev":
		session.SelectedNiche = (session.SelectedNiche - 1 + len(session.Niches)) % len(session.Niches)
		if err := f.put(ctx, session); err != nil {
			return err
		}
		return f.showNiche(ctx, session, callback.Message.ID)

	case "niche:next":
		session.SelectedNiche = (session.SelectedNiche + 1) % len(session.Niches)
		if err := f.put(ctx, session); err != nil {
			return err
		}
		return f.showNiche(ctx, session, callback.Message.ID)

	case "niche:pick":
		return f.deliverPlan(ctx, session)
	}

	return nil
}

func (f *Flow) deliverPlan(ctx context.Context, session *domain.Session) error {
	niche := session.Niches[session.SelectedNiche]

	plan, cached := session.Plans[session.SelectedNiche]
	if !cached {
		if len(session.Plans) >= f.maxPlans {
			_, err := f.sender.SendMessage(ctx, session.ChatID, fmt.Sprintf(
				"⚠️ Лимит детальных планов исчерпан (%d). Начните новый анализ командой /restart.",
				f.maxPlans))
			return err
		}

		if _, err := f.sender.SendMarkdown(ctx, session.ChatID, fmt.Sprintf(
			"Отлично! Вы выбрали: *%s*\n\nГотовлю подробный бизнес-план, это займет некоторое время...",
			niche.Name)); err != nil {
			return err
		}

		actionCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go f.sender.SendChatAction(actionCtx, session.ChatID, domain.Typing)

		plan = f.advisor.BuildPlan(ctx, f.quiz.PromptData(session), niche)
		session.Plans[session.SelectedNiche] = plan
		f.tracker.PlanGenerated()
	}

	session.State = domain.StatePlanReady
	if err := f.put(ctx, session); err != nil {
		return err
	}

	if _, err := f.sender.SendMessage(ctx, session.ChatID, plan); err != nil {
		return err
	}

	keyboard := domain.Keyboard{}.
		Row(domain.Button{Label: "📄 Скачать PDF", Data: "plan:pdf"}).
		Row(domain.Button{Label: "↩️ Вернуться к нишам", Data: "plan:back"})

	_, err := f.keyboards.SendKeyboard(ctx, session.ChatID, "Что дальше?", keyboard)
	return err
}

func (f *Flow) handlePlanCallback(ctx context.Context, session *domain.Session,
	callback *domain.Callback) error {
	switch callback.Data {
	case "plan:pdf":
		return f.sendPlanDocument(ctx, session, &callback.Message)

	case "plan:back":
		session.State = domain.StateNicheSelection
		if err := f.put(ctx, session); err != nil {
			return err
		}
		return f.showNiche(ctx, session, 0)

	case "niche:pick":
		// repeated taps on an old niche card
		return f.deliverPlan(ctx, session)
	}

	return nil
}

func (f *Flow) sendPlanDocument(ctx context.Context, session *domain.Session,
	msg *domain.Message) error {
	niche := session.Niches[session.SelectedNiche]
	plan, ok := session.Plans[session.SelectedNiche]
	if !ok {
		return domain.ErrNoNiches
	}

	actionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.sender.SendChatAction(actionCtx, session.ChatID, domain.SendingDocument)

	report, err := f.renderer.Render("Бизнес-план: "+niche.Name, plan)
	if err != nil {
		return f.sender.NotifyAndReturnError(ctx,
			fmt.Errorf("failed to render plan report: %w", err), msg)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate report id: %w", err)
	}
	filename := fmt.Sprintf("business-plan-%s.pdf", id.String()[:8])

	if err := f.documents.SendDocumentReply(ctx, msg, filename, report,
		"Ваш подробный бизнес-план готов! 📄"); err != nil {
		return fmt.Errorf("failed to send plan document: %w", err)
	}

	return nil
}

func (f *Flow) showNiche(ctx context.Context, session *domain.Session, editMessageID int) error {
	niche := session.Niches[session.SelectedNiche]
	card := niche.FormatCard(session.SelectedNiche+1, len(session.Niches))

	keyboard := domain.Keyboard{}.
		Row(
			domain.Button{Label: "⬅️", Data: "niche:prev"},
			domain.Button{Label: fmt.Sprintf("%d/%d", session.SelectedNiche+1, len(session.Niches)), Data: "niche:noop"},
			domain.Button{Label: "➡️", Data: "niche:next"},
		).
		Row(domain.Button{Label: "✅ Выбрать эту нишу", Data: "niche:pick"})

	if editMessageID > 0 {
		return f.keyboards.EditKeyboard(ctx, session.ChatID, editMessageID, card, keyboard)
	}

	_, err := f.keyboards.SendKeyboard(ctx, session.ChatID, card, keyboard)
	return err
}

func (f *Flow) put(ctx context.Context, session *domain.Session) error {
	if err := f.store.Put(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// toStrings normalizes a stored multi-select answer, which is []string in a
// live session and []any after a JSON round-trip through the store.
func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

func toggle(values []string, value string) []string {
	for i, v := range values {
		if v == value {
			return append(values[:i], values[i+1:]...)
		}
	}
	return append(values, value)
}
