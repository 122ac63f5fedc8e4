package service

import (
	"context"
	"errors"
	"navbot/internal/core/domain"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	sessions map[int64]*domain.Session
	putErr   error
}

func NewMockStore() *MockStore {
	return &MockStore{sessions: make(map[int64]*domain.Session)}
}

func (m *MockStore) Get(_ context.Context, userID int64) (*domain.Session, error) {
	s, ok := m.sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *MockStore) Put(_ context.Context, session *domain.Session) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.sessions[session.UserID] = session
	return nil
}

func (m *MockStore) Delete(_ context.Context, userID int64) error {
	delete(m.sessions, userID)
	return nil
}

func (m *MockStore) All(_ context.Context) ([]*domain.Session, error) {
	var all []*domain.Session
	for _, s := range m.sessions {
		all = append(all, s)
	}
	return all, nil
}

func (m *MockStore) Count(_ context.Context) (int, error) {
	return len(m.sessions), nil
}

func (m *MockStore) DeleteIdle(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type MockSender struct {
	Messages  []string
	Markdown  []string
	Keyboards []domain.Keyboard
	Edits     []string
	Documents []string

	sendErr error
}

func (m *MockSender) SendMessageReply(_ context.Context, _ *domain.Message, text string) (int, error) {
	m.Messages = append(m.Messages, text)
	return len(m.Messages), m.sendErr
}

func (m *MockSender) SendMessage(_ context.Context, _ int64, text string) (int, error) {
	m.Messages = append(m.Messages, text)
	return len(m.Messages), m.sendErr
}

func (m *MockSender) SendMarkdownReply(_ context.Context, _ *domain.Message, text string) (int, error) {
	m.Markdown = append(m.Markdown, text)
	m.Messages = append(m.Messages, text)
	return len(m.Messages), m.sendErr
}

func (m *MockSender) SendMarkdown(_ context.Context, _ int64, text string) (int, error) {
	m.Markdown = append(m.Markdown, text)
	m.Messages = append(m.Messages, text)
	return len(m.Messages), m.sendErr
}

func (m *MockSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {}

func (m *MockSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	m.Messages = append(m.Messages, err.Error())
	return err
}

func (m *MockSender) SendKeyboard(_ context.Context, _ int64, text string,
	keyboard domain.Keyboard) (int, error) {
	m.Messages = append(m.Messages, text)
	m.Keyboards = append(m.Keyboards, keyboard)
	return len(m.Messages), m.sendErr
}

func (m *MockSender) EditKeyboard(_ context.Context, _ int64, _ int, text string,
	keyboard domain.Keyboard) error {
	m.Edits = append(m.Edits, text)
	m.Keyboards = append(m.Keyboards, keyboard)
	return nil
}

func (m *MockSender) AnswerCallback(_ context.Context, _ string) error {
	return nil
}

func (m *MockSender) SendDocumentReply(_ context.Context, _ *domain.Message, filename string,
	data []byte, _ string) error {
	if len(data) == 0 {
		return errors.New("empty document")
	}
	m.Documents = append(m.Documents, filename)
	return nil
}

func (m *MockSender) LastMessage() string {
	if len(m.Messages) == 0 {
		return ""
	}
	return m.Messages[len(m.Messages)-1]
}

type MockRenderer struct {
	err error
}

func (m *MockRenderer) Render(title, body string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte("%PDF " + title + " " + body), nil
}

func newTestFlow(store *MockStore, sender *MockSender) *Flow {
	advisor := NewAdvisor(nil, NewMemoryTracker())
	return NewFlow(store, NewQuiz(), advisor, sender, sender, sender, &MockRenderer{},
		NewMemoryTracker(), 5, 2)
}

func message() *domain.Message {
	return &domain.Message{ID: 10, ChatID: 100, UserID: 7, Username: "unit", Text: ""}
}

func callback(data string) *domain.Callback {
	return &domain.Callback{ID: "cb", Data: data, Message: *message()}
}

func TestStartQuestionnaire(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	require.NoError(t, flow.StartQuestionnaire(t.Context(), session))

	assert.Equal(t, domain.StateDemographics, session.State)
	assert.Contains(t, sender.LastMessage(), "Вопрос 1/18")
	require.Len(t, sender.Keyboards, 1)

	stored, err := store.Get(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDemographics, stored.State)
}

func TestHandleCallbackQuizStart(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	require.NoError(t, flow.HandleCallback(t.Context(), callback("quiz:start")))

	stored, err := store.Get(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDemographics, stored.State)
}

func TestAnswerAdvancesToNextQuestion(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	require.NoError(t, flow.StartQuestionnaire(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("answer:25-34")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, 1, stored.Answered)
	assert.Equal(t, 1, stored.QuestionIndex)
	assert.Equal(t, "25-34", stored.Answers["age_group"])
	assert.Contains(t, sender.LastMessage(), "Вопрос 2/18")
}

func TestInvalidAnswerRejected(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	require.NoError(t, flow.StartQuestionnaire(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("answer:bogus")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Zero(t, stored.Answered)
	assert.Contains(t, sender.LastMessage(), "⚠️")
}

func TestMultiSelectToggleAndDone(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StatePersonality
	session.QuestionIndex = 3
	session.Answered = 3
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("multi:независимость")))
	require.NoError(t, flow.HandleCallback(t.Context(), callback("multi:признание")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, []string{"независимость", "признание"}, stored.Pending)
	assert.Contains(t, sender.Edits[len(sender.Edits)-1], "Выбрано: 2")

	require.NoError(t, flow.HandleCallback(t.Context(), callback("multi:done")))

	stored, _ = store.Get(t.Context(), 7)
	assert.Equal(t, 4, stored.Answered)
	assert.Equal(t, []string{"независимость", "признание"},
		stored.Answers["motivations"].([]string))
	assert.Empty(t, stored.Pending)
}

func TestMultiSelectOverflowDropsOldest(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StatePersonality
	session.QuestionIndex = 3
	require.NoError(t, store.Put(t.Context(), session))

	for _, v := range []string{"финансовая свобода", "самореализация", "независимость", "признание"} {
		require.NoError(t, flow.HandleCallback(t.Context(), callback("multi:"+v)))
	}

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, []string{"самореализация", "независимость", "признание"}, stored.Pending)
}

func TestMultiSelectDoneRequiresMinimum(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StatePersonality
	session.QuestionIndex = 3
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("multi:done")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Zero(t, stored.Answered)
	assert.Contains(t, sender.LastMessage(), "⚠️")
}

func TestBackReturnsToPreviousQuestion(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	require.NoError(t, flow.StartQuestionnaire(t.Context(), session))
	require.NoError(t, flow.HandleCallback(t.Context(), callback("answer:25-34")))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("quiz:back")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Zero(t, stored.QuestionIndex)
	assert.Zero(t, stored.Answered)
	assert.NotContains(t, stored.Answers, "age_group")
	assert.Equal(t, domain.StateDemographics, stored.State)
	assert.Contains(t, sender.Edits[len(sender.Edits)-1], "Вопрос 1/18")
}

func TestBackOnFirstQuestionIgnored(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	require.NoError(t, flow.StartQuestionnaire(t.Context(), session))
	asked := len(sender.Messages)

	require.NoError(t, flow.HandleCallback(t.Context(), callback("quiz:back")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Zero(t, stored.QuestionIndex)
	assert.Len(t, sender.Messages, asked)
	assert.Empty(t, sender.Edits)
}

func TestBackRestoresMultiSelectPending(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StatePersonality
	session.QuestionIndex = 4
	session.Answered = 4
	session.Answers["motivations"] = []string{"независимость", "признание"}
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("quiz:back")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, 3, stored.QuestionIndex)
	assert.Equal(t, 3, stored.Answered)
	assert.NotContains(t, stored.Answers, "motivations")
	assert.Equal(t, []string{"независимость", "признание"}, stored.Pending)
	assert.Contains(t, sender.Edits[len(sender.Edits)-1], "Выбрано: 2")
}

func TestToStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toStrings([]string{"a", "b"}))
	// answers loaded from the store come back as []any
	assert.Equal(t, []string{"a", "b"}, toStrings([]any{"a", "b"}))
	assert.Nil(t, toStrings("a"))
	assert.Nil(t, toStrings(nil))
}

func TestHandleTextRejectedOnButtonQuestion(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	require.NoError(t, flow.StartQuestionnaire(t.Context(), session))

	msg := message()
	msg.Text = "двадцать шесть"
	require.NoError(t, flow.HandleText(t.Context(), msg))

	assert.Contains(t, sender.LastMessage(), "кнопкой")
}

func TestHandleTextAnswer(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StateSkills
	session.QuestionIndex = 10
	session.Answered = 10
	require.NoError(t, store.Put(t.Context(), session))

	msg := message()
	msg.Text = "умею объяснять сложные вещи простыми словами"
	require.NoError(t, flow.HandleText(t.Context(), msg))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, 11, stored.Answered)
	assert.Equal(t, "умею объяснять сложные вещи простыми словами", stored.Answers["superpower"])
}

func TestHandleTextTooShort(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StateSkills
	session.QuestionIndex = 10
	require.NoError(t, store.Put(t.Context(), session))

	msg := message()
	msg.Text = "мало"
	require.NoError(t, flow.HandleText(t.Context(), msg))

	stored, _ := store.Get(t.Context(), 7)
	assert.Zero(t, stored.Answered)
	assert.Contains(t, sender.LastMessage(), "⚠️")
}

func TestHandleTextOutsideQuestionnaire(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	msg := message()
	msg.Text = "привет"
	require.NoError(t, flow.HandleText(t.Context(), msg))

	assert.Contains(t, sender.LastMessage(), "/start")
}

func TestLastAnswerFinishesQuestionnaire(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)

	session := flow.Session(t.Context(), message())
	session.State = domain.StateLimitations
	session.QuestionIndex = 17
	session.Answered = 17
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("answer:онлайн")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, domain.StateNicheSelection, stored.State)
	assert.NotEmpty(t, stored.Analysis)
	assert.NotEmpty(t, stored.Niches)

	var finished, card bool
	for _, m := range sender.Messages {
		if strings.Contains(m, "Анкета завершена") {
			finished = true
		}
		if strings.Contains(m, "НИША 1 из") {
			card = true
		}
	}
	assert.True(t, finished)
	assert.True(t, card)

	// the completion banner is bot-authored Markdown, the analysis is model
	// output and stays plain
	require.Len(t, sender.Markdown, 1)
	assert.Contains(t, sender.Markdown[0], "Анкета завершена")
	assert.NotContains(t, sender.Markdown, stored.Analysis)
}

func nicheSession(t *testing.T, store *MockStore, flow *Flow) *domain.Session {
	t.Helper()

	session := flow.Session(t.Context(), message())
	session.State = domain.StateNicheSelection
	session.Niches = []domain.Niche{
		{ID: 1, Name: "Консультации", Steps: []string{"a", "b", "c"}},
		{ID: 2, Name: "Онлайн-школа", Steps: []string{"a", "b", "c"}},
		{ID: 3, Name: "Маркетплейс", Steps: []string{"a", "b", "c"}},
	}
	require.NoError(t, store.Put(t.Context(), session))
	return session
}

func TestNichePaging(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)
	nicheSession(t, store, flow)

	require.NoError(t, flow.HandleCallback(t.Context(), callback("niche:next")))
	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, 1, stored.SelectedNiche)

	require.NoError(t, flow.HandleCallback(t.Context(), callback("niche:prev")))
	require.NoError(t, flow.HandleCallback(t.Context(), callback("niche:prev")))
	stored, _ = store.Get(t.Context(), 7)
	assert.Equal(t, 2, stored.SelectedNiche)

	assert.Contains(t, sender.Edits[len(sender.Edits)-1], "НИША 3 из 3")
}

func TestNichePickDeliversPlan(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)
	nicheSession(t, store, flow)

	require.NoError(t, flow.HandleCallback(t.Context(), callback("niche:pick")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, domain.StatePlanReady, stored.State)
	assert.NotEmpty(t, stored.Plans[0])

	keyboard := sender.Keyboards[len(sender.Keyboards)-1]
	assert.Equal(t, "plan:pdf", keyboard[0][0].Data)
	assert.Equal(t, "plan:back", keyboard[1][0].Data)
}

func TestPlanLimit(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)
	session := nicheSession(t, store, flow)

	session.Plans[1] = "plan b"
	session.Plans[2] = "plan c"
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("niche:pick")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Empty(t, stored.Plans[0])
	assert.Contains(t, sender.LastMessage(), "Лимит")
}

func TestPlanCachedOnRepeatedPick(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)
	session := nicheSession(t, store, flow)

	session.State = domain.StatePlanReady
	session.Plans[0] = "cached plan"
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("niche:pick")))

	assert.Contains(t, sender.Messages, "cached plan")
}

func TestPlanPDFDownload(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)
	session := nicheSession(t, store, flow)

	session.State = domain.StatePlanReady
	session.Plans[0] = "подробный план"
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("plan:pdf")))

	require.Len(t, sender.Documents, 1)
	assert.True(t, strings.HasPrefix(sender.Documents[0], "business-plan-"))
	assert.True(t, strings.HasSuffix(sender.Documents[0], ".pdf"))
}

func TestPlanPDFRenderFailureNotifies(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	advisor := NewAdvisor(nil, NewMemoryTracker())
	flow := NewFlow(store, NewQuiz(), advisor, sender, sender, sender,
		&MockRenderer{err: errors.New("font missing")}, NewMemoryTracker(), 5, 2)
	session := nicheSession(t, store, flow)

	session.State = domain.StatePlanReady
	session.Plans[0] = "план"
	require.NoError(t, store.Put(t.Context(), session))

	err := flow.HandleCallback(t.Context(), callback("plan:pdf"))
	require.Error(t, err)
	assert.Empty(t, sender.Documents)
}

func TestPlanBackReturnsToNiches(t *testing.T) {
	store := NewMockStore()
	sender := &MockSender{}
	flow := newTestFlow(store, sender)
	session := nicheSession(t, store, flow)

	session.State = domain.StatePlanReady
	require.NoError(t, store.Put(t.Context(), session))

	require.NoError(t, flow.HandleCallback(t.Context(), callback("plan:back")))

	stored, _ := store.Get(t.Context(), 7)
	assert.Equal(t, domain.StateNicheSelection, stored.State)
	assert.Contains(t, sender.LastMessage(), "НИША 1 из 3")
}
