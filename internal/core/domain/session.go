package domain

import (
	"fmt"
	"strings"
	"time"
)

// State tracks where a user is in the advisory flow. The five questionnaire
// states mirror the five parts of the profile.
type State string

const (
	StateStart          State = "start"
	StateDemographics   State = "demographics"
	StatePersonality    State = "personality"
	StateSkills         State = "skills"
	StateValues         State = "values"
	StateLimitations    State = "limitations"
	StateAnalyzing      State = "analyzing"
	StateNicheSelection State = "niche_selection"
	StatePlanReady      State = "plan_ready"
)

// InQuestionnaire reports whether the state accepts questionnaire answers.
func (s State) InQuestionnaire() bool {
	switch s {
	case StateDemographics, StatePersonality, StateSkills, StateValues, StateLimitations:
		return true
	}
	return false
}

// Session is the full per-user state of one advisory run: questionnaire
// answers keyed by profile field, the generated artifacts and the position
// in the flow. It is serialized as a whole by the session store.
type Session struct {
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`

	State         State          `json:"state"`
	QuestionIndex int            `json:"question_index"`
	Answered      int            `json:"answered"`
	Answers       map[string]any `json:"answers"`
	Pending       []string       `json:"pending,omitempty"`

	Analysis      string         `json:"analysis,omitempty"`
	Niches        []Niche        `json:"niches,omitempty"`
	Plans         map[int]string `json:"plans,omitempty"`
	SelectedNiche int            `json:"selected_niche"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func NewSession(userID, chatID int64) *Session {
	now := time.Now()
	return &Session{
		UserID:       userID,
		ChatID:       chatID,
		State:        StateStart,
		Answers:      make(map[string]any),
		Plans:        make(map[int]string),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Reset drops answers and artifacts but keeps the user identity.
func (s *Session) Reset() {
	s.State = StateStart
	s.QuestionIndex = 0
	s.Answered = 0
	s.Answers = make(map[string]any)
	s.Pending = nil
	s.Analysis = ""
	s.Niches = nil
	s.Plans = make(map[int]string)
	s.SelectedNiche = 0
	s.Touch()
}

func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// Progress returns the completion percentage for a questionnaire of total
// questions, capped at 100.
func (s *Session) Progress(total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(s.Answered) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}

const progressBarCells = 20

// ProgressBar renders the 20-cell progress line shown above questions.
func (s *Session) ProgressBar(total int) string {
	percent := s.Progress(total)
	filled := int(percent / (100 / progressBarCells))

	var b strings.Builder
	for i := range progressBarCells {
		if i < filled {
			b.WriteString("🟩")
		} else {
			b.WriteString("⬜")
		}
	}

	return fmt.Sprintf("%s %.1f%%", b.String(), percent)
}

func (s *Session) DisplayName() string {
	if s.Username != "" {
		return "@" + s.Username
	}
	if s.FirstName != "" {
		return s.FirstName
	}
	return fmt.Sprintf("id%d", s.UserID)
}
