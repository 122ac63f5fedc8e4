package domain

import "fmt"

type QuestionType string

const (
	QuestionChoice      QuestionType = "choice"
	QuestionMultiSelect QuestionType = "multi_select"
	QuestionScale       QuestionType = "scale"
	QuestionRating      QuestionType = "rating"
	QuestionText        QuestionType = "text"
)

// Option is one selectable answer of a choice or multi-select question.
type Option struct {
	Label string
	Value string
}

// Question describes one questionnaire entry. Field names the key the
// answer is stored under in the session; Part maps the question to one of
// the five questionnaire states.
type Question struct {
	ID      string
	Part    State
	Text    string
	Type    QuestionType
	Options []Option

	// multi-select limits
	MinChoices int
	MaxChoices int

	// free-text limits, runes
	MinLen int
	MaxLen int

	// scale bounds, inclusive
	Min int
	Max int

	Field string
}

// ValidationError carries a user-facing reason an answer was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer: %s", e.Reason)
}

func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
