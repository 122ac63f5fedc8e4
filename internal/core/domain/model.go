package domain

type Author string

const (
	User   Author = "user"
	System Author = "system"
)

// Prompt is a single turn of a model conversation.
type Prompt struct {
	Prompt string
	Author Author
}

// GenerationOptions override the configured model defaults for one call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

type ModelResponse struct {
	Response string
	Metadata ResponseMetadata
}

type ResponseMetadata struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Message is the transport-independent view of an incoming Telegram message.
type Message struct {
	ID        int
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Text      string
}

// Callback is a pressed inline-keyboard button.
type Callback struct {
	ID      string
	Data    string
	Message Message
}

type Action string

const (
	Typing          Action = "typing"
	SendingDocument Action = "sending_document"
)

// Button is one inline-keyboard button; a keyboard is a slice of rows.
type Button struct {
	Label string
	Data  string
}

type Keyboard [][]Button

// Row appends a row of buttons and returns the keyboard for chaining.
func (k Keyboard) Row(buttons ...Button) Keyboard {
	return append(k, buttons)
}
