package port

import (
	"context"
	"navbot/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends a reply to a specified message with the given text and returns the sent message ID and
	// an error if any.
	SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error)
	// SendMessage sends a standalone message to the chat.
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	// SendMarkdownReply sends a Markdown-formatted reply. Only for texts the
	// bot authors itself; model output is sent plain.
	SendMarkdownReply(ctx context.Context, message *domain.Message, text string) (int, error)
	// SendMarkdown sends a standalone Markdown-formatted message.
	SendMarkdown(ctx context.Context, chatID int64, text string) (int, error)
	// SendChatAction repeatedly sends a chat action (e.g. typing) until the context is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
	// NotifyAndReturnError sends an error notification to the originating chat and returns the error.
	NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error
}

type KeyboardSender interface {
	// SendKeyboard sends a message with an inline keyboard attached.
	SendKeyboard(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) (int, error)
	// EditKeyboard replaces the text and keyboard of an already sent message.
	EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, keyboard domain.Keyboard) error
	// AnswerCallback acknowledges a pressed inline-keyboard button.
	AnswerCallback(ctx context.Context, callbackID string) error
}

type DocumentSender interface {
	// SendDocumentReply uploads a file as a document in reply to the given message.
	SendDocumentReply(ctx context.Context, message *domain.Message, filename string, data []byte,
		caption string) error
}
