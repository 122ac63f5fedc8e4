package command

import (
	"context"
	"fmt"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"navbot/internal/core/service"
	"time"
)

// Balance probes the completion endpoint and reports its status.
type Balance struct {
	sender    port.TextSender
	generator port.TextGenerator
	tracker   service.Tracker
	command   string
}

func NewBalance(sender port.TextSender, generator port.TextGenerator, tracker service.Tracker,
	command string) *Balance {
	return &Balance{sender: sender, generator: generator, tracker: tracker, command: command}
}

func (b *Balance) GetCommand() string {
	return b.command
}

func (b *Balance) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b.tracker.CountMessage()

	text := "⚠️ OpenAI API ключ не установлен, AI функции отключены."
	if b.generator != nil {
		if available, info := b.generator.CheckAvailability(ctx); available {
			text = "✅ *OpenAI доступен.*\n" + info
		} else {
			text = "❌ *OpenAI недоступен.*\n" + info
		}
	}

	if _, err := b.sender.SendMarkdownReply(ctx, message, text); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
