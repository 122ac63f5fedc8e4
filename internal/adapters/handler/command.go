package handler

import (
	"context"
	"navbot/internal/core/domain"
	"navbot/internal/core/domain/command"
	"navbot/internal/core/port"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Command dispatches /commands through the registry. Each command runs in
// its own goroutine so long generations don't block polling.
type Command struct {
	registry port.CommandRegistry
	timeout  time.Duration
}

func NewCommand(registry port.CommandRegistry, timeout time.Duration) *Command {
	return &Command{registry: registry, timeout: timeout}
}

func (c *Command) Handle(_ context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	log.Debug().Str("message", update.Message.Text).Msg("received command")

	cmd := command.ParseCommand(update.Message.Text)
	commandHandler, err := c.registry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	msg := toDomainMessage(update.Message)

	go func() {
		if err := commandHandler.Respond(context.Background(), c.timeout, msg); err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

func toDomainMessage(m *models.Message) *domain.Message {
	msg := &domain.Message{
		ID:     m.ID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
	}

	if m.From != nil {
		msg.UserID = m.From.ID
		msg.Username = m.From.Username
		msg.FirstName = m.From.FirstName
	}

	return msg
}
