package handler

import (
	"context"
	"navbot/internal/core/domain"
	"navbot/internal/core/service"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Flow routes callback queries and plain text messages into the
// questionnaire flow.
type Flow struct {
	flow    *service.Flow
	timeout time.Duration
}

func NewFlow(flow *service.Flow, timeout time.Duration) *Flow {
	return &Flow{flow: flow, timeout: timeout}
}

// HandleCallback handles inline keyboard taps.
func (f *Flow) HandleCallback(_ context.Context, _ *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cq := update.CallbackQuery

	callback := &domain.Callback{
		ID:   cq.ID,
		Data: cq.Data,
		Message: domain.Message{
			UserID:    cq.From.ID,
			Username:  cq.From.Username,
			FirstName: cq.From.FirstName,
		},
	}

	if cq.Message.Message != nil {
		callback.Message.ID = cq.Message.Message.ID
		callback.Message.ChatID = cq.Message.Message.Chat.ID
	}

	log.Debug().Str("data", cq.Data).Int64("user", cq.From.ID).Msg("received callback")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()

		if err := f.flow.HandleCallback(ctx, callback); err != nil {
			log.Err(err).Str("data", cq.Data).Msg("failed to handle callback")
		}
	}()
}

// HandleDefault handles everything no other handler matched. Plain text
// messages feed text answers into the questionnaire.
func (f *Flow) HandleDefault(_ context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	msg := toDomainMessage(update.Message)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()

		if err := f.flow.HandleText(ctx, msg); err != nil {
			log.Err(err).Int64("user", msg.UserID).Msg("failed to handle message")
		}
	}()
}
