package command

import (
	"context"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"navbot/internal/core/service"
	"time"

	"github.com/rs/zerolog/log"
)

// Restart drops the questionnaire progress and starts from the first
// question again.
type Restart struct {
	flow    *service.Flow
	sender  port.TextSender
	tracker service.Tracker
	command string
}

func NewRestart(flow *service.Flow, sender port.TextSender, tracker service.Tracker,
	command string) *Restart {
	return &Restart{flow: flow, sender: sender, tracker: tracker, command: command}
}

func (r *Restart) GetCommand() string {
	return r.command
}

func (r *Restart) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.tracker.CountMessage()

	session := r.flow.Session(ctx, message)

	log.Info().Int64("userId", session.UserID).Msg("restarting questionnaire")

	if _, err := r.sender.SendMessage(ctx, message.ChatID, "🔄 Начинаем заново!"); err != nil {
		log.Warn().Err(err).Msg("failed to send restart notice")
	}

	return r.flow.StartQuestionnaire(ctx, session)
}
