package command

import (
	"context"
	"fmt"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"navbot/internal/core/service"
	"time"

	"github.com/rs/zerolog/log"
)

// Stats reports the bot-wide counters and the accumulated model usage.
type Stats struct {
	sender  port.TextSender
	tracker service.Tracker
	store   port.SessionStore
	command string
}

func NewStats(sender port.TextSender, tracker service.Tracker, store port.SessionStore,
	command string) *Stats {
	return &Stats{sender: sender, tracker: tracker, store: store, command: command}
}

func (s *Stats) GetCommand() string {
	return s.command
}

func (s *Stats) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.tracker.CountMessage()

	active, err := s.store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count sessions")
	}

	text := s.tracker.Stats(active).String() + "\n\n" + s.tracker.Usage().String()

	if _, err := s.sender.SendMarkdownReply(ctx, message, text); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
