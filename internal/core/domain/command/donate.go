package command

import (
	"context"
	"fmt"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"navbot/internal/core/service"
	"time"
)

// Donate is a placeholder: payments are not integrated yet.
type Donate struct {
	sender  port.TextSender
	tracker service.Tracker
	command string
}

func NewDonate(sender port.TextSender, tracker service.Tracker, command string) *Donate {
	return &Donate{sender: sender, tracker: tracker, command: command}
}

func (d *Donate) GetCommand() string {
	return d.command
}

func (d *Donate) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	d.tracker.CountMessage()

	if _, err := d.sender.SendMessageReply(ctx, message,
		"💳 Приём платежей пока не подключен. Спасибо, что пользуетесь ботом!"); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
