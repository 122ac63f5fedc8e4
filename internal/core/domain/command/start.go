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

// Start greets the user, shows the bot statistics and offers the
// questionnaire start button.
type Start struct {
	flow      *service.Flow
	keyboards port.KeyboardSender
	tracker   service.Tracker
	store     port.SessionStore
	generator port.TextGenerator
	command   string
}

func NewStart(flow *service.Flow, keyboards port.KeyboardSender, tracker service.Tracker,
	store port.SessionStore, generator port.TextGenerator, command string) *Start {
	return &Start{
		flow:      flow,
		keyboards: keyboards,
		tracker:   tracker,
		store:     store,
		generator: generator,
		command:   command,
	}
}

func (s *Start) GetCommand() string {
	return s.command
}

func (s *Start) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.tracker.CountMessage()

	session := s.flow.Session(ctx, message)
	session.Reset()
	if err := s.store.Put(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	aiStatus := "⚠️ (Базовый режим)"
	balanceInfo := ""
	if s.generator != nil {
		if available, info := s.generator.CheckAvailability(ctx); available {
			aiStatus = "✅ (AI-режим)"
			balanceInfo = "\n\n🤖 *OpenAI статус:* " + info
		} else {
			log.Warn().Str("status", info).Msg("text generator unavailable")
		}
	}

	active, err := s.store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count sessions")
	}

	welcome := fmt.Sprintf(`👋 *Добро пожаловать в Бизнес-Навигатор!* %s

🎯 *Что вас ждет:*
• %d вопросов для глубокого анализа личности
• Психологический портрет от AI
• Персонализированные бизнес-ниши
• Детальный пошаговый план в PDF

📊 *Статистика бота:*
%s%s

👇 *Нажмите кнопку ниже, чтобы начать анализ:*`,
		aiStatus, s.flow.Quiz().Total(), s.tracker.Stats(active), balanceInfo)

	keyboard := domain.Keyboard{}.
		Row(domain.Button{Label: "🚀 Начать анкету", Data: "quiz:start"})

	if _, err := s.keyboards.SendKeyboard(ctx, message.ChatID, welcome, keyboard); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
