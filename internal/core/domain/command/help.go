package command

import (
	"context"
	"fmt"
	"navbot/internal/core/domain"
	"navbot/internal/core/port"
	"navbot/internal/core/service"
	"time"
)

type Help struct {
	sender  port.TextSender
	tracker service.Tracker
	command string
}

func NewHelp(sender port.TextSender, tracker service.Tracker, command string) *Help {
	return &Help{sender: sender, tracker: tracker, command: command}
}

func (h *Help) GetCommand() string {
	return h.command
}

const helpMessage = `🤖 *ПОМОЩЬ ПО БОТУ*

*Команды:*
/start — начать новый анализ
/restart — сбросить анкету и начать заново
/stats — статистика бота
/balance — статус AI-сервиса
/donate — поддержать проект
/help — эта справка

*Как это работает:*
1. Ответьте на вопросы анкеты (кнопки или текст)
2. Получите психологический портрет
3. Выберите одну из предложенных бизнес-ниш
4. Получите детальный план и PDF-документ`

func (h *Help) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	h.tracker.CountMessage()

	if _, err := h.sender.SendMarkdownReply(ctx, message, helpMessage); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
