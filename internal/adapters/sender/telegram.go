package sender

import (
	"bytes"
	"context"
	"fmt"
	"navbot/internal/core/domain"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// TelegramMessageLimit is the hard Telegram cap on message length; longer
// texts are chunked.
const TelegramMessageLimit = 4096

// TelegramBot is the subset of the bot API the sender uses.
type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type Telegram struct {
	bot TelegramBot
}

func NewTelegram(bot TelegramBot) *Telegram {
	return &Telegram{bot: bot}
}

func (s *Telegram) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	return s.sendChunked(ctx, message.ChatID, replyTo(message), text, "")
}

func (s *Telegram) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	return s.sendChunked(ctx, chatID, nil, text, "")
}

// SendMarkdownReply is SendMessageReply for texts the bot authors itself,
// rendered with Markdown formatting. Model output goes through the plain
// variants since it is not guaranteed to be well-formed Markdown.
func (s *Telegram) SendMarkdownReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	return s.sendChunked(ctx, message.ChatID, replyTo(message), text, models.ParseModeMarkdownV1)
}

// SendMarkdown is the standalone counterpart of SendMarkdownReply.
func (s *Telegram) SendMarkdown(ctx context.Context, chatID int64, text string) (int, error) {
	return s.sendChunked(ctx, chatID, nil, text, models.ParseModeMarkdownV1)
}

func (s *Telegram) sendChunked(ctx context.Context, chatID int64, reply *models.ReplyParameters,
	text string, parseMode models.ParseMode) (int, error) {
	var lastID int

	for _, chunk := range chunkText(text, TelegramMessageLimit) {
		sent, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          chatID,
			Text:            chunk,
			ParseMode:       parseMode,
			ReplyParameters: reply,
		})
		if err != nil {
			return 0, fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
		}
		lastID = sent.ID
	}

	return lastID, nil
}

func replyTo(message *domain.Message) *models.ReplyParameters {
	return &models.ReplyParameters{
		MessageID: message.ID,
		ChatID:    message.ChatID,
	}
}

func (s *Telegram) SendKeyboard(ctx context.Context, chatID int64, text string,
	keyboard domain.Keyboard) (int, error) {
	sent, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: toInlineMarkup(keyboard),
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return sent.ID, nil
}

func (s *Telegram) EditKeyboard(ctx context.Context, chatID int64, messageID int, text string,
	keyboard domain.Keyboard) error {
	_, err := s.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: toInlineMarkup(keyboard),
	})
	if err != nil {
		return fmt.Errorf("failed to edit message %d: %w", messageID, err)
	}

	return nil
}

func (s *Telegram) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := s.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	})
	return err
}

func (s *Telegram) SendDocumentReply(ctx context.Context, message *domain.Message, filename string,
	data []byte, caption string) error {
	_, err := s.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: message.ChatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
		Caption: caption,
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}

	return nil
}

const chatActionRepeatSeconds = 5

func (s *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	log.Debug().Int64("chatID", chatID).Msg("starting action routine")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		default:
		}

		var chatAction models.ChatAction
		switch action {
		case domain.SendingDocument:
			chatAction = models.ChatActionUploadDocument
		case domain.Typing:
			chatAction = models.ChatActionTyping
		default:
			chatAction = models.ChatActionTyping
		}

		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			log.Err(err).Msg("error sending chat action")
			return
		}

		time.Sleep(chatActionRepeatSeconds * time.Second)
	}
}

const errorNotice = "❌ Произошла ошибка. Пожалуйста, попробуйте начать заново: /start"

func (s *Telegram) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	log.Error().Err(err).Int64("chatId", message.ChatID).Msg("notifying chat about error")

	if _, serr := s.SendMessageReply(ctx, message, errorNotice); serr != nil {
		log.Error().Err(serr).Msg("failed to send error notice")
	}

	return err
}

func toInlineMarkup(keyboard domain.Keyboard) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         button.Label,
				CallbackData: button.Data,
			})
		}
		rows = append(rows, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// chunkText splits text into rune-safe pieces of at most limit runes,
// preferring to break at line boundaries.
func chunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}

	return chunks
}
