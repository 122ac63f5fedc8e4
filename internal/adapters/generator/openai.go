package generator

import (
	"context"
	"fmt"
	"navbot/internal/core/domain"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/pagination"
	"github.com/rs/zerolog/log"
)

// completionClient is a test double seam over the SDK chat service.
type completionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams,
		opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type modelClient interface {
	List(ctx context.Context, opts ...option.RequestOption) (*pagination.Page[openai.Model], error)
}

// Config carries the completion endpoint settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAI adapts the openai-go client to the TextGenerator port.
type OpenAI struct {
	completions  completionClient
	models       modelClient
	systemPrompt string
	model        string
	maxTokens    int
	temperature  float64

	mu         sync.Mutex
	cachedOK   bool
	cachedInfo string
	cachedAt   time.Time
}

const availabilityCacheTTL = 5 * time.Minute

func NewOpenAI(cfg Config, systemPrompt string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &OpenAI{
		completions:  &client.Chat.Completions,
		models:       &client.Models,
		systemPrompt: systemPrompt,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
	}
}

func (g *OpenAI) GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt,
	opts domain.GenerationOptions) (domain.ModelResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompts)+1)
	messages = append(messages, openai.SystemMessage(g.systemPrompt))

	for _, prompt := range prompts {
		switch prompt.Author {
		case domain.System:
			messages = append(messages, openai.AssistantMessage(prompt.Prompt))
		case domain.User:
			messages = append(messages, openai.UserMessage(prompt.Prompt))
		}
	}

	maxTokens := g.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := g.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	completion, err := g.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(g.model),
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return domain.ModelResponse{}, fmt.Errorf("openai API error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return domain.ModelResponse{}, fmt.Errorf("openai returned no choices")
	}

	return domain.ModelResponse{
		Response: completion.Choices[0].Message.Content,
		Metadata: domain.ResponseMetadata{
			Model:            completion.Model,
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// CheckAvailability probes the models endpoint. The result is cached to keep
// /start and /balance from hammering the API.
func (g *OpenAI) CheckAvailability(ctx context.Context) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.cachedAt.IsZero() && time.Since(g.cachedAt) < availabilityCacheTTL {
		return g.cachedOK, g.cachedInfo
	}

	page, err := g.models.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("openai availability probe failed")
		g.cachedOK, g.cachedInfo = false, fmt.Sprintf("Ошибка подключения: %s", err)
	} else {
		g.cachedOK = true
		g.cachedInfo = fmt.Sprintf("API доступен, модель: %s (доступно моделей: %d)",
			g.model, len(page.Data))
	}
	g.cachedAt = time.Now()

	return g.cachedOK, g.cachedInfo
}
