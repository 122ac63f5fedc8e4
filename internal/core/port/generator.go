package port

import (
	"context"
	"navbot/internal/core/domain"
)

type TextGenerator interface {
	// GenerateFromPrompt runs one chat completion over the given conversation.
	GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt,
		opts domain.GenerationOptions) (domain.ModelResponse, error)
	// CheckAvailability probes the completion endpoint and returns a
	// user-facing status line.
	CheckAvailability(ctx context.Context) (bool, string)
}
