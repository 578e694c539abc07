package ai

import (
	"context"
	"errors"
	"strings"

	"farmavida-master/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var Module = fx.Module("ai", fx.Provide(New))

var ErrEmptyResponse = errors.New("ai: empty response")

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Gemini struct {
	client *genai.Client
	model  string
}

// New returns a nil TextGenerator when AI.API_KEY is not configured.
func New(cfg *config.Config) (TextGenerator, error) {
	if cfg.AI.APIKey == "" {
		zap.L().Info("ai assistant disabled, AI.API_KEY not set")
		return nil, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.AI.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &Gemini{client: client, model: cfg.AI.Model}, nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			MaxOutputTokens: 800,
			Temperature:     genai.Ptr[float32](0.4),
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr[int32](0),
			},
		},
	)
	if err != nil {
		return "", err
	}

	if usage := result.UsageMetadata; usage != nil {
		zap.L().Debug("gemini usage",
			zap.Int32("prompt_tokens", usage.PromptTokenCount),
			zap.Int32("total_tokens", usage.TotalTokenCount),
		)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
