// Package openai implements the response generator over the
// OpenAI-compatible chat completion protocol.
package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hrygo/chatrelay/ai"
)

// Generator generates responses through an OpenAI-compatible endpoint.
type Generator struct {
	client *openai.Client
	cfg    ai.GenerateConfig
}

// NewGenerator creates an OpenAI-backed generator.
func NewGenerator(cfg ai.GenerateConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
	}, nil
}

// Generate produces a response for the prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxOutputTokens,
		Temperature: g.cfg.Temperature,
		TopP:        g.cfg.TopP,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)

	if err != nil {
		slog.Error("generation_failed",
			"provider", "openai",
			"model", g.cfg.Model,
			"error", err,
			"latency_ms", latency.Milliseconds())
		return "", errors.Wrap(err, "chat completion request failed")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from backend")
	}

	slog.Debug("generation_success",
		"provider", "openai",
		"model", g.cfg.Model,
		"latency_ms", latency.Milliseconds(),
		"tokens_total", resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}
