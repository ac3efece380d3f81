// Package gemini implements the response generator over the Google GenAI
// API, with native safety threshold settings.
package gemini

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/hrygo/chatrelay/ai"
)

// Generator generates responses through the Gemini API.
type Generator struct {
	client *genai.Client
	cfg    ai.GenerateConfig
	safety []*genai.SafetySetting
}

// NewGenerator creates a Gemini-backed generator.
func NewGenerator(ctx context.Context, cfg ai.GenerateConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}

	return &Generator{
		client: client,
		cfg:    cfg,
		safety: safetySettings(cfg.SafetyThreshold),
	}, nil
}

// safetySettings maps the configured threshold onto every harm category.
func safetySettings(threshold string) []*genai.SafetySetting {
	var block genai.HarmBlockThreshold
	switch threshold {
	case "none":
		return nil
	case "low":
		block = genai.HarmBlockThresholdBlockLowAndAbove
	case "high":
		block = genai.HarmBlockThresholdBlockOnlyHigh
	default: // medium
		block = genai.HarmBlockThresholdBlockMediumAndAbove
	}

	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: block,
		})
	}
	return settings
}

// Generate produces a response for the prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.cfg.MaxOutputTokens),
		Temperature:     genai.Ptr(g.cfg.Temperature),
		TopP:            genai.Ptr(g.cfg.TopP),
		SafetySettings:  g.safety,
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	latency := time.Since(start)

	if err != nil {
		slog.Error("generation_failed",
			"provider", "gemini",
			"model", g.cfg.Model,
			"error", err,
			"latency_ms", latency.Milliseconds())
		return "", errors.Wrap(err, "generate content request failed")
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from backend")
	}

	slog.Debug("generation_success",
		"provider", "gemini",
		"model", g.cfg.Model,
		"latency_ms", latency.Milliseconds())

	return text, nil
}
