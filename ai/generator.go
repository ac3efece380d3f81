// Package ai provides the generative response backend used to augment
// messages from the automated participant.
package ai

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/chatrelay/internal/profile"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateConfig holds configuration for a response generator.
type GenerateConfig struct {
	Provider        string // openai, gemini
	Model           string
	APIKey          string
	BaseURL         string
	MaxOutputTokens int
	Temperature     float32
	TopP            float32
	SafetyThreshold string // none, low, medium, high (gemini only)
}

// NewConfigFromProfile builds a generator config from the instance profile.
func NewConfigFromProfile(p *profile.Profile) GenerateConfig {
	return GenerateConfig{
		Provider:        p.AIProvider,
		Model:           p.AIModel,
		APIKey:          p.AIAPIKey,
		BaseURL:         p.AIBaseURL,
		MaxOutputTokens: p.AIMaxOutputTokens,
		Temperature:     p.AITemperature,
		TopP:            p.AITopP,
		SafetyThreshold: p.AISafetyThreshold,
	}
}

// Validate checks the config for a usable backend.
func (c *GenerateConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("generator API key is required")
	}
	if c.Model == "" {
		return errors.New("generator model is required")
	}
	return nil
}

// bounded caps the number of in-flight generation calls so a slow backend
// cannot exhaust concurrent handler capacity.
type bounded struct {
	inner Generator
	sem   *semaphore.Weighted
}

// NewBounded wraps a generator with a concurrency bound.
func NewBounded(g Generator, maxConcurrent int64) Generator {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &bounded{inner: g, sem: semaphore.NewWeighted(maxConcurrent)}
}

func (b *bounded) Generate(ctx context.Context, prompt string) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "generation slot unavailable")
	}
	defer b.sem.Release(1)
	return b.inner.Generate(ctx, prompt)
}
