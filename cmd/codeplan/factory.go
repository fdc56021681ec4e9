package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/codeplan/codeplan/internal/config"
	"github.com/codeplan/codeplan/internal/llm"
)

// completerSet bundles a provider-backed completer with its token tracker
// and the resolved model name.
type completerSet struct {
	completer llm.Completer
	tracker   *llm.TokenTracker
	model     string
}

// newCompleter builds the configured completion-service client.
func newCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*completerSet, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = llm.DetectProvider(cfg.Model)
	}

	switch provider {
	case llm.ProviderAnthropic:
		c, err := llm.NewAnthropicCompleter(llm.AnthropicConfig{
			Model:         cfg.Model,
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return &completerSet{completer: c, tracker: c.Tracker(), model: c.Model()}, nil

	case llm.ProviderGemini:
		c, err := llm.NewGeminiCompleter(ctx, llm.GeminiConfig{
			Model:  cfg.Model,
			APIKey: cfg.Gemini.APIKey,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return &completerSet{completer: c, tracker: c.Tracker(), model: c.Model()}, nil

	default:
		return nil, fmt.Errorf("unsupported provider %q (expected %q or %q)",
			provider, llm.ProviderAnthropic, llm.ProviderGemini)
	}
}
