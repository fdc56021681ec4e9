package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiCompleter calls the Google Gemini API and implements Completer.
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	tracker *TokenTracker
	logger  *zap.Logger
}

// GeminiConfig contains configuration for creating a GeminiCompleter.
type GeminiConfig struct {
	// Model is the Gemini model to use.
	Model string
	// APIKey is the Gemini API key. If empty, uses GEMINI_API_KEY env var.
	APIKey string
	// Logger receives per-call debug events. Optional.
	Logger *zap.Logger
}

// NewGeminiCompleter creates a new Gemini-backed completer.
func NewGeminiCompleter(ctx context.Context, cfg GeminiConfig) (*GeminiCompleter, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiCompleter{
		client:  client,
		model:   model,
		tracker: NewTokenTracker(),
		logger:  logger,
	}, nil
}

// Complete sends one prompt to the Gemini API and returns the response text.
func (c *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := int32(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: maxTokens,
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrServiceUnavailable, err)
	}

	if resp.UsageMetadata != nil {
		c.tracker.Add(int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	} else {
		c.tracker.Add(0, 0)
	}
	c.logger.Debug("gemini completion", zap.String("model", c.model))

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrServiceUnavailable)
	}

	return text, nil
}

// Model returns the configured model name.
func (c *GeminiCompleter) Model() string {
	return c.model
}

// Tracker returns the token tracker for this completer.
func (c *GeminiCompleter) Tracker() *TokenTracker {
	return c.tracker
}
