// Package llm provides the completion-service boundary for codeplan.
// It abstracts hosted chat-completion providers behind a single Completer
// interface so the decomposer never depends on a concrete SDK.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Provider names supported by the factory.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Sentinel errors for the completion-service boundary. Callers match these
// with errors.Is; providers wrap transport and auth failures in
// ErrServiceUnavailable, and response validation wraps schema failures in
// ErrMalformedResponse.
var (
	// ErrServiceUnavailable indicates a network, timeout, or auth failure
	// calling the completion service. Not retried automatically.
	ErrServiceUnavailable = errors.New("completion service unavailable")
	// ErrMalformedResponse indicates the structured payload failed schema
	// validation. No partial fields are salvaged.
	ErrMalformedResponse = errors.New("malformed completion response")
)

// Request is a single completion-service call.
type Request struct {
	// System is the system instruction for the call.
	System string
	// Prompt is the user-facing prompt body.
	Prompt string
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxTokens caps the completion length.
	MaxTokens int
}

// Completer is the one logical operation the decomposer needs: send a
// prompt, get the raw response text back. Implementations are expected to
// be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// DetectProvider infers the provider from a model name prefix.
// Unknown names default to Anthropic.
func DetectProvider(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gemini") {
		return ProviderGemini
	}
	return ProviderAnthropic
}

// KnownModels lists the models the CLI advertises per provider.
func KnownModels() map[string][]string {
	return map[string][]string{
		ProviderAnthropic: {
			"claude-sonnet-4-20250514",
			"claude-sonnet-4-5-20250929",
			"claude-haiku-4-5-20251001",
			"claude-opus-4-1-20250805",
			"claude-3-5-haiku-20241022",
		},
		ProviderGemini: {
			"gemini-2.0-flash-lite",
			"gemini-2.0-flash",
			"gemini-1.5-pro",
			"gemini-1.5-flash",
		},
	}
}
