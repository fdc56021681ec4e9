package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured for the selected
// provider.
var ErrNoAPIKey = errors.New("no API key configured")

// GetAPIKey returns the API key for the given provider.
// It checks in order: environment variable, config file.
func GetAPIKey(cfg *Config, provider string) (string, error) {
	envVar := "ANTHROPIC_API_KEY"
	configured := ""
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	if provider == "gemini" {
		envVar = "GEMINI_API_KEY"
		configured = ""
		if cfg != nil {
			configured = cfg.Gemini.APIKey
		}
	}

	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	if configured != "" {
		key := os.ExpandEnv(configured)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", fmt.Errorf("%w for provider %q (set %s)", ErrNoAPIKey, provider, envVar)
}

// MaskAPIKey returns a masked version of an API key for display.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where the API key for a provider was sourced from.
func GetAPIKeySource(cfg *Config, provider string) KeySource {
	envVar := "ANTHROPIC_API_KEY"
	configured := ""
	if cfg != nil {
		configured = cfg.Anthropic.APIKey
	}
	if provider == "gemini" {
		envVar = "GEMINI_API_KEY"
		configured = ""
		if cfg != nil {
			configured = cfg.Gemini.APIKey
		}
	}

	if os.Getenv(envVar) != "" {
		return KeySourceEnv
	}
	if configured != "" {
		return KeySourceConfig
	}
	return KeySourceNone
}
