package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeplan/codeplan/internal/config"
	"github.com/codeplan/codeplan/internal/llm"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify codeplan configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/codeplan/config.yaml
Project-specific overrides can be placed in .codeplan.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("provider: %s\n", cfg.Provider)
	fmt.Printf("model: %s\n", cfg.Model)
	fmt.Printf("analysis.max_depth: %d\n", cfg.Analysis.MaxDepth)
	fmt.Printf("analysis.parallelism: %d\n", cfg.Analysis.Parallelism)
	fmt.Printf("analysis.temperature: %g\n", cfg.Analysis.Temperature)
	fmt.Printf("analysis.max_tokens: %d\n", cfg.Analysis.MaxTokens)
	fmt.Printf("anthropic.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey),
		config.GetAPIKeySource(cfg, llm.ProviderAnthropic))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("gemini.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Gemini.APIKey),
		config.GetAPIKeySource(cfg, llm.ProviderGemini))
	fmt.Printf("debug: %t\n", cfg.Debug)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the user config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "provider":
		return cfg.Provider, nil
	case "model":
		return cfg.Model, nil
	case "analysis.max_depth":
		return strconv.Itoa(cfg.Analysis.MaxDepth), nil
	case "analysis.parallelism":
		return strconv.Itoa(cfg.Analysis.Parallelism), nil
	case "analysis.temperature":
		return strconv.FormatFloat(cfg.Analysis.Temperature, 'g', -1, 64), nil
	case "analysis.max_tokens":
		return strconv.Itoa(cfg.Analysis.MaxTokens), nil
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "gemini.api_key":
		return config.MaskAPIKey(cfg.Gemini.APIKey), nil
	case "debug":
		return strconv.FormatBool(cfg.Debug), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue updates a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "provider":
		if value != llm.ProviderAnthropic && value != llm.ProviderGemini {
			return fmt.Errorf("provider must be %q or %q", llm.ProviderAnthropic, llm.ProviderGemini)
		}
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "analysis.max_depth":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("analysis.max_depth must be a non-negative integer")
		}
		cfg.Analysis.MaxDepth = n
	case "analysis.parallelism":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("analysis.parallelism must be a positive integer")
		}
		cfg.Analysis.Parallelism = n
	case "analysis.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("analysis.temperature must be a number between 0 and 1")
		}
		cfg.Analysis.Temperature = f
	case "analysis.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("analysis.max_tokens must be a positive integer")
		}
		cfg.Analysis.MaxTokens = n
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("anthropic.use_bedrock must be true or false")
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "gemini.api_key":
		cfg.Gemini.APIKey = value
	case "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("debug must be true or false")
		}
		cfg.Debug = b
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
