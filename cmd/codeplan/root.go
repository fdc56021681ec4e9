package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "codeplan",
	Short: "Recursive coding-task planner",
	Long: `Codeplan breaks a coding task into a tree of subtasks using a hosted
LLM completion service, then asks it for code organization advice.

Each subtask carries a priority, complexity, time estimate, and
dependencies on its siblings. Subtasks judged too large are decomposed
recursively, down to a configurable depth limit.

Supported providers: anthropic (direct API or AWS Bedrock) and gemini.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildLogger returns the CLI logger: verbose in debug mode, silent
// otherwise so normal output stays clean.
func buildLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
