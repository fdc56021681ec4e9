package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codeplan/codeplan/internal/advisor"
	"github.com/codeplan/codeplan/internal/config"
	"github.com/codeplan/codeplan/internal/decompose"
	"github.com/codeplan/codeplan/internal/history"
	"github.com/codeplan/codeplan/internal/llm"
	"github.com/codeplan/codeplan/internal/report"
	"github.com/codeplan/codeplan/pkg/models"
)

var (
	analyzeDepth    int
	analyzeProvider string
	analyzeModel    string
	analyzeParallel int
	analyzeJSON     bool
	analyzeNoAdvice bool
	analyzeNoSave   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <task>",
	Short: "Decompose a coding task into a subtask tree",
	Long: `Analyze a coding task: break it into a tree of subtasks with
priorities, complexities, time estimates, and sibling dependencies,
then ask for code organization advice.

Subtasks judged too large are decomposed further, down to the depth
limit. Results are saved to local history unless --no-save is given.

Examples:
  codeplan analyze "Build a JSON-to-CSV converter CLI"
  codeplan analyze --depth 2 --model gemini-2.0-flash "Add OAuth login"
  codeplan analyze --json "Migrate the user store to Postgres" > plan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", -1, "Maximum decomposition depth (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "Provider: anthropic or gemini (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Model name (overrides config)")
	analyzeCmd.Flags().IntVar(&analyzeParallel, "parallel", 0, "Concurrent sibling refinement calls (overrides config)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Emit the full result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoAdvice, "no-advice", false, "Skip the code organization advice call")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "Do not record the result in history")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	description := strings.TrimSpace(args[0])
	if description == "" {
		return fmt.Errorf("task description is empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyAnalyzeOverrides(cfg)

	logger := buildLogger(debugFlag || cfg.Debug)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	set, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	provider := cfg.Provider
	if provider == "" {
		provider = llm.DetectProvider(set.model)
	}

	if !analyzeJSON {
		fmt.Printf("Analyzing with %s (%s), depth %d...\n\n", provider, set.model, cfg.Analysis.MaxDepth)
	}

	d := decompose.New(set.completer, decompose.Config{
		MaxDepth:    cfg.Analysis.MaxDepth,
		Parallelism: cfg.Analysis.Parallelism,
		Temperature: cfg.Analysis.Temperature,
		MaxTokens:   cfg.Analysis.MaxTokens,
	}, logger)

	root, err := d.Decompose(ctx, description)
	if err != nil {
		return fmt.Errorf("decompose task: %w", err)
	}

	var advice *models.OrganizationAdvice
	if !analyzeNoAdvice {
		a := advisor.New(set.completer, cfg.Analysis.Temperature, cfg.Analysis.MaxTokens, logger)
		advice, err = a.Advise(ctx, root)
		if err != nil {
			// Advice is supplementary; the tree is still worth reporting.
			logger.Warn("organization advice failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "Warning: code organization advice unavailable: %v\n", err)
			advice = nil
		}
	}

	result := report.Build(root, advice, set.tracker.Usage(), provider, set.model)

	if !analyzeNoSave {
		if err := saveToHistory(result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save to history: %v\n", err)
		}
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderResult(os.Stdout, result)
	return nil
}

// applyAnalyzeOverrides folds command-line flags into the loaded config.
func applyAnalyzeOverrides(cfg *config.Config) {
	if analyzeDepth >= 0 {
		cfg.Analysis.MaxDepth = analyzeDepth
	}
	if analyzeProvider != "" {
		cfg.Provider = analyzeProvider
	}
	if analyzeModel != "" {
		cfg.Model = analyzeModel
	}
	if analyzeParallel > 0 {
		cfg.Analysis.Parallelism = analyzeParallel
	}
}

func saveToHistory(result *models.AnalysisResult) error {
	db, err := history.OpenDefault()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Save(result)
	return err
}
