package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeplan/codeplan/internal/history"
)

var (
	historyLimit    int
	historyShowJSON bool
	historyPurgeAge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved analyses",
	Long: `Browse analyses saved by previous runs.

Results are stored in a local SQLite database under the XDG data
directory. Use 'history show <id>' to re-render a saved analysis.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old analyses",
	RunE:  runHistoryPurge,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to list")
	historyShowCmd.Flags().BoolVar(&historyShowJSON, "json", false, "Emit the stored result as JSON")
	historyPurgeCmd.Flags().DurationVar(&historyPurgeAge, "older-than", 30*24*time.Hour, "Delete entries older than this")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, err := history.OpenDefault()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	entries, err := db.List(historyLimit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No saved analyses. Run 'codeplan analyze <task>' to create one.")
		return nil
	}

	for _, e := range entries {
		task := e.Task
		if len(task) > 60 {
			task = task[:57] + "..."
		}
		fmt.Printf("%s  %s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Printf("    %s\n", task)
		fmt.Printf("    %d nodes · complexity %.2f · %s · %s/%s\n",
			e.NodeCount, e.ComplexityScore, e.TotalTime, e.Provider, e.Model)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := history.OpenDefault()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	result, err := db.Get(args[0])
	if err != nil {
		return fmt.Errorf("load analysis %s: %w", args[0], err)
	}

	if historyShowJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderResult(os.Stdout, result)
	return nil
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	db, err := history.OpenDefault()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	n, err := db.Purge(historyPurgeAge)
	if err != nil {
		return fmt.Errorf("purge history: %w", err)
	}

	fmt.Printf("Deleted %d entries older than %s\n", n, historyPurgeAge)
	return nil
}
