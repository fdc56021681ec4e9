package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeplan/codeplan/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models per provider",
	Long: `List the model names codeplan knows about, grouped by provider.

Any model name the provider accepts works with --model; this list is
just the tested set.`,
	Run: func(cmd *cobra.Command, args []string) {
		known := llm.KnownModels()
		for _, provider := range []string{llm.ProviderAnthropic, llm.ProviderGemini} {
			fmt.Printf("%s:\n", provider)
			for _, model := range known[provider] {
				fmt.Printf("  %s\n", model)
			}
			fmt.Println()
		}
	},
}
