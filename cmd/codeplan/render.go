package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/codeplan/codeplan/pkg/models"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	titleColor    = color.New(color.Bold)
	dimColor      = color.New(color.Faint)
	priorityColor = map[models.Priority]*color.Color{
		models.PriorityLow:      color.New(color.FgHiBlack),
		models.PriorityMedium:   color.New(color.FgBlue),
		models.PriorityHigh:     color.New(color.FgYellow),
		models.PriorityCritical: color.New(color.FgRed, color.Bold),
	}
)

// renderResult writes a human-readable analysis to w.
func renderResult(w io.Writer, result *models.AnalysisResult) {
	headerColor.Fprintln(w, "Task Breakdown")
	fmt.Fprintln(w)
	renderTask(w, result.Root, "", true)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Overall complexity: %s\n", complexityLabel(result.ComplexityScore))
	fmt.Fprintf(w, "Total estimated time: %s\n", result.TotalEstimatedTime)
	fmt.Fprintln(w)

	if len(result.Recommendations) > 0 {
		headerColor.Fprintln(w, "Recommendations")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
		fmt.Fprintln(w)
	}

	if result.Advice != nil {
		renderAdvice(w, result.Advice)
	}

	dimColor.Fprintf(w, "%s/%s · %d calls · %d in / %d out tokens · ~$%.4f\n",
		result.Provider, result.Model,
		result.Usage.Calls, result.Usage.InputTokens, result.Usage.OutputTokens,
		result.Usage.EstimatedCost)
}

// renderTask prints one node and recurses into its children with
// box-drawing connectors.
func renderTask(w io.Writer, task *models.Task, prefix string, last bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}
	if prefix == "" && last {
		// Root node sits flush left.
		connector = ""
		childPrefix = ""
	}

	fmt.Fprintf(w, "%s%s%s %s\n", prefix, connector,
		titleColor.Sprint(task.Title), taskBadge(task))
	if len(task.Dependencies) > 0 {
		dimColor.Fprintf(w, "%sdepends on: %s\n", childPrefix,
			strings.Join(task.Dependencies, ", "))
	}

	for i, child := range task.Children {
		renderTask(w, child, childPrefix, i == len(task.Children)-1)
	}
}

// taskBadge renders the priority/complexity/estimate suffix for a node.
func taskBadge(task *models.Task) string {
	pc, ok := priorityColor[task.Priority]
	if !ok {
		pc = color.New(color.FgWhite)
	}
	parts := []string{
		pc.Sprint(string(task.Priority)),
		string(task.Complexity),
	}
	if task.EstimatedTime != "" {
		parts = append(parts, task.EstimatedTime)
	}
	return dimColor.Sprint("[") + strings.Join(parts, dimColor.Sprint(" · ")) + dimColor.Sprint("]")
}

func complexityLabel(score float64) string {
	switch {
	case score > 0.8:
		return color.RedString("%.2f (very complex)", score)
	case score > 0.6:
		return color.YellowString("%.2f (complex)", score)
	case score > 0.4:
		return color.BlueString("%.2f (moderate)", score)
	default:
		return color.GreenString("%.2f (simple)", score)
	}
}

// renderAdvice prints the code organization recommendations.
func renderAdvice(w io.Writer, advice *models.OrganizationAdvice) {
	headerColor.Fprintln(w, "Code Organization")

	if len(advice.FileStructure) > 0 {
		fmt.Fprintln(w, "  Files:")
		paths := make([]string, 0, len(advice.FileStructure))
		for path := range advice.FileStructure {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			fmt.Fprintf(w, "    %s  %s\n", titleColor.Sprint(path),
				dimColor.Sprint(advice.FileStructure[path]))
		}
	}

	renderDescriptors(w, "Modules", advice.Modules)
	renderDescriptors(w, "Classes", advice.Classes)
	renderDescriptors(w, "Functions", advice.Functions)

	if len(advice.DesignPatterns) > 0 {
		fmt.Fprintf(w, "  Patterns: %s\n", strings.Join(advice.DesignPatterns, ", "))
	}
	if len(advice.BestPractices) > 0 {
		fmt.Fprintln(w, "  Practices:")
		for _, p := range advice.BestPractices {
			fmt.Fprintf(w, "    - %s\n", p)
		}
	}
	fmt.Fprintln(w)
}

func renderDescriptors(w io.Writer, label string, items []models.Descriptor) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", label)
	for _, item := range items {
		if item.Description != "" {
			fmt.Fprintf(w, "    %s  %s\n", titleColor.Sprint(item.Name),
				dimColor.Sprint(item.Description))
		} else {
			fmt.Fprintf(w, "    %s\n", titleColor.Sprint(item.Name))
		}
	}
}
