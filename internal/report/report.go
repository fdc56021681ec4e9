// Package report assembles the final analysis result from a decomposition
// tree: overall complexity, aggregated time estimates, and general
// recommendations.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codeplan/codeplan/pkg/models"
)

// Build assembles an AnalysisResult for a finished run.
func Build(root *models.Task, advice *models.OrganizationAdvice, usage models.Usage, provider, model string) *models.AnalysisResult {
	score := ComplexityScore(root)
	return &models.AnalysisResult{
		OriginalTask:       root.Description,
		Root:               root,
		Advice:             advice,
		ComplexityScore:    score,
		TotalEstimatedTime: TotalEstimatedTime(root),
		Recommendations:    Recommendations(root, score),
		Usage:              usage,
		Provider:           provider,
		Model:              model,
		CreatedAt:          time.Now(),
	}
}

// ComplexityScore computes the overall complexity of a tree on a 0-1
// scale: a weighted average where decomposed tasks blend their own
// complexity with their children's and carry extra weight.
func ComplexityScore(root *models.Task) float64 {
	if root == nil {
		return 0
	}
	return scoreTasks(root.Children)
}

func scoreTasks(tasks []*models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}

	var totalScore float64
	var totalWeight float64

	for _, task := range tasks {
		score := task.Complexity.Score()
		weight := 1.0

		if len(task.Children) > 0 {
			score = (score + scoreTasks(task.Children)) / 2
			weight += float64(len(task.Children))
		}

		totalScore += score * weight
		totalWeight += weight
	}

	return totalScore / totalWeight
}

// Minutes per estimate unit: 8-hour days, 5-day weeks.
var timeUnits = []struct {
	unit    string
	minutes float64
}{
	{"minutes", 1},
	{"minute", 1},
	{"hours", 60},
	{"hour", 60},
	{"days", 480},
	{"day", 480},
	{"weeks", 2400},
	{"week", 2400},
}

// TotalEstimatedTime sums the free-form time estimates across the tree
// and renders a human-readable total. Returns "Not estimated" when no
// node carries a parseable estimate.
func TotalEstimatedTime(root *models.Task) string {
	var totalMinutes float64
	hasEstimates := false

	root.Walk(func(task *models.Task) {
		minutes, ok := parseEstimate(task.EstimatedTime)
		if ok {
			hasEstimates = true
			totalMinutes += minutes
		}
	})

	if !hasEstimates {
		return "Not estimated"
	}

	switch {
	case totalMinutes < 60:
		return fmt.Sprintf("%d minutes", int(totalMinutes))
	case totalMinutes < 480:
		return fmt.Sprintf("%.1f hours", totalMinutes/60)
	case totalMinutes < 2400:
		return fmt.Sprintf("%.1f days", totalMinutes/480)
	default:
		return fmt.Sprintf("%.1f weeks", totalMinutes/2400)
	}
}

// parseEstimate extracts minutes from estimates like "2 hours" or
// "1.5 days". Unparseable strings are skipped rather than failing the run.
func parseEstimate(estimate string) (float64, bool) {
	if estimate == "" {
		return 0, false
	}
	lower := strings.ToLower(estimate)

	for _, tu := range timeUnits {
		idx := strings.Index(lower, tu.unit)
		if idx == -1 {
			continue
		}
		fields := strings.Fields(lower[:idx])
		if len(fields) == 0 {
			continue
		}
		number, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		return number * tu.minutes, true
	}

	return 0, false
}

// Recommendations derives general advisory strings from the analysis.
func Recommendations(root *models.Task, complexityScore float64) []string {
	var recs []string

	switch {
	case complexityScore > 0.8:
		recs = append(recs,
			"Consider breaking down the most complex subtasks further before implementation",
			"Use a phased approach: implement core functionality first, then add features",
			"Implement comprehensive testing from the beginning")
	case complexityScore > 0.6:
		recs = append(recs,
			"Plan the architecture carefully before starting implementation",
			"Consider using established design patterns for complex components")
	default:
		recs = append(recs,
			"This project has moderate complexity; focus on clean, maintainable code")
	}

	var highPriority []string
	hasDependencies := false
	hasNested := false
	for _, task := range root.Children {
		if task.Priority == models.PriorityHigh || task.Priority == models.PriorityCritical {
			highPriority = append(highPriority, task.Title)
		}
		if len(task.Dependencies) > 0 {
			hasDependencies = true
		}
		if !task.Leaf() {
			hasNested = true
		}
	}

	if len(highPriority) > 0 {
		if len(highPriority) > 3 {
			highPriority = highPriority[:3]
		}
		recs = append(recs, fmt.Sprintf("Prioritize these high-priority tasks: %s", strings.Join(highPriority, ", ")))
	}
	if hasDependencies {
		recs = append(recs, "Pay attention to task dependencies; some tasks must be completed before others")
	}
	if hasNested {
		recs = append(recs, "Some tasks have been further decomposed; review their subtasks for detailed implementation steps")
	}

	return recs
}
