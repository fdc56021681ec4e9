// Package advisor asks the completion service for code organization
// recommendations over a finished decomposition tree.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/codeplan/codeplan/internal/llm"
	"github.com/codeplan/codeplan/pkg/models"
)

const organizationSystem = `You are an expert software architect. You recommend file, class, and function structure for coding projects and always answer with valid JSON.`

const organizationPrompt = `Recommend a code organization for the following project.

Original task:
%s

Subtask breakdown:
%s

Return ONLY a JSON object with this exact structure (no other text):
{
  "file_structure": {"path/to/file.ext": "what this file contains"},
  "classes": [{"name": "ClassName", "description": "responsibility"}],
  "functions": [{"name": "functionName", "description": "responsibility"}],
  "modules": [{"name": "modulename", "description": "responsibility"}],
  "design_patterns": ["pattern name"],
  "best_practices": ["practice to follow"]
}`

// Advisor generates code organization advice for a task tree. It holds no
// state beyond its collaborators; one prompt in, one structured record out.
type Advisor struct {
	completer   llm.Completer
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// New creates an Advisor. A nil logger is replaced with a no-op logger.
func New(completer llm.Completer, temperature float64, maxTokens int, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		completer:   completer,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Advise sends one summarizing prompt over the tree and returns the parsed
// recommendations. A malformed payload fails the call; no fields are
// salvaged.
func (a *Advisor) Advise(ctx context.Context, root *models.Task) (*models.OrganizationAdvice, error) {
	if root == nil {
		return nil, fmt.Errorf("nil task tree")
	}

	response, err := a.completer.Complete(ctx, llm.Request{
		System:      organizationSystem,
		Prompt:      fmt.Sprintf(organizationPrompt, root.Description, summarize(root)),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("organization advice: %w", err)
	}

	advice, err := parseAdvice(response)
	if err != nil {
		return nil, fmt.Errorf("organization advice: %w", err)
	}

	a.logger.Debug("organization advice generated",
		zap.Int("files", len(advice.FileStructure)),
		zap.Int("classes", len(advice.Classes)))

	return advice, nil
}

// summarize renders the tree as an indented listing for the prompt.
func summarize(root *models.Task) string {
	var sb strings.Builder
	for i, child := range root.Children {
		writeSummary(&sb, child, i+1, 0)
	}
	if sb.Len() == 0 {
		sb.WriteString("(no subtasks; the task was judged atomic)")
	}
	return sb.String()
}

func writeSummary(sb *strings.Builder, task *models.Task, ordinal, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%s%d. %s [%s, %s]\n", pad, ordinal, task.Title, task.Priority, task.Complexity)
	fmt.Fprintf(sb, "%s   %s\n", pad, task.Description)
	for i, child := range task.Children {
		writeSummary(sb, child, i+1, indent+1)
	}
}

// parseAdvice parses and validates the advice payload.
func parseAdvice(response string) (*models.OrganizationAdvice, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	var advice models.OrganizationAdvice
	if err := json.Unmarshal([]byte(jsonStr), &advice); err != nil {
		return nil, fmt.Errorf("%w: unmarshal advice: %v", llm.ErrMalformedResponse, err)
	}

	if len(advice.FileStructure) == 0 {
		return nil, fmt.Errorf("%w: advice missing file_structure", llm.ErrMalformedResponse)
	}

	return &advice, nil
}

// extractJSON pulls the JSON object out of a model response, tolerating
// markdown fences and surrounding prose.
func extractJSON(response string) (string, error) {
	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response (%d chars)", len(response))
	}
	return response[start : end+1], nil
}
