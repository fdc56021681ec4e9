package decompose

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeplan/codeplan/internal/llm"
	"github.com/codeplan/codeplan/pkg/models"
)

// rawSubtask is the JSON structure the completion service returns for a
// single subtask.
type rawSubtask struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	Complexity    string   `json:"complexity"`
	EstimatedTime string   `json:"estimated_time"`
	Dependencies  []string `json:"dependencies"`
}

// decompositionPayload is the top-level decomposition response.
type decompositionPayload struct {
	Subtasks []rawSubtask `json:"subtasks"`
}

// refinementPayload is the classification response for one subtask.
type refinementPayload struct {
	NeedsDecomposition bool         `json:"needs_decomposition"`
	Subtasks           []rawSubtask `json:"subtasks"`
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
		preview := response
		if len(preview) > 500 {
			preview = preview[:500] + "... (truncated)"
		}
		return "", fmt.Errorf("no JSON object found in response (got %d chars): %q", len(response), preview)
	}
	return response[start : end+1], nil
}

// parseSubtasks parses and validates a decomposition response, returning
// task nodes at the given depth. Any schema violation fails the whole
// parse; no partial subtask list is returned.
func parseSubtasks(response string, depth int) ([]*models.Task, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	var payload decompositionPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("%w: unmarshal decomposition: %v", llm.ErrMalformedResponse, err)
	}

	if len(payload.Subtasks) == 0 {
		return nil, fmt.Errorf("%w: empty subtask list", llm.ErrMalformedResponse)
	}

	return convertSubtasks(payload.Subtasks, depth)
}

// parseRefinement parses and validates a classification response.
func parseRefinement(response string) (*refinementPayload, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	var payload refinementPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("%w: unmarshal refinement: %v", llm.ErrMalformedResponse, err)
	}

	return &payload, nil
}

// convertSubtasks validates raw subtasks and converts them to task nodes
// in response order.
func convertSubtasks(raw []rawSubtask, depth int) ([]*models.Task, error) {
	titles := make(map[string]bool, len(raw))
	for _, rs := range raw {
		titles[rs.Title] = true
	}

	now := time.Now()
	tasks := make([]*models.Task, len(raw))
	for i, rs := range raw {
		if strings.TrimSpace(rs.Title) == "" {
			return nil, fmt.Errorf("%w: subtask %d missing title", llm.ErrMalformedResponse, i)
		}
		if strings.TrimSpace(rs.Description) == "" {
			return nil, fmt.Errorf("%w: subtask %q missing description", llm.ErrMalformedResponse, rs.Title)
		}

		priority := models.Priority(strings.ToLower(rs.Priority))
		if rs.Priority == "" {
			priority = models.PriorityMedium
		} else if !priority.Valid() {
			return nil, fmt.Errorf("%w: subtask %q has unknown priority %q", llm.ErrMalformedResponse, rs.Title, rs.Priority)
		}

		complexity := models.Complexity(strings.ToLower(rs.Complexity))
		if rs.Complexity == "" {
			complexity = models.ComplexityModerate
		} else if !complexity.Valid() {
			return nil, fmt.Errorf("%w: subtask %q has unknown complexity %q", llm.ErrMalformedResponse, rs.Title, rs.Complexity)
		}

		// Dependencies reference sibling titles only.
		for _, dep := range rs.Dependencies {
			if !titles[dep] {
				return nil, fmt.Errorf("%w: subtask %q depends on unknown sibling %q", llm.ErrMalformedResponse, rs.Title, dep)
			}
			if dep == rs.Title {
				return nil, fmt.Errorf("%w: subtask %q depends on itself", llm.ErrMalformedResponse, rs.Title)
			}
		}

		tasks[i] = &models.Task{
			ID:            uuid.New().String(),
			Title:         rs.Title,
			Description:   rs.Description,
			Priority:      priority,
			Complexity:    complexity,
			EstimatedTime: rs.EstimatedTime,
			Dependencies:  rs.Dependencies,
			Depth:         depth,
			CreatedAt:     now,
		}
	}

	return tasks, nil
}
