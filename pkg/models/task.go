package models

import "time"

// Priority represents how urgent a task is.
type Priority string

const (
	// PriorityLow indicates the task can wait.
	PriorityLow Priority = "low"
	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"
	// PriorityHigh indicates the task should be done early.
	PriorityHigh Priority = "high"
	// PriorityCritical indicates the task blocks everything else.
	PriorityCritical Priority = "critical"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Complexity represents how hard a task is expected to be.
type Complexity string

const (
	// ComplexitySimple indicates a trivial task.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate is the default complexity.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex indicates a task that may need further breakdown.
	ComplexityComplex Complexity = "complex"
	// ComplexityVeryComplex indicates a task that almost certainly needs breakdown.
	ComplexityVeryComplex Complexity = "very_complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityVeryComplex:
		return true
	default:
		return false
	}
}

// Score returns the numeric weight of the complexity on a 0-1 scale.
// Unknown values score as moderate.
func (c Complexity) Score() float64 {
	switch c {
	case ComplexitySimple:
		return 0.2
	case ComplexityModerate:
		return 0.4
	case ComplexityComplex:
		return 0.7
	case ComplexityVeryComplex:
		return 1.0
	default:
		return 0.4
	}
}

// Task is a node in a decomposition tree: a titled unit of work with
// priority, complexity, a time estimate, and dependencies on siblings.
// A task's children, if present, were produced by decomposing that task's
// description; dependencies reference only titles of sibling tasks.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description"`
	// Priority is the urgency level of the task.
	Priority Priority `json:"priority"`
	// Complexity is the expected difficulty of the task.
	Complexity Complexity `json:"complexity"`
	// EstimatedTime is a free-form time estimate such as "2 hours".
	EstimatedTime string `json:"estimated_time,omitempty"`
	// Dependencies lists titles of sibling tasks that must complete first.
	Dependencies []string `json:"dependencies,omitempty"`
	// Children holds the subtasks this task was decomposed into, in order.
	Children []*Task `json:"children,omitempty"`
	// Depth is the distance of this node from the root (root is 0).
	Depth int `json:"depth"`
	// CreatedAt is when the task node was created.
	CreatedAt time.Time `json:"created_at"`
}

// Leaf returns true if the task has no children.
func (t *Task) Leaf() bool {
	return len(t.Children) == 0
}

// Walk visits the task and every descendant in depth-first order.
func (t *Task) Walk(fn func(*Task)) {
	if t == nil {
		return
	}
	fn(t)
	for _, child := range t.Children {
		child.Walk(fn)
	}
}

// Count returns the total number of nodes in the subtree rooted at t.
func (t *Task) Count() int {
	if t == nil {
		return 0
	}
	n := 0
	t.Walk(func(*Task) { n++ })
	return n
}

// MaxDepth returns the largest Depth value in the subtree rooted at t.
func (t *Task) MaxDepth() int {
	if t == nil {
		return 0
	}
	max := t.Depth
	t.Walk(func(node *Task) {
		if node.Depth > max {
			max = node.Depth
		}
	})
	return max
}

// Descriptor names a recommended class, function, or module.
type Descriptor struct {
	// Name is the identifier of the recommended unit.
	Name string `json:"name"`
	// Description explains the unit's responsibility.
	Description string `json:"description,omitempty"`
}

// OrganizationAdvice holds code organization recommendations for a task tree.
type OrganizationAdvice struct {
	// FileStructure maps recommended file paths to their purpose.
	FileStructure map[string]string `json:"file_structure"`
	// Classes lists recommended classes or types.
	Classes []Descriptor `json:"classes,omitempty"`
	// Functions lists recommended top-level functions.
	Functions []Descriptor `json:"functions,omitempty"`
	// Modules lists recommended packages or modules.
	Modules []Descriptor `json:"modules,omitempty"`
	// DesignPatterns lists suggested design patterns.
	DesignPatterns []string `json:"design_patterns,omitempty"`
	// BestPractices lists practices to follow during implementation.
	BestPractices []string `json:"best_practices,omitempty"`
}

// Usage summarizes completion-service token consumption for one analysis.
type Usage struct {
	// InputTokens is the total prompt tokens sent.
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens is the total completion tokens received.
	OutputTokens int64 `json:"output_tokens"`
	// Calls is the number of completion-service requests made.
	Calls int `json:"calls"`
	// EstimatedCost is the approximate cost in USD.
	EstimatedCost float64 `json:"estimated_cost"`
}

// AnalysisResult is the complete output of a task analysis run.
type AnalysisResult struct {
	// OriginalTask is the task description the user supplied.
	OriginalTask string `json:"original_task"`
	// Root is the fully materialized decomposition tree.
	Root *Task `json:"root"`
	// Advice holds the code organization recommendations, if requested.
	Advice *OrganizationAdvice `json:"advice,omitempty"`
	// ComplexityScore is the overall complexity on a 0-1 scale.
	ComplexityScore float64 `json:"complexity_score"`
	// TotalEstimatedTime is the aggregated human-readable time estimate.
	TotalEstimatedTime string `json:"total_estimated_time"`
	// Recommendations lists general advice derived from the analysis.
	Recommendations []string `json:"recommendations,omitempty"`
	// Usage summarizes token consumption for the run.
	Usage Usage `json:"usage"`
	// Provider is the completion-service provider that produced the result.
	Provider string `json:"provider"`
	// Model is the model name that produced the result.
	Model string `json:"model"`
	// CreatedAt is when the analysis completed.
	CreatedAt time.Time `json:"created_at"`
}
