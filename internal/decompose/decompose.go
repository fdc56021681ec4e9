// Package decompose provides recursive coding-task decomposition backed by
// a completion service.
package decompose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codeplan/codeplan/internal/llm"
	"github.com/codeplan/codeplan/pkg/models"
)

// Config holds the parameters the decomposer needs. It is passed by value
// at construction time; there is no ambient global state.
type Config struct {
	// MaxDepth bounds the recursion. 0 produces a single-node tree.
	MaxDepth int
	// Parallelism bounds concurrent sibling refinement. 1 is sequential.
	Parallelism int
	// Temperature for completion calls.
	Temperature float64
	// MaxTokens caps each completion call.
	MaxTokens int
}

// Decomposer breaks a task description into a bounded tree of subtasks.
type Decomposer struct {
	completer llm.Completer
	cfg       Config
	logger    *zap.Logger
}

// New creates a Decomposer. A nil logger is replaced with a no-op logger.
func New(completer llm.Completer, cfg Config, logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Decomposer{completer: completer, cfg: cfg, logger: logger}
}

// Decompose builds a fully materialized task tree rooted at the given
// description. On any failure the whole call fails; no partial tree is
// returned.
func (d *Decomposer) Decompose(ctx context.Context, description string) (*models.Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("empty task description")
	}

	root := &models.Task{
		ID:          uuid.New().String(),
		Title:       rootTitle(description),
		Description: description,
		Priority:    models.PriorityMedium,
		Complexity:  models.ComplexityModerate,
		Depth:       0,
		CreatedAt:   time.Now(),
	}

	// MaxDepth 0 means the root is the entire tree; the completion
	// service is never consulted.
	if d.cfg.MaxDepth <= 0 {
		return root, nil
	}

	children, err := d.expand(ctx, description, 0)
	if err != nil {
		return nil, err
	}
	root.Children = children

	d.logger.Info("decomposition complete",
		zap.Int("nodes", root.Count()),
		zap.Int("max_depth", root.MaxDepth()))

	return root, nil
}

// expand decomposes one description into child nodes at depth+1,
// recursing where the classification call asks for it and the depth
// limit allows.
func (d *Decomposer) expand(ctx context.Context, description string, depth int) ([]*models.Task, error) {
	response, err := d.completer.Complete(ctx, llm.Request{
		System:      decompositionSystem,
		Prompt:      fmt.Sprintf(decompositionPrompt, description),
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("decompose at depth %d: %w", depth, err)
	}

	children, err := parseSubtasks(response, depth+1)
	if err != nil {
		return nil, fmt.Errorf("decompose at depth %d: %w", depth, err)
	}

	d.logger.Debug("decomposed task",
		zap.Int("depth", depth),
		zap.Int("subtasks", len(children)))

	// The depth limit terminates recursion unconditionally: children at
	// the limit stay leaves and no classification call is spent on them.
	if depth+1 >= d.cfg.MaxDepth {
		return children, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Parallelism)
	for i, child := range children {
		g.Go(func() error {
			grandchildren, err := d.refine(gctx, child, depth+1)
			if err != nil {
				return err
			}
			// Assign by index; sibling order is response order
			// regardless of completion order.
			children[i].Children = grandchildren
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return children, nil
}

// refine runs the classification query for one subtask and returns its
// children, which may be empty when the subtask is judged atomic.
//
// Precedence when the answer disagrees with itself: the boolean wins. A
// replacement list attached to a "false" answer is discarded; a "true"
// answer without a usable list triggers a full decomposition pass on the
// subtask's description.
func (d *Decomposer) refine(ctx context.Context, task *models.Task, depth int) ([]*models.Task, error) {
	response, err := d.completer.Complete(ctx, llm.Request{
		System:      refinementSystem,
		Prompt:      fmt.Sprintf(refinementPrompt, task.Title, task.Description, task.Complexity),
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("classify %q at depth %d: %w", task.Title, depth, err)
	}

	refinement, err := parseRefinement(response)
	if err != nil {
		return nil, fmt.Errorf("classify %q at depth %d: %w", task.Title, depth, err)
	}

	if !refinement.NeedsDecomposition {
		return nil, nil
	}

	if len(refinement.Subtasks) > 0 {
		grandchildren, err := convertSubtasks(refinement.Subtasks, depth+1)
		if err != nil {
			return nil, fmt.Errorf("classify %q at depth %d: %w", task.Title, depth, err)
		}
		return grandchildren, nil
	}

	return d.expand(ctx, task.Description, depth)
}

// rootTitle derives a short title from a task description.
func rootTitle(description string) string {
	title := strings.TrimSpace(description)
	if i := strings.IndexAny(title, "\n.!?"); i > 0 {
		title = title[:i]
	}
	const maxLen = 80
	if len(title) > maxLen {
		title = strings.TrimSpace(title[:maxLen]) + "..."
	}
	return title
}
