package decompose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/codeplan/codeplan/internal/llm"
	"github.com/codeplan/codeplan/pkg/models"
)

// fakeCompleter serves scripted responses, routing by system prompt so
// decomposition and classification calls consume separate queues. When a
// queue is exhausted the last response is repeated, which lets tests
// simulate a model that always answers the same way.
type fakeCompleter struct {
	mu             sync.Mutex
	decomposeQueue []string
	refineQueue    []string
	decomposeCalls int
	refineCalls    int
	failAll        error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll != nil {
		return "", f.failAll
	}

	if req.System == refinementSystem {
		f.refineCalls++
		return takeResponse(&f.refineQueue), nil
	}
	f.decomposeCalls++
	return takeResponse(&f.decomposeQueue), nil
}

func takeResponse(queue *[]string) string {
	if len(*queue) == 0 {
		return ""
	}
	resp := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return resp
}

func subtasksJSON(titles ...string) string {
	var entries []string
	for _, title := range titles {
		entries = append(entries, fmt.Sprintf(
			`{"title": %q, "description": "Implement %s", "priority": "medium", "complexity": "complex", "estimated_time": "2 hours", "dependencies": []}`,
			title, title))
	}
	return fmt.Sprintf(`{"subtasks": [%s]}`, strings.Join(entries, ","))
}

const refineNo = `{"needs_decomposition": false, "subtasks": []}`
const refineYes = `{"needs_decomposition": true, "subtasks": []}`

// treeShape flattens a tree into (depth, title) pairs for structural
// comparison.
func treeShape(root *models.Task) []string {
	var shape []string
	root.Walk(func(task *models.Task) {
		shape = append(shape, fmt.Sprintf("%d:%s", task.Depth, task.Title))
	})
	return shape
}

func TestDecomposeMaxDepthZero(t *testing.T) {
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("A", "B", "C")},
	}
	d := New(fake, Config{MaxDepth: 0}, nil)

	root, err := d.Decompose(context.Background(), "Build a web scraper")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if !root.Leaf() {
		t.Error("max depth 0 should produce a single-node tree")
	}
	if fake.decomposeCalls != 0 || fake.refineCalls != 0 {
		t.Errorf("max depth 0 should make no service calls, made %d/%d",
			fake.decomposeCalls, fake.refineCalls)
	}
	if root.Description != "Build a web scraper" {
		t.Errorf("root description = %q", root.Description)
	}
}

func TestDecomposeChildrenInResponseOrder(t *testing.T) {
	titles := []string{"First", "Second", "Third", "Fourth", "Fifth"}
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON(titles...)},
		refineQueue:    []string{refineNo},
	}
	d := New(fake, Config{MaxDepth: 2}, nil)

	root, err := d.Decompose(context.Background(), "Some task")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if len(root.Children) != len(titles) {
		t.Fatalf("expected %d children, got %d", len(titles), len(root.Children))
	}
	for i, title := range titles {
		if root.Children[i].Title != title {
			t.Errorf("child %d = %q, want %q", i, root.Children[i].Title, title)
		}
	}
}

func TestDecomposeScenarioNoFurtherBreakdown(t *testing.T) {
	// "Build a CLI tool that converts CSV to JSON", max_depth 2, three
	// subtasks at depth 1, none needing further decomposition.
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("Parse args", "Read CSV", "Write JSON")},
		refineQueue:    []string{refineNo},
	}
	d := New(fake, Config{MaxDepth: 2}, nil)

	root, err := d.Decompose(context.Background(), "Build a CLI tool that converts CSV to JSON")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if len(root.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(root.Children))
	}
	for _, child := range root.Children {
		if !child.Leaf() {
			t.Errorf("child %q should be a leaf, has %d children", child.Title, len(child.Children))
		}
	}
	if fake.refineCalls != 3 {
		t.Errorf("expected one classification call per subtask, got %d", fake.refineCalls)
	}
}

func TestDecomposeScenarioDepthLimitBlocksRecursion(t *testing.T) {
	// Same input, the service would report every subtask needs further
	// decomposition, but max_depth 1 keeps all three children leaves.
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("Parse args", "Read CSV", "Write JSON")},
		refineQueue:    []string{refineYes},
	}
	d := New(fake, Config{MaxDepth: 1}, nil)

	root, err := d.Decompose(context.Background(), "Build a CLI tool that converts CSV to JSON")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if len(root.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(root.Children))
	}
	for _, child := range root.Children {
		if !child.Leaf() {
			t.Errorf("depth limit should keep %q a leaf", child.Title)
		}
	}
	if fake.refineCalls != 0 {
		t.Errorf("no classification calls should be spent at the depth limit, got %d", fake.refineCalls)
	}
}

func TestDecomposeDepthNeverExceedsMaxDepth(t *testing.T) {
	// The model always wants more decomposition; recursion must stop at
	// max_depth regardless.
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("A", "B", "C")},
		refineQueue:    []string{refineYes},
	}
	d := New(fake, Config{MaxDepth: 3}, nil)

	root, err := d.Decompose(context.Background(), "Endlessly decomposable task")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if got := root.MaxDepth(); got != 3 {
		t.Errorf("tree max depth = %d, want exactly 3", got)
	}
	root.Walk(func(task *models.Task) {
		if task.Depth > 3 {
			t.Errorf("node %q at depth %d exceeds max depth 3", task.Title, task.Depth)
		}
	})
}

func TestDecomposeBooleanWinsOverReplacementList(t *testing.T) {
	// The model says "no" but still supplies subtasks: the boolean wins
	// and the replacement list is discarded.
	contradictory := `{"needs_decomposition": false, "subtasks": [
		{"title": "Ignored", "description": "Should not appear", "priority": "low", "complexity": "simple"}
	]}`
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("A", "B", "C")},
		refineQueue:    []string{contradictory},
	}
	d := New(fake, Config{MaxDepth: 3}, nil)

	root, err := d.Decompose(context.Background(), "Some task")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	for _, child := range root.Children {
		if !child.Leaf() {
			t.Errorf("child %q should be a leaf when needs_decomposition is false", child.Title)
		}
	}
}

func TestDecomposeReplacementListBecomesChildren(t *testing.T) {
	replacement := `{"needs_decomposition": true, "subtasks": [
		{"title": "Sub 1", "description": "First piece", "priority": "medium", "complexity": "simple"},
		{"title": "Sub 2", "description": "Second piece", "priority": "medium", "complexity": "simple"}
	]}`
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("A", "B", "C")},
		refineQueue:    []string{replacement},
	}
	d := New(fake, Config{MaxDepth: 3}, nil)

	root, err := d.Decompose(context.Background(), "Some task")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	first := root.Children[0]
	if len(first.Children) != 2 {
		t.Fatalf("expected 2 grandchildren from replacement list, got %d", len(first.Children))
	}
	if first.Children[0].Title != "Sub 1" || first.Children[1].Title != "Sub 2" {
		t.Errorf("grandchildren = %q, %q", first.Children[0].Title, first.Children[1].Title)
	}
	if first.Children[0].Depth != 2 {
		t.Errorf("grandchild depth = %d, want 2", first.Children[0].Depth)
	}
	// Only the root decomposition call was needed.
	if fake.decomposeCalls != 1 {
		t.Errorf("decompose calls = %d, want 1", fake.decomposeCalls)
	}
}

func TestDecomposeMalformedResponseFailsWholeTree(t *testing.T) {
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON("A", "B", "C")},
		refineQueue:    []string{"the model rambled instead of answering"},
	}
	d := New(fake, Config{MaxDepth: 2}, nil)

	root, err := d.Decompose(context.Background(), "Some task")
	if err == nil {
		t.Fatal("expected error from malformed classification response")
	}
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Errorf("error should wrap ErrMalformedResponse, got %v", err)
	}
	if root != nil {
		t.Error("no partial tree should be returned on failure")
	}
}

func TestDecomposeServiceErrorPropagates(t *testing.T) {
	fake := &fakeCompleter{
		failAll: fmt.Errorf("%w: connection reset", llm.ErrServiceUnavailable),
	}
	d := New(fake, Config{MaxDepth: 2}, nil)

	root, err := d.Decompose(context.Background(), "Some task")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, llm.ErrServiceUnavailable) {
		t.Errorf("error should wrap ErrServiceUnavailable, got %v", err)
	}
	if root != nil {
		t.Error("no tree should be returned on service failure")
	}
}

func TestDecomposeIdempotentUnderDeterministicResponses(t *testing.T) {
	script := func() *fakeCompleter {
		return &fakeCompleter{
			decomposeQueue: []string{
				subtasksJSON("A", "B", "C"),
				subtasksJSON("A1", "A2", "A3"),
			},
			refineQueue: []string{refineYes, refineNo},
		}
	}

	first, err := New(script(), Config{MaxDepth: 2}, nil).Decompose(context.Background(), "Some task")
	if err != nil {
		t.Fatalf("first Decompose failed: %v", err)
	}
	second, err := New(script(), Config{MaxDepth: 2}, nil).Decompose(context.Background(), "Some task")
	if err != nil {
		t.Fatalf("second Decompose failed: %v", err)
	}

	firstShape := treeShape(first)
	secondShape := treeShape(second)
	if len(firstShape) != len(secondShape) {
		t.Fatalf("tree sizes differ: %d vs %d", len(firstShape), len(secondShape))
	}
	for i := range firstShape {
		if firstShape[i] != secondShape[i] {
			t.Errorf("shape[%d]: %q vs %q", i, firstShape[i], secondShape[i])
		}
	}
}

func TestDecomposeParallelSiblingsPreserveOrder(t *testing.T) {
	titles := []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"}
	fake := &fakeCompleter{
		decomposeQueue: []string{subtasksJSON(titles...)},
		refineQueue:    []string{refineNo},
	}
	d := New(fake, Config{MaxDepth: 2, Parallelism: 4}, nil)

	root, err := d.Decompose(context.Background(), "Some task")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if len(root.Children) != len(titles) {
		t.Fatalf("expected %d children, got %d", len(titles), len(root.Children))
	}
	for i, title := range titles {
		if root.Children[i].Title != title {
			t.Errorf("child %d = %q, want %q", i, root.Children[i].Title, title)
		}
	}
}

func TestDecomposeEmptyDescription(t *testing.T) {
	d := New(&fakeCompleter{}, Config{MaxDepth: 2}, nil)
	if _, err := d.Decompose(context.Background(), "   "); err == nil {
		t.Error("expected error for empty description")
	}
}

func TestRootTitle(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"Build a CLI tool", "Build a CLI tool"},
		{"Build a thing. Then another.", "Build a thing"},
		{"Line one\nline two", "Line one"},
	}
	for _, tt := range tests {
		if got := rootTitle(tt.description); got != tt.want {
			t.Errorf("rootTitle(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}

	long := strings.Repeat("x", 200)
	if got := rootTitle(long); len(got) > 90 {
		t.Errorf("long title not truncated: %d chars", len(got))
	}
}
