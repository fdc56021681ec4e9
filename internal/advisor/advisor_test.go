package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codeplan/codeplan/internal/llm"
	"github.com/codeplan/codeplan/pkg/models"
)

type stubCompleter struct {
	response string
	err      error
	lastReq  llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testTree() *models.Task {
	return &models.Task{
		Title:       "Build a CSV converter",
		Description: "Build a CLI tool that converts CSV to JSON",
		Children: []*models.Task{
			{
				Title:       "Parse CSV",
				Description: "Read and parse input",
				Priority:    models.PriorityHigh,
				Complexity:  models.ComplexityModerate,
				Depth:       1,
			},
			{
				Title:       "Emit JSON",
				Description: "Serialize rows",
				Priority:    models.PriorityMedium,
				Complexity:  models.ComplexitySimple,
				Depth:       1,
				Children: []*models.Task{
					{Title: "Escape strings", Description: "Handle quoting", Depth: 2},
				},
			},
		},
	}
}

const validAdvice = `{
	"file_structure": {"cmd/convert/main.go": "CLI entry point", "internal/csv/reader.go": "CSV parsing"},
	"classes": [{"name": "Reader", "description": "streams CSV records"}],
	"functions": [{"name": "Convert", "description": "drives the conversion"}],
	"modules": [{"name": "csv", "description": "input handling"}],
	"design_patterns": ["pipeline"],
	"best_practices": ["validate input early"]
}`

func TestAdvise(t *testing.T) {
	stub := &stubCompleter{response: validAdvice}
	a := New(stub, 0.3, 2000, nil)

	advice, err := a.Advise(context.Background(), testTree())
	if err != nil {
		t.Fatalf("Advise failed: %v", err)
	}

	if len(advice.FileStructure) != 2 {
		t.Errorf("file structure entries = %d, want 2", len(advice.FileStructure))
	}
	if len(advice.Classes) != 1 || advice.Classes[0].Name != "Reader" {
		t.Errorf("classes = %+v", advice.Classes)
	}
	if len(advice.BestPractices) != 1 {
		t.Errorf("best practices = %v", advice.BestPractices)
	}
}

func TestAdvisePromptIncludesTree(t *testing.T) {
	stub := &stubCompleter{response: validAdvice}
	a := New(stub, 0.3, 2000, nil)

	if _, err := a.Advise(context.Background(), testTree()); err != nil {
		t.Fatalf("Advise failed: %v", err)
	}

	prompt := stub.lastReq.Prompt
	for _, want := range []string{"Build a CLI tool that converts CSV to JSON", "Parse CSV", "Escape strings"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should mention %q", want)
		}
	}
}

func TestAdviseMalformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose only", "I recommend a clean architecture."},
		{"invalid JSON", `{"file_structure": `},
		{"missing file structure", `{"classes": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&stubCompleter{response: tt.response}, 0.3, 2000, nil)
			advice, err := a.Advise(context.Background(), testTree())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, llm.ErrMalformedResponse) {
				t.Errorf("error should wrap ErrMalformedResponse, got %v", err)
			}
			if advice != nil {
				t.Error("no partial advice should be returned")
			}
		})
	}
}

func TestAdviseServiceError(t *testing.T) {
	stub := &stubCompleter{err: errors.Join(llm.ErrServiceUnavailable)}
	a := New(stub, 0.3, 2000, nil)

	if _, err := a.Advise(context.Background(), testTree()); !errors.Is(err, llm.ErrServiceUnavailable) {
		t.Errorf("error should wrap ErrServiceUnavailable, got %v", err)
	}
}

func TestAdviseNilTree(t *testing.T) {
	a := New(&stubCompleter{response: validAdvice}, 0.3, 2000, nil)
	if _, err := a.Advise(context.Background(), nil); err == nil {
		t.Error("expected error for nil tree")
	}
}
