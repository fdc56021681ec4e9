package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/codeplan/codeplan/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult(task string, createdAt time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		OriginalTask: task,
		Root: &models.Task{
			ID:          "root",
			Title:       task,
			Description: task,
			Children: []*models.Task{
				{ID: "c1", Title: "Step 1", Description: "First step", Depth: 1},
				{ID: "c2", Title: "Step 2", Description: "Second step", Depth: 1},
			},
		},
		ComplexityScore:    0.4,
		TotalEstimatedTime: "3.0 hours",
		Provider:           "anthropic",
		Model:              "claude-sonnet-4-20250514",
		CreatedAt:          createdAt,
	}
}

func TestSaveAndGet(t *testing.T) {
	db := openTestDB(t)

	id, err := db.Save(sampleResult("Build a parser", time.Now()))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty ID")
	}

	result, err := db.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if result.OriginalTask != "Build a parser" {
		t.Errorf("OriginalTask = %q", result.OriginalTask)
	}
	if result.Root.Count() != 3 {
		t.Errorf("restored tree has %d nodes, want 3", result.Root.Count())
	}
	if result.Root.Children[0].Title != "Step 1" {
		t.Errorf("child order not preserved: %q", result.Root.Children[0].Title)
	}
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Get("no-such-id"); err == nil {
		t.Error("expected error for unknown ID")
	}
}

func TestListNewestFirst(t *testing.T) {
	db := openTestDB(t)

	now := time.Now()
	for i, task := range []string{"oldest", "middle", "newest"} {
		r := sampleResult(task, now.Add(time.Duration(i)*time.Hour))
		if _, err := db.Save(r); err != nil {
			t.Fatalf("Save %q failed: %v", task, err)
		}
	}

	entries, err := db.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(entries))
	}
	if entries[0].Task != "newest" || entries[2].Task != "oldest" {
		t.Errorf("entries not newest-first: %q, %q, %q", entries[0].Task, entries[1].Task, entries[2].Task)
	}
	if entries[0].NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", entries[0].NodeCount)
	}
}

func TestListLimit(t *testing.T) {
	db := openTestDB(t)

	now := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := db.Save(sampleResult("task", now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := db.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List(2) returned %d entries", len(entries))
	}
}

func TestPurge(t *testing.T) {
	db := openTestDB(t)

	old := sampleResult("ancient", time.Now().Add(-48*time.Hour))
	recent := sampleResult("recent", time.Now())
	if _, err := db.Save(old); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := db.Save(recent); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deleted, err := db.Purge(24 * time.Hour)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Purge deleted %d rows, want 1", deleted)
	}

	entries, err := db.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Task != "recent" {
		t.Errorf("remaining entries = %+v", entries)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	db.Close()

	// Reopening runs migrations again; they must be no-ops.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	db.Close()
}
