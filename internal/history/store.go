package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeplan/codeplan/pkg/models"
)

// Entry is one stored analysis, with the full result available on demand.
type Entry struct {
	// ID is the unique identifier of the stored analysis.
	ID string
	// Task is the original task description.
	Task string
	// Provider and Model identify what produced the result.
	Provider string
	Model    string
	// NodeCount is the number of nodes in the stored tree.
	NodeCount int
	// ComplexityScore is the overall complexity of the stored tree.
	ComplexityScore float64
	// TotalTime is the aggregated time estimate.
	TotalTime string
	// CreatedAt is when the analysis completed.
	CreatedAt time.Time
}

// Save stores a completed analysis and returns its ID.
func (db *DB) Save(result *models.AnalysisResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	id := uuid.New().String()

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err = db.conn.Exec(`
		INSERT INTO analyses (id, task, provider, model, node_count, complexity_score, total_time, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, result.OriginalTask, result.Provider, result.Model,
		result.Root.Count(), result.ComplexityScore, result.TotalEstimatedTime,
		string(payload), formatTime(result.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert analysis: %w", err)
	}

	return id, nil
}

// List returns the most recent analyses, newest first.
func (db *DB) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	rows, err := db.conn.Query(`
		SELECT id, task, provider, model, node_count, complexity_score, COALESCE(total_time, ''), created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Task, &e.Provider, &e.Model, &e.NodeCount, &e.ComplexityScore, &e.TotalTime, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		e.CreatedAt, _ = parseTime(createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Get loads the full stored result for an analysis ID.
func (db *DB) Get(id string) (*models.AnalysisResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var payload string
	row := db.conn.QueryRow("SELECT result_json FROM analyses WHERE id = ?", id)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("analysis %q not found", id)
		}
		return nil, fmt.Errorf("load analysis: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	return &result, nil
}

// Purge deletes analyses older than the given duration. Returns the
// number of rows deleted.
func (db *DB) Purge(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	db.mu.Lock()
	defer db.mu.Unlock()
	result, err := db.conn.Exec("DELETE FROM analyses WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge analyses: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return count, nil
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
