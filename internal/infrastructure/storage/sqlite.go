// Package storage persists the activity history, automation catalog,
// and suggestion records in a CGO-free SQLite database.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// Database wraps the activity tracker's SQLite store.
type Database struct {
	db     *sql.DB
	logger *logging.Logger
}

// New opens (or creates) the database at path and ensures the schema
// exists.
func New(path string, logger *logging.Logger) (*Database, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database opened", zap.String("path", path))
	return &Database{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS activity_logs(
	  id            INTEGER PRIMARY KEY,
	  ts_utc        INTEGER NOT NULL,
	  ts_iso        TEXT    NOT NULL,
	  activity_type TEXT    NOT NULL,
	  description   TEXT,
	  data_json     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_activity_ts   ON activity_logs(ts_utc);
	CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_logs(activity_type);

	CREATE TABLE IF NOT EXISTS automation_tasks(
	  name            TEXT PRIMARY KEY,
	  description     TEXT,
	  created_at      INTEGER NOT NULL,
	  last_executed   INTEGER,
	  execution_count INTEGER NOT NULL DEFAULT 0,
	  is_active       INTEGER NOT NULL DEFAULT 1,
	  steps_json      TEXT    NOT NULL CHECK (json_valid(steps_json))
	);

	CREATE TABLE IF NOT EXISTS automation_suggestions(
	  id             TEXT PRIMARY KEY,
	  type           TEXT    NOT NULL,
	  description    TEXT,
	  created_at     INTEGER NOT NULL,
	  confidence     REAL    NOT NULL DEFAULT 0,
	  pattern_json   TEXT    CHECK (json_valid(pattern_json)),
	  is_dismissed   INTEGER NOT NULL DEFAULT 0,
	  is_implemented INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_suggestions_created ON automation_suggestions(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (d *Database) Close() error {
	return d.db.Close()
}

// LogActivity inserts one activity log row and returns its ID.
func (d *Database) LogActivity(activityType, description, dataJSON string, at time.Time) (int64, error) {
	if activityType == "" {
		return 0, fmt.Errorf("activity type cannot be empty")
	}
	if dataJSON == "" {
		dataJSON = "{}"
	}
	res, err := d.db.Exec(
		`INSERT INTO activity_logs(ts_utc, ts_iso, activity_type, description, data_json) VALUES(?,?,?,?,json(?))`,
		at.Unix(), at.UTC().Format(time.RFC3339), activityType, description, dataJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to log activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read activity id: %w", err)
	}
	return id, nil
}

// RecentActivities returns the newest activity rows, limit at most.
func (d *Database) RecentActivities(limit int) ([]types.ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT id, ts_utc, activity_type, description, data_json
		 FROM activity_logs ORDER BY ts_utc DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []types.ActivityRecord
	for rows.Next() {
		var (
			rec         types.ActivityRecord
			ts          int64
			description sql.NullString
			data        sql.NullString
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Type, &description, &data); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.Description = description.String
		rec.Data = data.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveAutomationTask upserts an automation's catalog row. Steps are
// stored as a JSON document.
func (d *Database) SaveAutomationTask(a *types.Automation) error {
	steps, err := json.Marshal(a.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal automation steps: %w", err)
	}
	var lastExecuted any
	if a.LastExecuted != nil {
		lastExecuted = a.LastExecuted.Unix()
	}
	_, err = d.db.Exec(
		`INSERT INTO automation_tasks(name, created_at, last_executed, execution_count, is_active, steps_json)
		 VALUES(?,?,?,?,1,json(?))
		 ON CONFLICT(name) DO UPDATE SET
		   last_executed   = excluded.last_executed,
		   execution_count = excluded.execution_count,
		   is_active       = 1,
		   steps_json      = excluded.steps_json`,
		a.Name, a.Created.Unix(), lastExecuted, a.ExecutionCount, string(steps),
	)
	if err != nil {
		return fmt.Errorf("failed to save automation task: %w", err)
	}
	return nil
}

// RecordExecution bumps an automation's execution counter and logs an
// activity row, in one transaction.
func (d *Database) RecordExecution(name string) error {
	now := time.Now()
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	res, err := tx.Exec(
		`UPDATE automation_tasks SET execution_count = execution_count + 1, last_executed = ? WHERE name = ?`,
		now.Unix(), name,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update automation task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("automation task %q not found", name)
	}
	_, err = tx.Exec(
		`INSERT INTO activity_logs(ts_utc, ts_iso, activity_type, description, data_json) VALUES(?,?,?,?,json(?))`,
		now.Unix(), now.UTC().Format(time.RFC3339), "automation",
		fmt.Sprintf("Executed automation: %s", name), "{}",
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to log automation execution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeactivateAutomationTask soft-deletes the catalog row. The history
// of past executions stays queryable.
func (d *Database) DeactivateAutomationTask(name string) error {
	res, err := d.db.Exec(`UPDATE automation_tasks SET is_active = 0 WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to deactivate automation task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("automation task %q not found", name)
	}
	return nil
}

// AutomationTaskCount returns the number of active catalog rows.
func (d *Database) AutomationTaskCount() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM automation_tasks WHERE is_active = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count automation tasks: %w", err)
	}
	return n, nil
}

// SaveSuggestion upserts a suggestion record. The full suggestion is
// kept as a JSON document; dismissal flags live in their own columns
// so they survive re-detection.
func (d *Database) SaveSuggestion(s types.Suggestion) error {
	pattern, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO automation_suggestions(id, type, description, created_at, confidence, pattern_json, is_dismissed, is_implemented)
		 VALUES(?,?,?,?,?,json(?),?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   confidence   = excluded.confidence,
		   pattern_json = excluded.pattern_json`,
		s.ID, string(s.Type), s.Description, s.CreatedAt.Unix(), s.Confidence,
		string(pattern), boolToInt(s.Dismissed), boolToInt(s.Implemented),
	)
	if err != nil {
		return fmt.Errorf("failed to save suggestion: %w", err)
	}
	return nil
}

// ListSuggestions returns persisted suggestions, newest first.
// Dismissed and implemented rows are excluded unless includeSettled.
func (d *Database) ListSuggestions(includeSettled bool) ([]types.Suggestion, error) {
	query := `SELECT pattern_json, is_dismissed, is_implemented FROM automation_suggestions`
	if !includeSettled {
		query += ` WHERE is_dismissed = 0 AND is_implemented = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var out []types.Suggestion
	for rows.Next() {
		var (
			pattern     string
			dismissed   int
			implemented int
		)
		if err := rows.Scan(&pattern, &dismissed, &implemented); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		var s types.Suggestion
		if err := json.Unmarshal([]byte(pattern), &s); err != nil {
			d.logger.Error("Skipping malformed suggestion row", zap.Error(err))
			continue
		}
		s.Dismissed = dismissed != 0
		s.Implemented = implemented != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetSuggestionDismissed marks the suggestion row dismissed.
func (d *Database) SetSuggestionDismissed(id string) error {
	return d.setSuggestionFlag(id, "is_dismissed")
}

// SetSuggestionImplemented marks the suggestion row implemented.
func (d *Database) SetSuggestionImplemented(id string) error {
	return d.setSuggestionFlag(id, "is_implemented")
}

func (d *Database) setSuggestionFlag(id, column string) error {
	res, err := d.db.Exec(`UPDATE automation_suggestions SET `+column+` = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("suggestion %q not found", id)
	}
	return nil
}

// CleanupOlderThan deletes activity rows and settled suggestion rows
// older than cutoff. Returns the number of rows removed.
func (d *Database) CleanupOlderThan(cutoff time.Time) (int64, error) {
	var removed int64
	res, err := d.db.Exec(`DELETE FROM activity_logs WHERE ts_utc < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up activity logs: %w", err)
	}
	n, _ := res.RowsAffected()
	removed += n

	res, err = d.db.Exec(
		`DELETE FROM automation_suggestions
		 WHERE created_at < ? AND (is_dismissed = 1 OR is_implemented = 1)`,
		cutoff.Unix(),
	)
	if err != nil {
		return removed, fmt.Errorf("failed to clean up suggestions: %w", err)
	}
	n, _ = res.RowsAffected()
	removed += n

	if removed > 0 {
		d.logger.Info("Old data cleaned up", zap.Int64("rows", removed))
	}
	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
