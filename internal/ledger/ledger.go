// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records task runs in a SQLite database so past CSV, image,
// and PDF jobs can be listed and exported.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Maman08/Docklet/pkg/types"
)

// DefaultPath is the database location used when the ledger is enabled
// without an explicit path.
const DefaultPath = "outputs/docklet.db"

const defaultLimit = 50

// ErrNotFound is returned when a task id has no row.
var ErrNotFound = errors.New("task not found")

// Store manages the task ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT,
			parameters TEXT,
			error TEXT,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			processing_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_type ON tasks(type)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin inserts t with status processing. A missing id is filled with a new
// UUID; the stored task is returned.
func (s *Store) Begin(ctx context.Context, t types.Task) (types.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if !t.Type.Valid() {
		return t, fmt.Errorf("unknown task type %q", t.Type)
	}
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.StartedAt = now
	t.Status = types.StatusProcessing

	params, err := json.Marshal(t.Parameters)
	if err != nil {
		return t, fmt.Errorf("encoding parameters: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, type, status, input, output, parameters, created_at, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), string(t.Status), t.Input, t.Output, string(params),
		formatTime(t.CreatedAt), formatTime(t.StartedAt),
	)
	if err != nil {
		return t, fmt.Errorf("inserting task %s: %w", t.ID, err)
	}
	return t, nil
}

// Complete marks a task completed with its output path and duration.
func (s *Store) Complete(ctx context.Context, id, output string, d time.Duration) error {
	return s.finish(ctx, id, types.StatusCompleted, output, "", d)
}

// Fail marks a task failed with the error message and duration.
func (s *Store) Fail(ctx context.Context, id string, taskErr error, d time.Duration) error {
	msg := ""
	if taskErr != nil {
		msg = taskErr.Error()
	}
	return s.finish(ctx, id, types.StatusFailed, "", msg, d)
}

func (s *Store) finish(ctx context.Context, id string, status types.TaskStatus, output, msg string, d time.Duration) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, output = COALESCE(NULLIF(?, ''), output), error = ?,
			completed_at = ?, processing_ms = ?
		 WHERE id = ?`,
		string(status), output, msg, formatTime(s.now()), d.Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListOptions filters List. Zero values match everything.
type ListOptions struct {
	Type   types.TaskType
	Status types.TaskStatus

	// Limit caps the number of rows. Zero uses the default; negative means
	// no limit.
	Limit int
}

// Get returns the task with the given id.
func (s *Store) Get(ctx context.Context, id string) (types.Task, error) {
	rows, err := s.db.QueryContext(ctx, selectTasks+` WHERE id = ?`, id)
	if err != nil {
		return types.Task{}, fmt.Errorf("querying task %s: %w", id, err)
	}
	defer rows.Close()
	tasks, err := scanTasks(rows)
	if err != nil {
		return types.Task{}, err
	}
	if len(tasks) == 0 {
		return types.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tasks[0], nil
}

// List returns tasks newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Task, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(selectTasks + ` WHERE 1=1`)
	if opts.Type != "" {
		qb.WriteString(` AND type = ?`)
		args = append(args, string(opts.Type))
	}
	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	qb.WriteString(` ORDER BY created_at DESC, rowid DESC`)

	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

const selectTasks = `SELECT id, type, status, input, COALESCE(output, ''),
	COALESCE(parameters, ''), COALESCE(error, ''), created_at,
	COALESCE(started_at, ''), COALESCE(completed_at, ''), processing_ms
	FROM tasks`

func scanTasks(rows *sql.Rows) ([]types.Task, error) {
	var tasks []types.Task
	for rows.Next() {
		var (
			t                         types.Task
			typ, status, params       string
			created, started, stopped string
			ms                        int64
		)
		if err := rows.Scan(&t.ID, &typ, &status, &t.Input, &t.Output,
			&params, &t.Error, &created, &started, &stopped, &ms); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.Type = types.TaskType(typ)
		t.Status = types.TaskStatus(status)
		if params != "" && params != "null" {
			if err := json.Unmarshal([]byte(params), &t.Parameters); err != nil {
				return nil, fmt.Errorf("decoding parameters of %s: %w", t.ID, err)
			}
		}
		t.CreatedAt = parseTime(created)
		t.StartedAt = parseTime(started)
		t.CompletedAt = parseTime(stopped)
		t.ProcessingTime = time.Duration(ms) * time.Millisecond
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
