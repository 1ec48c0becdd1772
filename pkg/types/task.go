// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TaskType identifies which program a task runs.
type TaskType string

const (
	TaskCSVAnalyze   TaskType = "csv-analyze"
	TaskImageConvert TaskType = "image-convert"
	TaskPDFExtract   TaskType = "pdf-extract"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskCSVAnalyze, TaskImageConvert, TaskPDFExtract:
		return true
	}
	return false
}

// TaskStatus tracks the lifecycle of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Task is one invocation of a program, as recorded in the ledger.
type Task struct {
	// ID is a UUID assigned when the task is created.
	ID string `json:"id" yaml:"id"`

	Type   TaskType   `json:"type" yaml:"type"`
	Status TaskStatus `json:"status" yaml:"status"`

	// Input is the source file path ("-" for stdin).
	Input string `json:"input" yaml:"input"`

	// Output is the artifact path written on success.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Parameters holds the task-specific settings as given by the caller.
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Error is the failure message for failed tasks.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`

	// ProcessingTime is the wall time between start and completion.
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
}
