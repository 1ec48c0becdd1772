// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one task as written by ExportYAML and ExportJSON.
type ExportEntry struct {
	ID             string            `json:"id" yaml:"id"`
	Type           string            `json:"type" yaml:"type"`
	Status         string            `json:"status" yaml:"status"`
	Input          string            `json:"input" yaml:"input"`
	Output         string            `json:"output,omitempty" yaml:"output,omitempty"`
	Parameters     map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt      string            `json:"created_at" yaml:"created_at"`
	CompletedAt    string            `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	ProcessingTime float64           `json:"processing_time" yaml:"processing_time"`
}

// ExportYAML writes the tasks matching opts to w as a YAML list. A zero
// Limit exports every row.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the tasks matching opts to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	if opts.Limit == 0 {
		opts.Limit = -1
	}
	tasks, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(tasks))
	for i, t := range tasks {
		entries[i] = ExportEntry{
			ID:             t.ID,
			Type:           string(t.Type),
			Status:         string(t.Status),
			Input:          t.Input,
			Output:         t.Output,
			Parameters:     t.Parameters,
			Error:          t.Error,
			CreatedAt:      formatTime(t.CreatedAt),
			ProcessingTime: t.ProcessingTime.Seconds(),
		}
		if !t.CompletedAt.IsZero() {
			entries[i].CompletedAt = formatTime(t.CompletedAt)
		}
	}
	return entries, nil
}
