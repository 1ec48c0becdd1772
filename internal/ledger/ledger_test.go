// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/Maman08/Docklet/pkg/types"
)

// testStore opens a ledger in a temp dir whose clock advances one second
// per call.
func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestBeginAssignsID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	task, err := s.Begin(ctx, types.Task{
		Type:       types.TaskCSVAnalyze,
		Input:      "data.csv",
		Parameters: map[string]string{"delimiter": ";"},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, task.Status)

	got, err := s.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "data.csv", got.Input)
	assert.Equal(t, map[string]string{"delimiter": ";"}, got.Parameters)
	assert.Equal(t, task.CreatedAt, got.CreatedAt)
	assert.True(t, got.CompletedAt.IsZero())
}

func TestBeginRejectsUnknownType(t *testing.T) {
	s := testStore(t)
	_, err := s.Begin(context.Background(), types.Task{Type: "video-trim", Input: "a.mp4"})
	require.Error(t, err)
}

func TestCompleteAndFail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ok, err := s.Begin(ctx, types.Task{Type: types.TaskImageConvert, Input: "a.png"})
	require.NoError(t, err)
	require.NoError(t, s.Complete(ctx, ok.ID, "out/a.jpg", 1500*time.Millisecond))

	bad, err := s.Begin(ctx, types.Task{Type: types.TaskPDFExtract, Input: "b.pdf", Output: "out/b"})
	require.NoError(t, err)
	require.NoError(t, s.Fail(ctx, bad.ID, errors.New("input file does not exist"), 20*time.Millisecond))

	got, err := s.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "out/a.jpg", got.Output)
	assert.Equal(t, 1500*time.Millisecond, got.ProcessingTime)
	assert.False(t, got.CompletedAt.IsZero())

	got, err = s.Get(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "input file does not exist", got.Error)
	assert.Equal(t, "out/b", got.Output, "failure keeps the requested output")
}

func TestFinishUnknownID(t *testing.T) {
	s := testStore(t)
	err := s.Complete(context.Background(), "missing", "x", time.Second)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func seed(t *testing.T, s *Store) []types.Task {
	t.Helper()
	ctx := context.Background()
	specs := []struct {
		typ  types.TaskType
		fail bool
	}{
		{types.TaskCSVAnalyze, false},
		{types.TaskImageConvert, true},
		{types.TaskCSVAnalyze, true},
		{types.TaskPDFExtract, false},
	}
	var out []types.Task
	for i, sp := range specs {
		task, err := s.Begin(ctx, types.Task{Type: sp.typ, Input: filepath.Join("in", string(rune('a'+i)))})
		require.NoError(t, err)
		if sp.fail {
			require.NoError(t, s.Fail(ctx, task.ID, errors.New("boom"), time.Millisecond))
		} else {
			require.NoError(t, s.Complete(ctx, task.ID, "out", time.Millisecond))
		}
		out = append(out, task)
	}
	return out
}

func TestList(t *testing.T) {
	s := testStore(t)
	seeded := seed(t, s)
	ctx := context.Background()

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{name: "all newest first", opts: ListOptions{}, want: []string{seeded[3].ID, seeded[2].ID, seeded[1].ID, seeded[0].ID}},
		{name: "by type", opts: ListOptions{Type: types.TaskCSVAnalyze}, want: []string{seeded[2].ID, seeded[0].ID}},
		{name: "by status", opts: ListOptions{Status: types.StatusFailed}, want: []string{seeded[2].ID, seeded[1].ID}},
		{name: "type and status", opts: ListOptions{Type: types.TaskCSVAnalyze, Status: types.StatusCompleted}, want: []string{seeded[0].ID}},
		{name: "limit", opts: ListOptions{Limit: 1}, want: []string{seeded[3].ID}},
		{name: "no match", opts: ListOptions{Type: types.TaskPDFExtract, Status: types.StatusFailed}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			var ids []string
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	task, err := s.Begin(context.Background(), types.Task{Type: types.TaskPDFExtract, Input: "x.pdf"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, got.Status)
}

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(context.Background(), &buf, ListOptions{Status: types.StatusFailed}))

	var entries []ExportEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "failed", e.Status)
		assert.Equal(t, "boom", e.Error)
		assert.NotEmpty(t, e.CompletedAt)
		assert.InDelta(t, 0.001, e.ProcessingTime, 1e-9)
	}
}

func TestExportYAMLIgnoresDefaultLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i := 0; i < defaultLimit+5; i++ {
		_, err := s.Begin(ctx, types.Task{Type: types.TaskCSVAnalyze, Input: "-"})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &buf, ListOptions{}))

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &entries))
	assert.Len(t, entries, defaultLimit+5)
	assert.Equal(t, "processing", entries[0].Status)
	assert.Empty(t, entries[0].CompletedAt)
}
