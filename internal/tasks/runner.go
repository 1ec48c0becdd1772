// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tasks runs csv-analyze, image-convert and pdf-extract jobs, alone
// or as a YAML batch, and records each run in the ledger.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Maman08/Docklet/internal/csvprofile"
	"github.com/Maman08/Docklet/internal/imageconv"
	"github.com/Maman08/Docklet/internal/pdfextract"
	"github.com/Maman08/Docklet/pkg/types"
)

// Recorder persists task lifecycle events. *ledger.Store implements it.
type Recorder interface {
	Begin(ctx context.Context, t types.Task) (types.Task, error)
	Complete(ctx context.Context, id, output string, d time.Duration) error
	Fail(ctx context.Context, id string, taskErr error, d time.Duration) error
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Completed int
	Failed    int
}

// Total returns the number of tasks run.
func (r BatchResult) Total() int {
	return r.Completed + r.Failed
}

// HasFailures reports whether any task failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Runner executes tasks with a shared configuration.
type Runner struct {
	cfg          types.Config
	rec          Recorder
	log          io.Writer
	newExtractor func(log io.Writer) *pdfextract.Extractor
}

// NewRunner creates a Runner. rec may be nil to skip recording; progress
// and warnings go to log.
func NewRunner(cfg types.Config, rec Recorder, log io.Writer) *Runner {
	if log == nil {
		log = io.Discard
	}
	r := &Runner{cfg: cfg, rec: rec, log: log}
	r.newExtractor = func(w io.Writer) *pdfextract.Extractor {
		return pdfextract.NewDefault(w, r.cfg.PDF.OCR)
	}
	return r
}

// Track runs fn as task t. The task is recorded before fn starts and
// finished with fn's output or error. Ledger failures are reported on the
// log and never fail the task.
func (r *Runner) Track(ctx context.Context, t types.Task, fn func(context.Context) (string, error)) (types.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	recorded := false
	if r.rec != nil {
		stored, err := r.rec.Begin(ctx, t)
		if err != nil {
			fmt.Fprintf(r.log, "warning: ledger: %v\n", err)
		} else {
			t, recorded = stored, true
		}
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = time.Now().UTC()
	}

	start := time.Now()
	out, err := fn(ctx)
	t.ProcessingTime = time.Since(start)
	t.CompletedAt = t.StartedAt.Add(t.ProcessingTime)
	if out != "" {
		t.Output = out
	}

	if err != nil {
		t.Status = types.StatusFailed
		t.Error = err.Error()
	} else {
		t.Status = types.StatusCompleted
	}

	if recorded {
		var recErr error
		if err != nil {
			recErr = r.rec.Fail(context.WithoutCancel(ctx), t.ID, err, t.ProcessingTime)
		} else {
			recErr = r.rec.Complete(context.WithoutCancel(ctx), t.ID, out, t.ProcessingTime)
		}
		if recErr != nil {
			fmt.Fprintf(r.log, "warning: ledger: %v\n", recErr)
		}
	}
	return t, err
}

// Execute runs a single entry through Track.
func (r *Runner) Execute(ctx context.Context, s Entry) (types.Task, error) {
	params := make(map[string]string, len(s.Parameters)+1)
	for k, v := range s.Parameters {
		params[k] = v
	}
	if s.ID != "" {
		params["manifest_id"] = s.ID
	}
	t := types.Task{
		Type:       s.Type,
		Input:      s.Input,
		Output:     s.Output,
		Parameters: params,
	}
	return r.Track(ctx, t, func(ctx context.Context) (string, error) {
		return r.dispatch(ctx, s)
	})
}

func (r *Runner) dispatch(ctx context.Context, s Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch s.Type {
	case types.TaskCSVAnalyze:
		return r.analyzeCSV(s)
	case types.TaskImageConvert:
		return r.convertImage(ctx, s)
	case types.TaskPDFExtract:
		return r.extractPDF(ctx, s)
	default:
		return "", fmt.Errorf("unknown task type %q", s.Type)
	}
}

// Run executes every task in m in order, printing one status line per task
// and a summary to w. Task failures are counted, not returned; the error is
// non-nil only when ctx ends the batch early.
func (r *Runner) Run(ctx context.Context, m *Manifest, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for _, s := range m.Tasks {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(w, "\nBatch summary: %d completed, %d failed (total: %d)\n",
				result.Completed, result.Failed, result.Total())
			return result, err
		}
		t, err := r.Execute(ctx, s)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", s.ID, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "completed: %s -> %s (%.2fs)\n", s.ID, t.Output, t.ProcessingTime.Seconds())
		result.Completed++
	}
	fmt.Fprintf(w, "\nBatch summary: %d completed, %d failed (total: %d)\n",
		result.Completed, result.Failed, result.Total())
	return result, nil
}

func (r *Runner) analyzeCSV(s Entry) (string, error) {
	raw, err := os.ReadFile(s.Input)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	data, opts, err := csvprofile.ParseInput(raw)
	if err != nil {
		return "", fmt.Errorf("analysis error: %w", err)
	}
	if v := s.Parameters["encoding"]; v != "" {
		opts.Encoding = v
	}
	if v := s.Parameters["delimiter"]; v != "" {
		opts.Delimiter = v
	}

	res := csvprofile.New(r.cfg.CSV).Analyze(data, opts)
	body, err := res.Encode()
	if err != nil {
		return "", fmt.Errorf("encoding analysis: %w", err)
	}
	out := s.Output + ".json"
	if err := writeFile(out, body); err != nil {
		return "", err
	}
	if !res.Success {
		return out, fmt.Errorf("analysis failed: %s", res.Error)
	}

	report, err := boolParam(s.Parameters, "report", false)
	if err != nil {
		return out, err
	}
	if report {
		f, err := os.Create(s.Output + ".report.csv")
		if err != nil {
			return out, fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		if err := csvprofile.WriteReport(f, res); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Runner) convertImage(ctx context.Context, s Entry) (string, error) {
	req := imageconv.Request{
		Input:  s.Input,
		Output: s.Output,
		Format: stringParam(s.Parameters, "format", r.cfg.Image.Format),
	}
	var err error
	if req.Quality, err = intParam(s.Parameters, "quality", r.cfg.Image.Quality); err != nil {
		return "", err
	}
	if req.Width, err = intParam(s.Parameters, "width", 0); err != nil {
		return "", err
	}
	if req.Height, err = intParam(s.Parameters, "height", 0); err != nil {
		return "", err
	}
	return imageconv.Convert(ctx, req)
}

func (r *Runner) extractPDF(ctx context.Context, s Entry) (string, error) {
	req := pdfextract.Request{InputPath: s.Input}
	var err error
	if req.ExtractTables, err = boolParam(s.Parameters, "extract_tables", false); err != nil {
		return "", err
	}
	if req.PageStart, err = intParam(s.Parameters, "page_start", 0); err != nil {
		return "", err
	}
	if req.PageEnd, err = intParam(s.Parameters, "page_end", 0); err != nil {
		return "", err
	}
	format := pdfextract.ParseFormat(s.Parameters["output_format"])

	if r.cfg.PDF.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.PDF.Timeout)
		defer cancel()
	}

	fmt.Fprintf(r.log, "Processing: %s\n", s.Input)
	fmt.Fprintf(r.log, "Output: %s\n", s.Output)
	fmt.Fprintf(r.log, "Format: %s\n", format)

	res, err := r.newExtractor(r.log).Extract(ctx, req)
	if err != nil {
		return "", err
	}
	out, err := pdfextract.Write(res, s.Output, format)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(r.log, "Extraction completed: %s\n", out)
	fmt.Fprintf(r.log, "Extracted %d characters\n", res.ExtractionInfo.TextLength)
	return out, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func stringParam(params map[string]string, key, def string) string {
	if v, ok := params[key]; ok && v != "" {
		return v
	}
	return def
}

func intParam(params map[string]string, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, errors.Unwrap(err))
	}
	return n, nil
}

func boolParam(params map[string]string, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parameter %s: %w", key, errors.Unwrap(err))
	}
	return b, nil
}
