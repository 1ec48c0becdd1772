// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csvprofile profiles delimited text files (and XLSX workbooks):
// schema, missing values, duplicates, summary statistics, data-quality
// percentages, and templated insights.
package csvprofile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/Maman08/Docklet/pkg/types"
)

// Default limits.
const (
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultMaxRows     = 50000
	sampleSize         = 5
	topValues          = 5
)

// Analysis is the structural and statistical part of a profile.
type Analysis struct {
	Shape          [2]int                     `json:"shape"`
	Columns        []string                   `json:"columns"`
	Dtypes         *OrderedMap[string]        `json:"dtypes"`
	MemoryUsage    int64                      `json:"memory_usage"`
	NullCounts     *OrderedMap[int]           `json:"null_counts"`
	DuplicateRows  int                        `json:"duplicate_rows"`
	NumericSummary *OrderedMap[Describe]      `json:"numeric_summary,omitempty"`
	StringSummary  *OrderedMap[StringSummary] `json:"string_summary,omitempty"`
}

// SampleData is the head of the table.
type SampleData struct {
	Head    []*OrderedMap[any] `json:"head"`
	Columns []string           `json:"columns"`
}

// Metadata records how the input was read.
type Metadata struct {
	EncodingUsed  string `json:"encoding_used"`
	DelimiterUsed string `json:"delimiter_used"`
	RowsProcessed int    `json:"rows_processed"`
	TotalFileSize int    `json:"total_file_size"`
	SourceFormat  string `json:"source_format"`
}

// Result is one profiling run. Sections that were not computed serialize
// as empty objects.
type Result struct {
	Success    bool
	Analysis   *Analysis
	Quality    *Quality
	Insights   *Insights
	SampleData *SampleData
	Metadata   *Metadata
	Error      string
	Traceback  string

	// Report is the per-column profile used for the CSV report.
	Report []ColumnReport
}

func (r *Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Success    bool      `json:"success"`
		Analysis   any       `json:"analysis"`
		Quality    any       `json:"quality"`
		Insights   any       `json:"insights"`
		SampleData any       `json:"sample_data"`
		Error      string    `json:"error"`
		Metadata   *Metadata `json:"metadata,omitempty"`
		Traceback  string    `json:"traceback,omitempty"`
	}
	return json.Marshal(wire{
		Success:    r.Success,
		Analysis:   orEmpty(r.Analysis),
		Quality:    orEmpty(r.Quality),
		Insights:   orEmpty(r.Insights),
		SampleData: orEmpty(r.SampleData),
		Error:      r.Error,
		Metadata:   r.Metadata,
		Traceback:  r.Traceback,
	})
}

func orEmpty[T any](p *T) any {
	if p == nil {
		return struct{}{}
	}
	return p
}

// Encode renders r as two-space indented JSON without HTML escaping.
func (r *Result) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Analyzer profiles tabular data within configured size limits.
type Analyzer struct {
	cfg types.CSVConfig
}

// New creates an Analyzer. Zero limits take the defaults.
func New(cfg types.CSVConfig) *Analyzer {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	return &Analyzer{cfg: cfg}
}

// Analyze profiles data. Failures are reported in the result, never as a
// Go error; a panic while profiling is recovered into Error and Traceback.
// Options override the configured encoding and delimiter, which override
// detection.
func (a *Analyzer) Analyze(data []byte, opts Options) (res *Result) {
	res = &Result{}
	if len(data) > a.cfg.MaxFileSize {
		res.Error = fmt.Sprintf("File too large. Maximum size is %dMB", a.cfg.MaxFileSize/(1024*1024))
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			*res = Result{Error: fmt.Sprint(r), Traceback: string(debug.Stack())}
		}
	}()

	if opts.Encoding == "" {
		opts.Encoding = a.cfg.Encoding
	}
	if opts.Delimiter == "" {
		opts.Delimiter = a.cfg.Delimiter
	}

	var (
		header []string
		rows   [][]string
		meta   = &Metadata{TotalFileSize: len(data)}
		err    error
	)
	if isWorkbook(data) {
		header, rows, err = readWorkbook(data, a.cfg.MaxRows)
		meta.SourceFormat = "xlsx"
	} else {
		header, rows, err = a.readDelimited(data, opts, meta)
		meta.SourceFormat = "csv"
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	f := buildFrame(header, rows)
	res.Analysis = basicAnalysis(f)
	res.Quality = dataQuality(f)
	res.Insights = generateInsights(f, res.Analysis)
	res.SampleData = sample(f)
	res.Report = columnReport(f, res.Analysis)
	meta.RowsProcessed = f.rows
	res.Metadata = meta
	res.Success = true
	return res
}

func (a *Analyzer) readDelimited(data []byte, opts Options, meta *Metadata) ([]string, [][]string, error) {
	encoding := opts.Encoding
	if encoding == "" {
		encoding = detectEncoding(data)
	}
	text, err := decodeAs(data, encoding)
	if err != nil {
		return nil, nil, err
	}

	delim := detectDelimiter(text)
	if opts.Delimiter != "" {
		if delim, err = parseDelimiter(opts.Delimiter); err != nil {
			return nil, nil, err
		}
	}
	meta.EncodingUsed = encoding
	meta.DelimiterUsed = string(delim)
	return readRecords(text, delim, a.cfg.MaxRows)
}

func basicAnalysis(f *frame) *Analysis {
	a := &Analysis{
		Shape:      [2]int{f.rows, len(f.columns)},
		Columns:    make([]string, 0, len(f.columns)),
		Dtypes:     NewOrderedMap[string](),
		NullCounts: NewOrderedMap[int](),
	}
	numeric := NewOrderedMap[Describe]()
	strs := NewOrderedMap[StringSummary]()
	for _, c := range f.columns {
		a.Columns = append(a.Columns, c.name)
		a.Dtypes.Set(c.name, c.dtype)
		a.NullCounts.Set(c.name, c.nullCount())
		switch {
		case c.numeric():
			numeric.Set(c.name, describe(c.nums))
		case c.dtype == DtypeObject:
			ss := StringSummary{UniqueCount: c.unique(), MostCommon: NewOrderedMap[int]()}
			if c.len() > 0 {
				ss.MostCommon = valueCounts(c, topValues)
			}
			strs.Set(c.name, ss)
		}
	}
	a.MemoryUsage = memoryUsage(f)
	a.DuplicateRows = duplicateRows(f)
	if numeric.Len() > 0 {
		a.NumericSummary = numeric
	}
	if strs.Len() > 0 {
		a.StringSummary = strs
	}
	return a
}

func sample(f *frame) *SampleData {
	n := min(sampleSize, f.rows)
	if n == 0 {
		return nil
	}
	s := &SampleData{Head: make([]*OrderedMap[any], 0, n)}
	for _, c := range f.columns {
		s.Columns = append(s.Columns, c.name)
	}
	for i := 0; i < n; i++ {
		rec := NewOrderedMap[any]()
		for _, c := range f.columns {
			rec.Set(c.name, c.value(i))
		}
		s.Head = append(s.Head, rec)
	}
	return s
}
