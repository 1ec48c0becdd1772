// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maman08/Docklet/internal/ocr"
	"github.com/Maman08/Docklet/pkg/types"
)

// textPDF writes a PDF with one line of text per page.
func textPDF(t *testing.T, title string, pages ...string) string {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		pdf.AddPage()
		pdf.Cell(60, 10, text)
	}
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

// imagePDF writes a PDF whose pages carry only filled rectangles.
func imagePDF(t *testing.T, pages int) string {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.SetFillColor(40, 40, 40)
		pdf.Rect(20, 20, 120, 60, "F")
	}
	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

// tablePDF writes a single page with a heading and a two-column grid.
func tablePDF(t *testing.T) string {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(100, 10, "Staff list")
	pdf.Ln(14)
	for _, r := range [][]string{{"Name", "Age"}, {"Alice", "30"}, {"Bob", "41"}} {
		pdf.Cell(50, 10, r[0])
		pdf.Cell(50, 10, r[1])
		pdf.Ln(10)
	}
	path := filepath.Join(t.TempDir(), "table.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

// spyStrategy returns canned output and counts calls.
type spyStrategy struct {
	name  string
	text  string
	pages int
	err   error
	calls int
}

func (s *spyStrategy) Name() string { return s.name }

func (s *spyStrategy) Extract(_ context.Context, _ string, _ PageSpan, _ Options) (*Extraction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Extraction{Text: s.text, PageCount: s.pages}, nil
}

// fakeTools stands in for pdftoppm and tesseract.
type fakeTools struct {
	text  string
	calls []string
}

func (f *fakeTools) Name() string { return "fake" }

func (f *fakeTools) Run(_ context.Context, tool string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.calls = append(f.calls, tool+" "+strings.Join(args, " "))
	_, _ = io.Copy(io.Discard, stdin)
	if tool == "pdftoppm" {
		_, err := stdout.Write([]byte("\x89PNG"))
		return err
	}
	_, err := stdout.Write([]byte(f.text))
	return err
}

func fakeOCR(tools *fakeTools) *OCRStrategy {
	return NewOCRStrategy(func() (*ocr.Engine, error) {
		return ocr.NewEngine(tools, types.OCRConfig{}), nil
	})
}

func TestExtractLayoutWins(t *testing.T) {
	path := textPDF(t, "Report", "Hello layout", "Second page")
	stream := &spyStrategy{name: "stream", text: "stream text", pages: 2}
	ocrSpy := &spyStrategy{name: "ocr", text: "ocr text", pages: 2}

	var log bytes.Buffer
	res, err := New(&log, LayoutStrategy{}, stream, ocrSpy).Extract(context.Background(), Request{InputPath: path})
	require.NoError(t, err)

	assert.Equal(t, "layout", res.ExtractionInfo.Strategy)
	assert.Contains(t, res.Text, "--- Page 1 ---\nHello layout")
	assert.Contains(t, res.Text, "--- Page 2 ---\nSecond page")
	assert.Equal(t, 0, stream.calls)
	assert.Equal(t, 0, ocrSpy.calls)
	assert.Equal(t, 2, res.ExtractionInfo.TotalPages)
	assert.Equal(t, "1-2", res.ExtractionInfo.PagesProcessed)
	assert.Empty(t, res.ExtractionInfo.Warnings)
	assert.Contains(t, log.String(), "PDF has 2 pages")
}

func TestExtractFallsThroughToOCR(t *testing.T) {
	path := imagePDF(t, 2)
	tools := &fakeTools{text: "Scanned invoice\n"}

	var log bytes.Buffer
	ex := New(&log, LayoutStrategy{}, StreamStrategy{}, fakeOCR(tools))
	res, err := ex.Extract(context.Background(), Request{InputPath: path})
	require.NoError(t, err)

	assert.Equal(t, "ocr", res.ExtractionInfo.Strategy)
	assert.Contains(t, res.Text, "--- Page 1 (OCR) ---\nScanned invoice\n")
	assert.Contains(t, res.Text, "--- Page 2 (OCR) ---\nScanned invoice\n")
	assert.Len(t, tools.calls, 4)
	assert.Contains(t, log.String(), "Trying stream...")
	assert.Contains(t, log.String(), "Trying ocr...")
}

func TestExtractOCRPageErrorMarker(t *testing.T) {
	path := imagePDF(t, 1)
	failing := NewOCRStrategy(func() (*ocr.Engine, error) {
		return ocr.NewEngine(&brokenTools{}, types.OCRConfig{}), nil
	})
	ext, err := failing.Extract(context.Background(), path, PageSpan{}, Options{})
	require.NoError(t, err)
	assert.Contains(t, ext.Text, "--- Page 1 (OCR Error: rasterizing page 1")
}

type brokenTools struct{}

func (brokenTools) Name() string { return "broken" }

func (brokenTools) Run(context.Context, string, []string, io.Reader, io.Writer) error {
	return errors.New("poppler crashed")
}

func TestExtractInvertedRangeYieldsSentinel(t *testing.T) {
	path := textPDF(t, "", "one", "two", "three")
	tools := &fakeTools{text: "never"}
	ex := New(io.Discard, LayoutStrategy{}, StreamStrategy{}, fakeOCR(tools))

	res, err := ex.Extract(context.Background(), Request{InputPath: path, PageStart: 3, PageEnd: 2})
	require.NoError(t, err)
	assert.Equal(t, NoTextSentinel, res.Text)
	assert.Equal(t, "none", res.ExtractionInfo.Strategy)
	assert.Equal(t, "3-2", res.ExtractionInfo.PagesProcessed)
	assert.Empty(t, tools.calls)
}

func TestExtractStartBeyondTotal(t *testing.T) {
	path := textPDF(t, "", "one", "two")
	spy := &spyStrategy{name: "layout", text: "x"}

	_, err := New(io.Discard, spy).Extract(context.Background(), Request{InputPath: path, PageStart: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPageRange))
	assert.Equal(t, 0, spy.calls)
}

func TestExtractEndClamped(t *testing.T) {
	path := textPDF(t, "", "one", "two")
	var log bytes.Buffer
	res, err := New(&log, LayoutStrategy{}).Extract(context.Background(), Request{InputPath: path, PageEnd: 10})
	require.NoError(t, err)

	assert.Equal(t, "1-2", res.ExtractionInfo.PagesProcessed)
	require.Len(t, res.ExtractionInfo.Warnings, 1)
	assert.Contains(t, res.ExtractionInfo.Warnings[0], "adjusting to 2")
	assert.Contains(t, log.String(), "Warning: End page 10 exceeds total pages 2")
}

func TestExtractMissingInput(t *testing.T) {
	spy := &spyStrategy{name: "layout"}
	_, err := New(io.Discard, spy).Extract(context.Background(), Request{InputPath: filepath.Join(t.TempDir(), "nope.pdf")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))
	assert.Equal(t, 0, spy.calls)
}

func TestExtractRequiresInputPath(t *testing.T) {
	_, err := New(io.Discard).Extract(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func TestExtractStrategyFailureMovesOn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "any.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	broken := &spyStrategy{name: "layout", err: errors.New("bad xref")}
	good := &spyStrategy{name: "stream", text: "\n--- Page 1 ---\nrecovered\n", pages: 3}
	var log bytes.Buffer
	ex := New(&log, broken, good)
	ex.metadata = func(string) Metadata { return Metadata{NumPages: 1} }

	res, err := ex.Extract(context.Background(), Request{InputPath: path})
	require.NoError(t, err)
	assert.Equal(t, "stream", res.ExtractionInfo.Strategy)
	assert.Contains(t, log.String(), "layout failed: bad xref")
	require.Len(t, res.ExtractionInfo.Warnings, 1)
	assert.Contains(t, res.ExtractionInfo.Warnings[0], "stream strategy counted 3 pages, metadata reports 1")
}

func TestExtractTablesOnlyWhenRequested(t *testing.T) {
	path := tablePDF(t)

	tests := []struct {
		name   string
		tables bool
	}{
		{name: "requested", tables: true},
		{name: "not requested", tables: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(io.Discard, LayoutStrategy{}).Extract(context.Background(),
				Request{InputPath: path, ExtractTables: tt.tables})
			require.NoError(t, err)
			assert.Contains(t, res.Text, "Staff list")
			if !tt.tables {
				assert.Nil(t, res.Tables)
				assert.NotContains(t, res.Text, "--- Tables on Page")
				return
			}
			require.Len(t, res.Tables, 1)
			assert.Equal(t, 1, res.Tables[0].Page)
			assert.Equal(t, 0, res.Tables[0].TableIndex)
			assert.Equal(t, [][]string{{"Name", "Age"}, {"Alice", "30"}, {"Bob", "41"}}, res.Tables[0].Data)
			assert.Contains(t, res.Text, "--- Tables on Page 1 ---\nTable 1:\nName | Age\nAlice | 30\nBob | 41\n\n")
		})
	}
}

func TestStreamStrategy(t *testing.T) {
	path := textPDF(t, "", "Hello stream", "Page two")
	ext, err := StreamStrategy{}.Extract(context.Background(), path, PageSpan{Start: 2}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, ext.PageCount)
	assert.Equal(t, "\n--- Page 2 ---\nPage two\n", ext.Text)
}

func TestStreamStrategyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
	_, err := StreamStrategy{}.Extract(context.Background(), path, PageSpan{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream extraction failed")
}

func TestReadMetadata(t *testing.T) {
	md := ReadMetadata(textPDF(t, "Quarterly report", "a", "b", "c"))
	assert.Equal(t, 3, md.NumPages)
	assert.Equal(t, "Quarterly report", md.Title)
	assert.NotEmpty(t, md.CreationDate)
	assert.Empty(t, md.Error)
}

func TestReadMetadataDates(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAuthor("Ana", false)
	pdf.SetCreationDate(time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC))
	pdf.AddPage()
	path := filepath.Join(t.TempDir(), "dated.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))

	md := ReadMetadata(path)
	require.Empty(t, md.Error)
	assert.Equal(t, 1, md.NumPages)
	assert.Equal(t, "Ana", md.Author)
	assert.Contains(t, md.CreationDate, "20240309")
}

func TestReadMetadataError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))
	md := ReadMetadata(path)
	assert.Equal(t, 0, md.NumPages)
	assert.True(t, strings.HasPrefix(md.Error, "Metadata extraction failed: "))
}

func TestPageSpanResolve(t *testing.T) {
	tests := []struct {
		name  string
		span  PageSpan
		total int
		want  []int
	}{
		{name: "unset", span: PageSpan{}, total: 3, want: []int{1, 2, 3}},
		{name: "start only", span: PageSpan{Start: 2}, total: 3, want: []int{2, 3}},
		{name: "end only", span: PageSpan{End: 2}, total: 3, want: []int{1, 2}},
		{name: "end past total", span: PageSpan{Start: 1, End: 9}, total: 3, want: []int{1, 2, 3}},
		{name: "inverted", span: PageSpan{Start: 3, End: 2}, total: 3, want: []int{}},
		{name: "empty document", span: PageSpan{}, total: 0, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.span.Resolve(tt.total).Pages())
		})
	}
}

func TestErrorMarkerTruncates(t *testing.T) {
	long := errors.New(strings.Repeat("x", 80))
	got := errorMarker(4, "Error", long)
	assert.Equal(t, "\n--- Page 4 (Error: "+strings.Repeat("x", 50)+") ---\n", got)
}
