// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfextract extracts text and tables from PDF files through an
// ordered cascade of strategies: positioned layout text, raw content
// streams, then OCR. The first strategy that yields non-blank text wins.
package pdfextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Maman08/Docklet/internal/ocr"
	"github.com/Maman08/Docklet/pkg/types"
)

// NoTextSentinel is the result text when no strategy finds any text.
const NoTextSentinel = "No text could be extracted from this PDF."

var (
	// ErrInputNotFound is returned when the input PDF does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrPageRange is returned when the first requested page lies beyond
	// the end of the document.
	ErrPageRange = errors.New("page range out of bounds")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request describes one extraction run. Page numbers are 1-based and
// inclusive; zero or negative values mean "unset".
type Request struct {
	InputPath     string `validate:"required"`
	PageStart     int
	PageEnd       int
	ExtractTables bool
}

// Options are passed to every strategy.
type Options struct {
	ExtractTables bool
}

// Table is one table detected by the layout strategy.
type Table struct {
	Page       int        `json:"page" yaml:"page"`
	TableIndex int        `json:"table_index" yaml:"table_index"`
	Data       [][]string `json:"data" yaml:"data"`
}

// Extraction is what a single strategy produced.
type Extraction struct {
	Text      string
	Tables    []Table
	PageCount int
}

// Strategy is one way of getting text out of a PDF. Extract returns an
// error only when the strategy cannot run at all; failures on individual
// pages are reported inline in the text.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string, span PageSpan, opts Options) (*Extraction, error)
}

// ExtractionInfo summarises a run.
type ExtractionInfo struct {
	PagesProcessed string   `json:"pages_processed"`
	TotalPages     int      `json:"total_pages"`
	ExtractTables  bool     `json:"extract_tables"`
	TextLength     int      `json:"text_length"`
	Strategy       string   `json:"strategy"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Result is the finalized output of the cascade.
type Result struct {
	Text           string         `json:"text"`
	Metadata       Metadata       `json:"metadata"`
	ExtractionInfo ExtractionInfo `json:"extraction_info"`
	Tables         []Table        `json:"tables,omitempty"`
}

// Extractor runs the strategy cascade.
type Extractor struct {
	strategies []Strategy
	metadata   func(path string) Metadata
	log        io.Writer
}

// New creates an Extractor that tries strategies in the given order and
// writes progress lines to log.
func New(log io.Writer, strategies ...Strategy) *Extractor {
	if log == nil {
		log = io.Discard
	}
	return &Extractor{
		strategies: strategies,
		metadata:   ReadMetadata,
		log:        log,
	}
}

// NewDefault creates the standard layout → stream → OCR cascade. The OCR
// toolchain is only resolved if the cascade reaches it.
func NewDefault(log io.Writer, ocrCfg types.OCRConfig) *Extractor {
	if log == nil {
		log = io.Discard
	}
	engine := func() (*ocr.Engine, error) {
		tools, err := ocr.NewToolchain(ocrCfg, nil)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(log, "OCR toolchain: %s\n", tools.Name())
		return ocr.NewEngine(tools, ocrCfg), nil
	}
	return New(log, LayoutStrategy{}, StreamStrategy{}, NewOCRStrategy(engine))
}

// Extract validates the request, reads metadata, resolves the page range
// and runs the cascade.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, req.InputPath)
		}
		return nil, fmt.Errorf("stat %s: %w", req.InputPath, err)
	}

	md := e.metadata(req.InputPath)
	total := md.NumPages
	fmt.Fprintf(e.log, "PDF has %d pages\n", total)

	start := max(req.PageStart, 0)
	end := max(req.PageEnd, 0)
	if start > 0 && start > total {
		return nil, fmt.Errorf("%w: start page %d exceeds total pages %d", ErrPageRange, start, total)
	}

	var warnings []string
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		fmt.Fprintf(e.log, "Warning: %s\n", msg)
	}
	if end > 0 && end > total {
		warn("End page %d exceeds total pages %d, adjusting to %d", end, total, total)
		end = total
	}

	span := PageSpan{Start: start, End: end}
	opts := Options{ExtractTables: req.ExtractTables}

	var winner *Extraction
	strategy := "none"
	for i, s := range e.strategies {
		if i > 0 {
			fmt.Fprintf(e.log, "Trying %s...\n", s.Name())
		}
		ext, err := s.Extract(ctx, req.InputPath, span, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			fmt.Fprintf(e.log, "%s failed: %v\n", s.Name(), err)
			continue
		}
		if ext.PageCount != total {
			warn("%s strategy counted %d pages, metadata reports %d", s.Name(), ext.PageCount, total)
		}
		if strings.TrimSpace(ext.Text) != "" {
			winner = ext
			strategy = s.Name()
			break
		}
	}

	res := &Result{Metadata: md}
	if winner != nil {
		res.Text = winner.Text
		if req.ExtractTables && len(winner.Tables) > 0 {
			res.Tables = winner.Tables
		}
	} else {
		res.Text = NoTextSentinel
	}

	res.ExtractionInfo = ExtractionInfo{
		PagesProcessed: fmt.Sprintf("%d-%d", orDefault(start, 1), orDefault(end, total)),
		TotalPages:     total,
		ExtractTables:  req.ExtractTables,
		TextLength:     utf8.RuneCountInString(res.Text),
		Strategy:       strategy,
		Warnings:       warnings,
	}
	return res, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// pageMarker and errorMarker render the per-page headers embedded in the
// extracted text.
func pageMarker(page int, suffix string) string {
	return fmt.Sprintf("\n--- Page %d%s ---\n", page, suffix)
}

func errorMarker(page int, label string, err error) string {
	return fmt.Sprintf("\n--- Page %d (%s: %s) ---\n", page, label, truncate(err.Error(), 50))
}
