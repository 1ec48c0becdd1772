// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LayoutStrategy reconstructs text from positioned glyphs and, when asked,
// detects tables from aligned cells. It is the first strategy tried.
type LayoutStrategy struct{}

func (LayoutStrategy) Name() string { return "layout" }

func (LayoutStrategy) Extract(ctx context.Context, path string, span PageSpan, opts Options) (ext *Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext, err = nil, fmt.Errorf("layout extraction failed: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout extraction failed: %s", truncate(err.Error(), 100))
	}
	defer f.Close()

	total := reader.NumPage()
	var sb strings.Builder
	var tables []Table
	for _, page := range span.Resolve(total).Pages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pl, err := layoutPage(reader, page)
		if err != nil {
			sb.WriteString(errorMarker(page, "Error", err))
			continue
		}
		if text := pl.Text(); strings.TrimSpace(text) != "" {
			sb.WriteString(pageMarker(page, ""))
			sb.WriteString(text)
			sb.WriteString("\n")
		}
		if !opts.ExtractTables {
			continue
		}
		found := pl.Tables()
		if len(found) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n--- Tables on Page %d ---\n", page)
		for i, data := range found {
			fmt.Fprintf(&sb, "Table %d:\n", i+1)
			for _, r := range data {
				sb.WriteString(strings.Join(r, " | "))
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
			tables = append(tables, Table{Page: page, TableIndex: i, Data: data})
		}
	}
	return &Extraction{Text: sb.String(), Tables: tables, PageCount: total}, nil
}

func layoutPage(reader *pdf.Reader, n int) (pl *pageLayout, err error) {
	defer func() {
		if r := recover(); r != nil {
			pl, err = nil, fmt.Errorf("%v", r)
		}
	}()
	p := reader.Page(n)
	if p.V.IsNull() {
		return &pageLayout{}, nil
	}
	content := p.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}
	return buildLayout(glyphs), nil
}
