// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// StreamStrategy reads the strings shown by text operators in each page's
// decoded content stream. It ignores positions beyond line breaks and
// recovers text from PDFs whose layout the layout strategy cannot model.
type StreamStrategy struct{}

func (StreamStrategy) Name() string { return "stream" }

func (StreamStrategy) Extract(ctx context.Context, path string, span PageSpan, _ Options) (*Extraction, error) {
	pctx, err := readContext(path)
	if err != nil {
		return nil, fmt.Errorf("stream extraction failed: %s", truncate(err.Error(), 100))
	}

	var sb strings.Builder
	for _, page := range span.Resolve(pctx.PageCount).Pages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageStreamText(pctx, page)
		if err != nil {
			sb.WriteString(errorMarker(page, "Error", err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(pageMarker(page, ""))
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return &Extraction{Text: sb.String(), PageCount: pctx.PageCount}, nil
}

func pageStreamText(pctx *model.Context, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	r, err := pdfcpu.ExtractPageContent(pctx, page)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return contentText(data), nil
}
