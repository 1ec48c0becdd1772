// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Maman08/Docklet/internal/ocr"
)

// OCRStrategy rasterizes each page and runs text recognition on it. The
// engine is built lazily so toolchain detection only happens when the
// cheaper strategies found nothing.
type OCRStrategy struct {
	engine func() (*ocr.Engine, error)
	pages  func(path string) (int, error)
}

// NewOCRStrategy creates an OCRStrategy around an engine factory.
func NewOCRStrategy(engine func() (*ocr.Engine, error)) *OCRStrategy {
	return &OCRStrategy{engine: engine, pages: pageCount}
}

func (s *OCRStrategy) Name() string { return "ocr" }

func (s *OCRStrategy) Extract(ctx context.Context, path string, span PageSpan, _ Options) (*Extraction, error) {
	eng, err := s.engine()
	if err != nil {
		return nil, fmt.Errorf("OCR extraction failed: %w", err)
	}
	document, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("OCR extraction failed: %w", err)
	}
	total, err := s.pages(path)
	if err != nil {
		return nil, fmt.Errorf("OCR extraction failed: %s", truncate(err.Error(), 100))
	}

	var sb strings.Builder
	for _, page := range span.Resolve(total).Pages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := recognizePage(ctx, eng, document, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			sb.WriteString(errorMarker(page, "OCR Error", err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(pageMarker(page, " (OCR)"))
		sb.WriteString(strings.TrimRight(text, "\n\f "))
		sb.WriteString("\n")
	}
	return &Extraction{Text: sb.String(), PageCount: total}, nil
}

func recognizePage(ctx context.Context, eng *ocr.Engine, document []byte, page int) (string, error) {
	img, err := eng.RenderPage(ctx, document, page)
	if err != nil {
		return "", err
	}
	return eng.Recognize(ctx, img)
}

func pageCount(path string) (int, error) {
	pctx, err := readContext(path)
	if err != nil {
		return 0, err
	}
	return pctx.PageCount, nil
}
