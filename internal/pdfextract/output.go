// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the serializer used by Write.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user-supplied format name to a Format. Unknown names
// fall back to text.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMarkdown, "md":
		return FormatMarkdown
	case FormatJSON:
		return FormatJSON
	default:
		return FormatText
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// Write serializes res to base.<ext> and returns the path written. Parent
// directories are created as needed.
func Write(res *Result, base string, f Format) (string, error) {
	path := base + "." + f.Ext()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}

	var data []byte
	switch f {
	case FormatMarkdown:
		data = []byte(RenderMarkdown(res))
	case FormatJSON:
		b, err := MarshalJSON(res)
		if err != nil {
			return "", err
		}
		data = b
	default:
		data = []byte(res.Text)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

// MarshalJSON renders res as two-space indented JSON without HTML escaping.
func MarshalJSON(res *Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderMarkdown renders a summary header, the extracted text, and any
// tables as GFM pipe tables. The first row of each table is its header.
func RenderMarkdown(res *Result) string {
	var b strings.Builder
	b.WriteString("# PDF Extraction Results\n\n")
	fmt.Fprintf(&b, "**Pages:** %s\n", res.ExtractionInfo.PagesProcessed)
	fmt.Fprintf(&b, "**Total Pages:** %d\n", res.ExtractionInfo.TotalPages)
	fmt.Fprintf(&b, "**Characters Extracted:** %d\n\n", res.ExtractionInfo.TextLength)
	fmt.Fprintf(&b, "## Text Content\n\n%s\n", res.Text)

	if len(res.Tables) == 0 {
		return b.String()
	}
	b.WriteString("\n## Extracted Tables\n\n")
	for _, t := range res.Tables {
		fmt.Fprintf(&b, "### Table on Page %d\n\n", t.Page)
		writeMarkdownTable(&b, t.Data)
		b.WriteString("\n")
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, data [][]string) {
	width := 0
	for _, r := range data {
		width = max(width, len(r))
	}
	if width == 0 {
		return
	}
	for i, r := range data {
		cells := make([]string, width)
		for j := range cells {
			if j < len(r) {
				cells[j] = markdownCell(r[j])
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sep := make([]string, width)
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
