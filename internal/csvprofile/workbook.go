// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvprofile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// isWorkbook reports whether data looks like an XLSX (zip) container.
func isWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// readWorkbook reads the first sheet of an XLSX workbook as a header row
// and at most maxRows data rows. Leading empty rows are skipped.
func readWorkbook(data []byte, maxRows int) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	start := 0
	for start < len(rows) && len(rows[start]) == 0 {
		start++
	}
	if start == len(rows) {
		return nil, nil, errors.New("no columns to parse from file")
	}
	header := rows[start]

	var out [][]string
	for _, r := range rows[start+1:] {
		if maxRows > 0 && len(out) == maxRows {
			break
		}
		if len(r) == 0 {
			continue
		}
		if len(r) > len(header) {
			r = r[:len(header)]
		}
		out = append(out, r)
	}
	return header, out, nil
}
