// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvprofile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Column dtypes.
const (
	DtypeInt64   = "int64"
	DtypeFloat64 = "float64"
	DtypeBool    = "bool"
	DtypeObject  = "object"
)

// naTokens are the cell values read as missing.
var naTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true,
	"-1.#IND": true, "-1.#QNAN": true, "-NaN": true, "-nan": true,
	"1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

var (
	trueTokens  = map[string]bool{"True": true, "TRUE": true, "true": true}
	falseTokens = map[string]bool{"False": true, "FALSE": true, "false": true}
)

// column is one typed column of the frame. Numeric columns keep their
// values in nums (NaN for missing); bool columns in bools; object columns
// in strs.
type column struct {
	name  string
	dtype string
	null  []bool
	nums  []float64
	ints  []int64
	bools []bool
	strs  []string
}

func (c *column) len() int { return len(c.null) }

func (c *column) nullCount() int {
	n := 0
	for _, isNull := range c.null {
		if isNull {
			n++
		}
	}
	return n
}

func (c *column) numeric() bool { return c.dtype == DtypeInt64 || c.dtype == DtypeFloat64 }

// value returns the typed value at row i for JSON output.
func (c *column) value(i int) any {
	if c.null[i] {
		return nil
	}
	switch c.dtype {
	case DtypeInt64:
		return c.ints[i]
	case DtypeFloat64:
		return Number(c.nums[i])
	case DtypeBool:
		return c.bools[i]
	default:
		return c.strs[i]
	}
}

// key returns a canonical string for row i, used for uniqueness checks.
func (c *column) key(i int) string {
	if c.null[i] {
		return "\x00"
	}
	switch c.dtype {
	case DtypeInt64:
		return strconv.FormatInt(c.ints[i], 10)
	case DtypeFloat64:
		return strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	case DtypeBool:
		return strconv.FormatBool(c.bools[i])
	default:
		return c.strs[i]
	}
}

// unique counts distinct non-null values.
func (c *column) unique() int {
	seen := make(map[string]struct{})
	for i := range c.null {
		if !c.null[i] {
			seen[c.key(i)] = struct{}{}
		}
	}
	return len(seen)
}

// frame is a parsed table: header names and typed columns of equal length.
type frame struct {
	columns []*column
	rows    int
}

// readRecords splits text into a header and at most maxRows data rows.
// Blank lines are skipped, short rows are padded with missing cells, and
// rows with more fields than the header are rejected.
func readRecords(text string, delim rune, maxRows int) ([]string, [][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("no columns to parse from file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error tokenizing data: %w", err)
	}

	var rows [][]string
	for maxRows <= 0 || len(rows) < maxRows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error tokenizing data: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("error tokenizing data: expected %d fields in line %d, saw %d",
				len(header), line, len(rec))
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// buildFrame names and types the columns of header plus rows.
func buildFrame(header []string, rows [][]string) *frame {
	names := mangleHeader(header)
	f := &frame{rows: len(rows)}
	for j, name := range names {
		cells := make([]string, len(rows))
		null := make([]bool, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = rec[j]
			}
			null[i] = j >= len(rec) || naTokens[cells[i]]
		}
		f.columns = append(f.columns, inferColumn(name, cells, null))
	}
	return f
}

// mangleHeader names blank headers "Unnamed: i" and suffixes duplicates
// with ".1", ".2", ...
func mangleHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for k := 1; seen[name]; k++ {
			name = fmt.Sprintf("%s.%d", h, k)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// inferColumn picks the narrowest dtype that holds every non-null cell:
// int64 (no missing values), float64, bool (no missing values), else
// object. A column with no values at all is float64.
func inferColumn(name string, cells []string, null []bool) *column {
	c := &column{name: name, null: null}

	nonNull, hasNull := 0, false
	allInt, allFloat, allBool := true, true, true
	for i, s := range cells {
		if null[i] {
			hasNull = true
			continue
		}
		nonNull++
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, ok := parseFloat(s); !ok {
				allFloat = false
			}
		}
		if allBool && !trueTokens[s] && !falseTokens[s] {
			allBool = false
		}
	}

	switch {
	case nonNull == 0:
		c.dtype = DtypeFloat64
	case allInt && !hasNull:
		c.dtype = DtypeInt64
	case allFloat:
		c.dtype = DtypeFloat64
	case allBool && !hasNull:
		c.dtype = DtypeBool
	default:
		c.dtype = DtypeObject
	}

	switch c.dtype {
	case DtypeInt64:
		c.ints = make([]int64, len(cells))
		c.nums = make([]float64, len(cells))
		for i, s := range cells {
			v, _ := strconv.ParseInt(s, 10, 64)
			c.ints[i] = v
			c.nums[i] = float64(v)
		}
	case DtypeFloat64:
		c.nums = make([]float64, len(cells))
		for i, s := range cells {
			if null[i] {
				c.nums[i] = math.NaN()
				continue
			}
			c.nums[i], _ = parseFloat(s)
		}
	case DtypeBool:
		c.bools = make([]bool, len(cells))
		for i, s := range cells {
			c.bools[i] = trueTokens[s]
		}
	default:
		c.strs = cells
	}
	return c
}

// parseFloat accepts decimal and exponent notation plus inf/infinity.
func parseFloat(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
