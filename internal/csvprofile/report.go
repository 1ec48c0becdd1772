// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvprofile

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
)

// ColumnReport is one row of the per-column CSV report.
type ColumnReport struct {
	Column       string `csv:"column"`
	Dtype        string `csv:"dtype"`
	NonNull      int    `csv:"non_null"`
	Nulls        int    `csv:"nulls"`
	Unique       int    `csv:"unique"`
	Completeness string `csv:"completeness_pct"`
	Mean         string `csv:"mean"`
	Min          string `csv:"min"`
	Max          string `csv:"max"`
	Top          string `csv:"top_value"`
}

func columnReport(f *frame, a *Analysis) []ColumnReport {
	out := make([]ColumnReport, 0, len(f.columns))
	for _, c := range f.columns {
		r := ColumnReport{
			Column:       c.name,
			Dtype:        c.dtype,
			NonNull:      c.len() - c.nullCount(),
			Nulls:        c.nullCount(),
			Unique:       c.unique(),
			Completeness: formatNumber(percent(float64(c.len()-c.nullCount()), float64(c.len()))),
		}
		if a.NumericSummary != nil {
			if d, ok := a.NumericSummary.Get(c.name); ok {
				r.Mean = formatNumber(d.Mean)
				r.Min = formatNumber(d.Min)
				r.Max = formatNumber(d.Max)
			}
		}
		if a.StringSummary != nil {
			if ss, ok := a.StringSummary.Get(c.name); ok && ss.MostCommon.Len() > 0 {
				r.Top = ss.MostCommon.Keys()[0]
			}
		}
		out = append(out, r)
	}
	return out
}

func formatNumber(n Number) string {
	if n.IsNaN() {
		return ""
	}
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// WriteReport writes the per-column profile of res as CSV.
func WriteReport(w io.Writer, res *Result) error {
	if !res.Success {
		return fmt.Errorf("no profile to report: %s", res.Error)
	}
	data, err := gocsv.MarshalBytes(res.Report)
	if err != nil {
		return fmt.Errorf("encoding column report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
