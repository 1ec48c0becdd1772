// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvprofile

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{7,}$`)

	printer = message.NewPrinter(language.English)
)

// Quality holds completeness, consistency and validity percentages.
type Quality struct {
	Completeness *OrderedMap[Number] `json:"completeness"`
	Consistency  *OrderedMap[Number] `json:"consistency"`
	Validity     *OrderedMap[Number] `json:"validity"`
}

// Insights holds human-readable findings and recommendations.
type Insights struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// percent returns num/den*100, NaN when den is zero.
func percent(num, den float64) Number {
	if den == 0 {
		return Number(math.NaN())
	}
	return Number(num / den * 100)
}

func dataQuality(f *frame) *Quality {
	q := &Quality{
		Completeness: NewOrderedMap[Number](),
		Consistency:  NewOrderedMap[Number](),
		Validity:     NewOrderedMap[Number](),
	}

	totalCells, nullCells := 0, 0
	for _, c := range f.columns {
		totalCells += c.len()
		nullCells += c.nullCount()
	}
	q.Completeness.Set("overall_completeness", percent(float64(totalCells-nullCells), float64(totalCells)))
	for _, c := range f.columns {
		q.Completeness.Set(c.name, percent(float64(c.len()-c.nullCount()), float64(c.len())))
	}

	for _, c := range f.columns {
		if c.dtype != DtypeObject || c.len() == 0 {
			continue
		}
		distinct := make(map[string]struct{})
		lower := make(map[string]struct{})
		var values []string
		for i, s := range c.strs {
			if c.null[i] {
				continue
			}
			values = append(values, s)
			distinct[s] = struct{}{}
			lower[strings.ToLower(s)] = struct{}{}
		}
		ratio := 1.0
		if len(distinct) > 0 {
			ratio = float64(len(lower)) / float64(len(distinct))
		}
		q.Consistency.Set(c.name, Number(ratio*100))

		name := strings.ToLower(c.name)
		if strings.Contains(name, "mail") {
			q.Validity.Set(c.name+"_email_format", matchPercent(emailPattern, values))
		}
		if strings.Contains(name, "phone") || strings.Contains(name, "tel") {
			q.Validity.Set(c.name+"_phone_format", matchPercent(phonePattern, values))
		}
	}
	return q
}

func matchPercent(re *regexp.Regexp, values []string) Number {
	n := 0
	for _, v := range values {
		if re.MatchString(v) {
			n++
		}
	}
	return percent(float64(n), float64(len(values)))
}

func generateInsights(f *frame, a *Analysis) *Insights {
	rows, cols := f.rows, len(f.columns)
	ins := &Insights{Insights: []string{}, Recommendations: []string{}}

	ins.Insights = append(ins.Insights, printer.Sprintf("Dataset contains %d rows and %d columns", rows, cols))

	var nullCols []string
	for _, name := range a.NullCounts.Keys() {
		if n, _ := a.NullCounts.Get(name); n > 0 {
			nullCols = append(nullCols, name)
		}
	}
	if len(nullCols) > 0 {
		shown := nullCols[:min(5, len(nullCols))]
		ins.Insights = append(ins.Insights,
			fmt.Sprintf("Missing data found in %d columns: %s", len(nullCols), strings.Join(shown, ", ")))
	}

	if a.DuplicateRows > 0 {
		ins.Insights = append(ins.Insights, fmt.Sprintf("Found %d duplicate rows (%.1f%%)",
			a.DuplicateRows, float64(a.DuplicateRows)/float64(rows)*100))
	}

	numeric, text := 0, 0
	for _, name := range a.Dtypes.Keys() {
		dt, _ := a.Dtypes.Get(name)
		switch {
		case strings.Contains(dt, "int") || strings.Contains(dt, "float"):
			numeric++
		case dt == DtypeObject:
			text++
		}
	}
	ins.Insights = append(ins.Insights, fmt.Sprintf("Data types: %d numeric, %d text columns", numeric, text))
	ins.Insights = append(ins.Insights, fmt.Sprintf("Memory usage: %.2f MB", float64(a.MemoryUsage)/(1024*1024)))

	if a.DuplicateRows > 0 {
		ins.Recommendations = append(ins.Recommendations, "Consider removing duplicate rows to improve data quality")
	}
	if len(nullCols) > 0 {
		ins.Recommendations = append(ins.Recommendations, "Address missing data through imputation or removal")
	}

	var ids []string
	for _, c := range f.columns {
		if rows > 0 && c.nullCount() == 0 && c.unique() == rows {
			ids = append(ids, c.name)
		}
	}
	if len(ids) > 0 {
		ins.Recommendations = append(ins.Recommendations,
			fmt.Sprintf("Columns %s appear to be unique identifiers", strings.Join(ids, ", ")))
	}
	return ins
}
