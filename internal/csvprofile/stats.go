// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvprofile

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Describe is the numeric summary of one column.
type Describe struct {
	Count Number `json:"count"`
	Mean  Number `json:"mean"`
	Std   Number `json:"std"`
	Min   Number `json:"min"`
	P25   Number `json:"25%"`
	P50   Number `json:"50%"`
	P75   Number `json:"75%"`
	Max   Number `json:"max"`
}

// StringSummary is the object-column summary.
type StringSummary struct {
	UniqueCount int              `json:"unique_count"`
	MostCommon  *OrderedMap[int] `json:"most_common"`
}

// describe computes count, mean, sample standard deviation, min, quartiles
// (linear interpolation) and max over the non-missing values.
func describe(values []float64) Describe {
	var xs []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	nan := Number(math.NaN())
	d := Describe{Count: Number(len(xs)), Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan}
	if len(xs) == 0 {
		return d
	}
	sort.Float64s(xs)

	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(len(xs))
	d.Mean = Number(mean)
	if len(xs) > 1 {
		ss := 0.0
		for _, v := range xs {
			ss += (v - mean) * (v - mean)
		}
		d.Std = Number(math.Sqrt(ss / float64(len(xs)-1)))
	}
	d.Min = Number(xs[0])
	d.Max = Number(xs[len(xs)-1])
	d.P25 = Number(quantile(xs, 0.25))
	d.P50 = Number(quantile(xs, 0.50))
	d.P75 = Number(quantile(xs, 0.75))
	return d
}

// quantile interpolates linearly between the closest ranks of sorted xs.
func quantile(xs []float64, q float64) float64 {
	pos := q * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return xs[lo]
	}
	frac := pos - float64(lo)
	return xs[lo] + (xs[hi]-xs[lo])*frac
}

// valueCounts returns up to limit values of an object column by descending
// frequency; ties keep first-occurrence order.
func valueCounts(c *column, limit int) *OrderedMap[int] {
	counts := make(map[string]int)
	var order []string
	for i, s := range c.strs {
		if c.null[i] {
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	out := NewOrderedMap[int]()
	for i, s := range order {
		if i == limit {
			break
		}
		out.Set(s, counts[s])
	}
	return out
}

// duplicateRows counts rows identical to an earlier row. Missing values
// compare equal to each other.
func duplicateRows(f *frame) int {
	seen := make(map[string]struct{}, f.rows)
	dups := 0
	for i := 0; i < f.rows; i++ {
		parts := make([]string, len(f.columns))
		for j, c := range f.columns {
			parts[j] = c.key(i)
		}
		k := strings.Join(parts, "\x1f")
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

// Memory model constants for memoryUsage, in bytes.
const (
	rangeIndexBytes = 132
	pointerBytes    = 8
	floatObjBytes   = 24
)

// memoryUsage estimates the in-memory footprint of the frame the way a
// dataframe reports deep memory usage: fixed-width numeric columns, one
// byte per bool, and pointer plus string object per object cell.
func memoryUsage(f *frame) int64 {
	total := int64(rangeIndexBytes)
	for _, c := range f.columns {
		n := int64(c.len())
		switch c.dtype {
		case DtypeInt64, DtypeFloat64:
			total += 8 * n
		case DtypeBool:
			total += n
		default:
			for i, s := range c.strs {
				total += pointerBytes
				if c.null[i] {
					total += floatObjBytes
					continue
				}
				total += stringObjectSize(s)
			}
		}
	}
	return total
}

// stringObjectSize is the size of a compact string object holding s.
func stringObjectSize(s string) int64 {
	n := int64(utf8.RuneCountInString(s))
	widest := rune(0)
	for _, r := range s {
		widest = max(widest, r)
	}
	switch {
	case widest < 0x80:
		return 49 + n
	case widest <= 0xFF:
		return 73 + n
	case widest <= 0xFFFF:
		return 74 + 2*n
	default:
		return 76 + 4*n
	}
}
