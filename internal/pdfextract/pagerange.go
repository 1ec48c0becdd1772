// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

// PageSpan is a requested page range: 1-based, inclusive, zero = unset.
type PageSpan struct {
	Start int
	End   int
}

// Range is a resolved 0-based half-open page range.
type Range struct {
	From int
	To   int
}

// Resolve maps the span onto a document of total pages:
// [max(0, start-1), min(total, end)) with start defaulting to 1 and end to
// total. A span whose start lies after its end resolves to an empty range.
func (s PageSpan) Resolve(total int) Range {
	from := 0
	if s.Start > 0 {
		from = s.Start - 1
	}
	to := total
	if s.End > 0 && s.End < total {
		to = s.End
	}
	return Range{From: from, To: to}
}

// Empty reports whether the range selects no pages.
func (r Range) Empty() bool { return r.To <= r.From }

// Len returns the number of pages in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.To - r.From
}

// Pages returns the 1-based page numbers in the range.
func (r Range) Pages() []int {
	pages := make([]int, 0, r.Len())
	for i := r.From; i < r.To; i++ {
		pages = append(pages, i+1)
	}
	return pages
}
