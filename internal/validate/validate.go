// Package validate gates the pipeline on dataset-level quality checks of the
// transformed trip collection.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"taxietl/internal/source"
)

// Report is the outcome of a validation pass.
//
// Null detection is diagnostic only: NullCounts never contributes to OK.
// The transformer coerces missing values to zero, so a non-zero null count
// here points at an upstream bug rather than bad input data; the counts are
// surfaced for logging but a non-empty dataset always passes.
type Report struct {
	Rows       int
	NullCounts map[string]int // field name -> number of nil values
	Issues     []string       // blocking findings; empty means pass
}

// OK reports whether the dataset passed validation.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// String renders the report for logs.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows=%d", r.Rows)
	if len(r.Issues) > 0 {
		fmt.Fprintf(&b, " issues=%q", r.Issues)
	}
	if len(r.NullCounts) > 0 {
		// Stable field order for readable logs.
		fields := make([]string, 0, len(r.NullCounts))
		for f := range r.NullCounts {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		b.WriteString(" nulls=")
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s:%d", f, r.NullCounts[f])
		}
	}
	return b.String()
}

// Check runs the quality checks over rows.
//
// An empty collection is the only blocking condition. Nil values are counted
// per field and reported, but do not fail the check; callers decide what to
// log.
func Check(rows []source.Record) Report {
	rep := Report{Rows: len(rows)}

	if len(rows) == 0 {
		rep.Issues = append(rep.Issues, "dataset is empty")
		return rep
	}

	for _, rec := range rows {
		for field, v := range rec {
			if v == nil {
				if rep.NullCounts == nil {
					rep.NullCounts = make(map[string]int)
				}
				rep.NullCounts[field]++
			}
		}
	}

	return rep
}
