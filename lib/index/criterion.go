package index

import "fmt"

// Criterion selects index entries, either by an exact term or by an inclusive
// range of terms. Terms are scalars (strings or integers); whether a term matches
// the type of the index is only checked by the server.
type Criterion struct {
	Start any // exact term, or the lower bound of a range
	End   any // upper bound of a range (unused for exact matches)

	isRange bool
}

// Exact returns a criterion matching a single term.
func Exact(term any) Criterion {
	return Criterion{Start: term}
}

// Range returns a criterion matching all terms in [start, end].
func Range(start, end any) Criterion {
	return Criterion{Start: start, End: end, isRange: true}
}

// IsRange reports whether the criterion is a range.
func (c Criterion) IsRange() bool {
	return c.isRange
}

// Term returns the exact term (or the lower bound of a range).
func (c Criterion) Term() any {
	return c.Start
}

// String returns a readable representation ("term" or "start..end").
func (c Criterion) String() string {
	if c.isRange {
		return fmt.Sprintf("%v..%v", c.Start, c.End)
	}
	return fmt.Sprintf("%v", c.Start)
}
