// Package resolve reduces the concatenated finding lists from all detectors
// to a minimal, overlap-free, deterministically ordered subset.
package resolve

import (
	"sort"

	"github.com/scribe-ai/scribe/internal/schema"
)

// Resolve returns the subset of findings that no other finding in the input
// defeats, sorted ascending by start offset.
//
// Two findings conflict when their [start, end) spans intersect with strictly
// positive length. Within a conflicting pair the winner is decided by
// category priority, then confidence, then canonical order, so any group of
// mutually overlapping findings is strictly totally ordered and exactly one
// side of every pair is eliminated. Defeat is evaluated against the whole
// input set, not only against already-accepted survivors, which makes the
// result independent of the order detectors were invoked in.
//
// The input slice is not modified. Resolve is idempotent and a pure function
// of the input multiset.
func Resolve(findings []schema.Finding) []schema.Finding {
	if len(findings) == 0 {
		return []schema.Finding{}
	}

	ordered := make([]schema.Finding, len(findings))
	copy(ordered, findings)
	sort.Sort(canonical(ordered))

	defeated := make([]bool, len(ordered))

	// Interval sweep: ordered is sorted by start, so every pair overlapping
	// with ordered[i] at a later index j satisfies ordered[j].Start < ordered[i].End.
	// Pairs where the earlier item ends first are found from that item's own
	// sweep, so each conflicting pair is examined exactly once.
	for i := range ordered {
		for j := i + 1; j < len(ordered) && ordered[j].Start < ordered[i].End; j++ {
			if !ordered[i].Overlaps(ordered[j]) {
				continue
			}
			if loses(ordered[i], ordered[j]) {
				defeated[i] = true
			} else {
				defeated[j] = true
			}
		}
	}

	out := make([]schema.Finding, 0, len(ordered))
	for i, f := range ordered {
		if !defeated[i] {
			out = append(out, f)
		}
	}
	return out
}

// loses reports whether earlier (the canonically earlier member of an
// overlapping pair) is defeated by later. Higher category priority wins
// outright; equal priority falls through to confidence; a full tie goes to
// the canonically earlier finding.
func loses(earlier, later schema.Finding) bool {
	pe, pl := earlier.Category.Priority(), later.Category.Priority()
	if pl != pe {
		return pl > pe
	}
	return later.Confidence > earlier.Confidence
}

// canonical is the processing (and candidate output) order: start ascending,
// category priority descending, confidence descending. The remaining keys
// only break exact ties so the order is total and invariant under any
// permutation of the input.
type canonical []schema.Finding

func (c canonical) Len() int      { return len(c) }
func (c canonical) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

func (c canonical) Less(i, j int) bool {
	a, b := c[i], c[j]
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if pa, pb := a.Category.Priority(), b.Category.Priority(); pa != pb {
		return pa > pb
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.End != b.End {
		return a.End < b.End
	}
	if oa, ob := a.Category.Ordinal(), b.Category.Ordinal(); oa != ob {
		return oa < ob
	}
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	return a.Source < b.Source
}
