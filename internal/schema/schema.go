package schema

import (
	"errors"
	"fmt"
)

// Category classifies a detected issue. The set is closed: detectors may not
// invent new categories at runtime.
type Category string

const (
	CategorySpelling    Category = "spelling"
	CategoryGrammar     Category = "grammar"
	CategoryAgreement   Category = "agreement"
	CategoryPunctuation Category = "punctuation"
	CategoryStyle       Category = "style"
)

// categoryPriority is the fixed tie-break order used during conflict
// resolution. Higher wins. It is not a severity ranking.
var categoryPriority = map[Category]int{
	CategorySpelling:    3,
	CategoryGrammar:     2,
	CategoryAgreement:   2,
	CategoryPunctuation: 2,
	CategoryStyle:       1,
}

// categoryOrdinal gives every category a distinct rank so the canonical sort
// is a total order even between categories of equal priority.
var categoryOrdinal = map[Category]int{
	CategorySpelling:    0,
	CategoryGrammar:     1,
	CategoryAgreement:   2,
	CategoryPunctuation: 3,
	CategoryStyle:       4,
}

// Priority returns the conflict-resolution priority tier for c.
// Unknown categories rank below everything.
func (c Category) Priority() int {
	return categoryPriority[c]
}

// Ordinal returns a stable per-category rank for deterministic ordering.
func (c Category) Ordinal() int {
	if o, ok := categoryOrdinal[c]; ok {
		return o
	}
	return len(categoryOrdinal)
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryPriority[c]
	return ok
}

// MaxSuggestions caps the replacement candidates carried by a finding.
const MaxSuggestions = 3

// Finding is a single detected issue over the normalized input text.
// The span [Start, End) is in byte offsets. Findings are immutable values:
// detectors create them, the resolver only selects among them.
type Finding struct {
	Category    Category `json:"category"`
	Message     string   `json:"message"`
	Start       int      `json:"start_index"`
	End         int      `json:"end_index"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
	Source      string   `json:"source"`
}

// Overlaps reports whether the spans of f and other intersect with strictly
// positive length. Touching spans do not conflict.
func (f Finding) Overlaps(other Finding) bool {
	lo := f.Start
	if other.Start > lo {
		lo = other.Start
	}
	hi := f.End
	if other.End < hi {
		hi = other.End
	}
	return hi-lo > 0
}

// Validate checks the finding's invariants against the analyzed text length.
// A violation here is a programming defect in a detector, not an
// environmental condition.
func (f Finding) Validate(textLen int) error {
	if !f.Category.Valid() {
		return fmt.Errorf("unknown category %q", f.Category)
	}
	if f.Message == "" {
		return errors.New("message must not be empty")
	}
	if f.Start < 0 || f.Start > f.End || f.End > textLen {
		return fmt.Errorf("span [%d,%d) out of bounds for text of %d bytes", f.Start, f.End, textLen)
	}
	if f.Confidence < 0.0 || f.Confidence > 1.0 {
		return fmt.Errorf("confidence %v outside [0,1]", f.Confidence)
	}
	return nil
}

// CapSuggestions trims a candidate list to MaxSuggestions, preserving order.
func CapSuggestions(s []string) []string {
	if len(s) <= MaxSuggestions {
		return s
	}
	return s[:MaxSuggestions]
}
