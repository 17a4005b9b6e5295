package schema

import (
	"strings"
	"testing"

	"github.com/scribe-ai/scribe/internal/readability"
)

func TestCategoryPriorityTiers(t *testing.T) {
	if CategorySpelling.Priority() <= CategoryGrammar.Priority() {
		t.Fatalf("spelling must outrank grammar")
	}
	if CategoryGrammar.Priority() != CategoryAgreement.Priority() {
		t.Fatalf("grammar and agreement must share a tier")
	}
	if CategoryGrammar.Priority() != CategoryPunctuation.Priority() {
		t.Fatalf("grammar and punctuation must share a tier")
	}
	if CategoryStyle.Priority() >= CategoryGrammar.Priority() {
		t.Fatalf("style must rank below grammar")
	}
	if Category("nonsense").Priority() >= CategoryStyle.Priority() {
		t.Fatalf("unknown categories must rank below everything")
	}
}

func TestCategoryOrdinalIsTotal(t *testing.T) {
	cats := []Category{CategorySpelling, CategoryGrammar, CategoryAgreement, CategoryPunctuation, CategoryStyle}
	seen := map[int]Category{}
	for _, c := range cats {
		o := c.Ordinal()
		if prev, dup := seen[o]; dup {
			t.Fatalf("ordinal %d shared by %s and %s", o, prev, c)
		}
		seen[o] = c
	}
}

func TestOverlaps(t *testing.T) {
	a := Finding{Start: 0, End: 5}

	if !a.Overlaps(Finding{Start: 4, End: 10}) {
		t.Fatalf("[0,5) and [4,10) must overlap")
	}
	if a.Overlaps(Finding{Start: 5, End: 10}) {
		t.Fatalf("touching spans [0,5) and [5,10) must not overlap")
	}
	if a.Overlaps(Finding{Start: 7, End: 9}) {
		t.Fatalf("disjoint spans must not overlap")
	}
	zero := Finding{Start: 2, End: 2}
	if a.Overlaps(zero) || zero.Overlaps(a) {
		t.Fatalf("zero-length spans must never conflict")
	}
}

func TestFindingValidate(t *testing.T) {
	valid := Finding{
		Category:   CategorySpelling,
		Message:    "Possible spelling error",
		Start:      0,
		End:        4,
		Confidence: 0.9,
		Source:     "symspell",
	}
	if err := valid.Validate(10); err != nil {
		t.Fatalf("valid finding rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Finding)
	}{
		{"unknown category", func(f *Finding) { f.Category = "typo" }},
		{"empty message", func(f *Finding) { f.Message = "" }},
		{"negative start", func(f *Finding) { f.Start = -1 }},
		{"inverted span", func(f *Finding) { f.Start, f.End = 4, 2 }},
		{"end past text", func(f *Finding) { f.End = 11 }},
		{"confidence above one", func(f *Finding) { f.Confidence = 1.5 }},
		{"negative confidence", func(f *Finding) { f.Confidence = -0.1 }},
	}
	for _, tc := range cases {
		f := valid
		tc.mutate(&f)
		if err := f.Validate(10); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestCapSuggestions(t *testing.T) {
	long := []string{"a", "b", "c", "d", "e"}
	capped := CapSuggestions(long)
	if len(capped) != MaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", MaxSuggestions, len(capped))
	}
	if capped[0] != "a" || capped[2] != "c" {
		t.Fatalf("cap must preserve order, got %v", capped)
	}

	short := []string{"x"}
	if got := CapSuggestions(short); len(got) != 1 {
		t.Fatalf("short list must pass through, got %v", got)
	}
}

func TestNewResponse_NilFindingsBecomesEmptyList(t *testing.T) {
	resp, err := NewResponse(nil, readability.Default(), false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Findings == nil {
		t.Fatalf("findings must serialize as [], not null")
	}
	if len(resp.Findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(resp.Findings))
	}
}

func TestNewResponse_RejectsInvalidFinding(t *testing.T) {
	bad := Finding{
		Category:   CategoryGrammar,
		Message:    "out of range",
		Start:      5,
		End:        50,
		Confidence: 0.8,
		Source:     "llm_context",
	}
	_, err := NewResponse([]Finding{bad}, readability.Default(), true, 10)
	if err == nil {
		t.Fatalf("expected construction error for out-of-bounds span")
	}
	if !strings.Contains(err.Error(), "llm_context") {
		t.Fatalf("error should name the offending source, got: %v", err)
	}
}
