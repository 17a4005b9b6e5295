package schema

import (
	"fmt"

	"github.com/scribe-ai/scribe/internal/readability"
)

// Response is the immutable result of one analysis call: the resolved,
// overlap-free finding list sorted by start offset, the readability snapshot,
// and a flag recording whether the optional contextual detector ran.
type Response struct {
	Findings    []Finding           `json:"findings"`
	Readability readability.Metrics `json:"readability"`
	LLMUsed     bool                `json:"llm_used"`
}

// NewResponse validates every finding against the analyzed text length and
// assembles the response. This is the single place span/confidence/category
// invariants are enforced; a violation is a hard construction error.
func NewResponse(findings []Finding, metrics readability.Metrics, llmUsed bool, textLen int) (*Response, error) {
	for i, f := range findings {
		if err := f.Validate(textLen); err != nil {
			return nil, fmt.Errorf("finding %d (%s from %s): %w", i, f.Category, f.Source, err)
		}
	}
	if findings == nil {
		findings = []Finding{}
	}
	return &Response{
		Findings:    findings,
		Readability: metrics,
		LLMUsed:     llmUsed,
	}, nil
}
