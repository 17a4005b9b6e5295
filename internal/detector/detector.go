// Package detector defines the contract every checking source satisfies and
// the fixed set of implementations: spelling, grammar service, syntactic
// agreement heuristics, style heuristics and the optional LLM contextual
// checker.
package detector

import (
	"context"

	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/schema"
)

// Detector produces zero or more findings from the normalized text and the
// shared parsed form. Implementations are pure with respect to their inputs:
// they never mutate text or doc, and tolerate a nil or impoverished doc by
// emitting fewer findings.
//
// A returned error signals a degraded source (unreachable service, missing
// resource); the orchestrator logs it and treats the contribution as empty
// rather than failing the analysis.
type Detector interface {
	Name() string
	Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error)
}

// spanInText is shared by detectors that construct findings from external
// offsets they do not control.
func spanInText(start, end, textLen int) bool {
	return start >= 0 && start < end && end <= textLen
}
