package detector

import (
	"context"
	"fmt"

	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/schema"
)

const (
	subjectVerbConfidence    = 0.6
	determinerNounConfidence = 0.7
)

// Agreement applies syntactic-pattern heuristics over the parsed form:
// subject-verb number agreement (dependency-based) and determiner-noun
// number agreement. Without POS annotations it emits nothing; without
// dependencies it falls back to adjacency for the determiner check only.
type Agreement struct{}

func NewAgreement() *Agreement {
	return &Agreement{}
}

func (a *Agreement) Name() string { return "agreement" }

func (a *Agreement) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	if doc == nil || !doc.HasPOS {
		return nil, nil
	}

	var findings []schema.Finding
	if doc.HasDeps {
		findings = append(findings, subjectVerbFindings(doc)...)
		findings = append(findings, determinerNounDeps(doc)...)
	} else {
		findings = append(findings, determinerNounAdjacent(doc)...)
	}
	return findings, nil
}

func subjectVerbFindings(doc *nlp.Doc) []schema.Finding {
	var findings []schema.Finding
	for _, tok := range doc.Tokens {
		if tok.Dep != "nsubj" || tok.Head < 0 || tok.Head >= len(doc.Tokens) {
			continue
		}
		verb := doc.Tokens[tok.Head]
		if verb.POS != "VERB" && verb.POS != "AUX" {
			continue
		}
		if tok.Number == "" || verb.Number == "" || tok.Number == verb.Number {
			continue
		}
		// Past-tense agreement is implicit except for "was"/"were".
		if verb.Tag == "VBD" && verb.Lemma != "be" {
			continue
		}
		start, end := tok.Start, verb.End
		if verb.Start < start {
			start, end = verb.Start, tok.End
		}
		findings = append(findings, schema.Finding{
			Category:   schema.CategoryAgreement,
			Message:    fmt.Sprintf("Possible subject-verb agreement error: %q (%s) vs %q (%s)", tok.Text, tok.Number, verb.Text, verb.Number),
			Start:      start,
			End:        end,
			Confidence: subjectVerbConfidence,
			Source:     "syntax_rule",
		})
	}
	return findings
}

func determinerNounDeps(doc *nlp.Doc) []schema.Finding {
	var findings []schema.Finding
	for _, tok := range doc.Tokens {
		if tok.POS != "DET" || tok.Head < 0 || tok.Head >= len(doc.Tokens) {
			continue
		}
		noun := doc.Tokens[tok.Head]
		if noun.POS != "NOUN" {
			continue
		}
		if f, ok := determinerMismatch(tok, noun); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// determinerNounAdjacent checks "this apples"-style mismatches when only POS
// tags are available, pairing each determiner with the next noun before any
// verb or punctuation.
func determinerNounAdjacent(doc *nlp.Doc) []schema.Finding {
	var findings []schema.Finding
	for i, tok := range doc.Tokens {
		if tok.POS != "DET" {
			continue
		}
		for j := i + 1; j < len(doc.Tokens); j++ {
			next := doc.Tokens[j]
			if next.POS == "ADJ" {
				continue
			}
			if next.POS == "NOUN" {
				if f, ok := determinerMismatch(tok, next); ok {
					findings = append(findings, f)
				}
			}
			break
		}
	}
	return findings
}

func determinerMismatch(det, noun nlp.Token) (schema.Finding, bool) {
	if det.Number == "" || noun.Number == "" || det.Number == noun.Number {
		return schema.Finding{}, false
	}
	return schema.Finding{
		Category:   schema.CategoryAgreement,
		Message:    fmt.Sprintf("Determiner agreement error: %q (%s) vs %q (%s)", det.Text, det.Number, noun.Text, noun.Number),
		Start:      det.Start,
		End:        noun.End,
		Confidence: determinerNounConfidence,
		Source:     "syntax_rule",
	}, true
}
