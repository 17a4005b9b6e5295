package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/schema"
)

const (
	passiveConfidence      = 0.6
	longSentenceConfidence = 0.5
	wordyConfidence        = 0.8

	// DefaultLongSentenceTokens is the token count past which a sentence is
	// flagged as hard to read.
	DefaultLongSentenceTokens = 40
)

// wordyPhrases maps verbose constructions to their plain replacements.
// Lookup is case-insensitive over the raw text.
var wordyPhrases = map[string]string{
	"in order to":           "to",
	"due to the fact that":  "because",
	"at this point in time": "now",
	"utilize":               "use",
}

// Style flags passive voice, overlong sentences and wordy constructions.
type Style struct {
	longSentenceTokens int
}

func NewStyle(longSentenceTokens int) *Style {
	if longSentenceTokens <= 0 {
		longSentenceTokens = DefaultLongSentenceTokens
	}
	return &Style{longSentenceTokens: longSentenceTokens}
}

func (s *Style) Name() string { return "style" }

func (s *Style) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	if doc == nil {
		return nil, nil
	}

	var findings []schema.Finding
	if doc.HasDeps {
		findings = append(findings, passiveVoiceFindings(doc)...)
	}
	findings = append(findings, s.longSentenceFindings(doc)...)
	findings = append(findings, wordyFindings(text)...)
	return findings, nil
}

func passiveVoiceFindings(doc *nlp.Doc) []schema.Finding {
	var findings []schema.Finding
	for _, tok := range doc.Tokens {
		if tok.Dep != "auxpass" || tok.Head < 0 || tok.Head >= len(doc.Tokens) {
			continue
		}
		verb := doc.Tokens[tok.Head]
		end := verb.End
		if end <= tok.Start {
			end = tok.End
		}
		findings = append(findings, schema.Finding{
			Category:   schema.CategoryStyle,
			Message:    "Passive voice detected. Consider active voice.",
			Start:      tok.Start,
			End:        end,
			Confidence: passiveConfidence,
			Source:     "style_heuristic_passive",
		})
	}
	return findings
}

func (s *Style) longSentenceFindings(doc *nlp.Doc) []schema.Finding {
	var findings []schema.Finding
	for _, sent := range doc.Sentences {
		if sent.TokenEnd-sent.TokenStart <= s.longSentenceTokens {
			continue
		}
		findings = append(findings, schema.Finding{
			Category:   schema.CategoryStyle,
			Message:    fmt.Sprintf("Sentence is very long (%d+ tokens). Consider splitting.", s.longSentenceTokens),
			Start:      sent.Start,
			End:        sent.End,
			Confidence: longSentenceConfidence,
			Source:     "style_heuristic_length",
		})
	}
	return findings
}

func wordyFindings(text string) []schema.Finding {
	var findings []schema.Finding
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		// Lowercasing shifted byte offsets (rare non-ASCII case folding);
		// search the original text instead so spans stay valid.
		lower = text
	}
	for phrase, replacement := range wordyPhrases {
		for start := 0; ; {
			idx := strings.Index(lower[start:], phrase)
			if idx < 0 {
				break
			}
			idx += start
			findings = append(findings, schema.Finding{
				Category:    schema.CategoryStyle,
				Message:     fmt.Sprintf("Wordy construction %q.", phrase),
				Start:       idx,
				End:         idx + len(phrase),
				Suggestions: []string{replacement},
				Confidence:  wordyConfidence,
				Source:      "style_heuristic_wordy",
			})
			start = idx + len(phrase)
		}
	}
	return findings
}
