package detector

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/scribe-ai/scribe/internal/dict"
	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/schema"
)

const spellingConfidence = 0.9

// Spelling flags word tokens that are absent from the frequency dictionary,
// suggesting the closest in-dictionary replacements. Proper nouns, URLs,
// emails and punctuation are skipped.
type Spelling struct {
	dictionary *dict.Dictionary
}

func NewSpelling(d *dict.Dictionary) *Spelling {
	return &Spelling{dictionary: d}
}

func (s *Spelling) Name() string { return "spelling" }

func (s *Spelling) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	if s.dictionary == nil {
		return nil, fmt.Errorf("spelling dictionary not loaded")
	}
	if doc == nil {
		return nil, nil
	}

	var findings []schema.Finding
	for _, tok := range doc.Tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !tok.IsAlpha || tok.IsPunct || tok.LikeURL || tok.LikeEmail || tok.POS == "PROPN" {
			continue
		}

		candidates := s.dictionary.Lookup(tok.Text)
		if len(candidates) == 0 {
			continue
		}

		// The token appearing verbatim among the candidates means it is a
		// dictionary word, not a misspelling.
		exact := false
		suggestions := make([]string, 0, len(candidates))
		for _, c := range candidates {
			if strings.EqualFold(c.Term, tok.Text) {
				exact = true
				break
			}
			suggestions = append(suggestions, matchCase(c.Term, tok.Text))
		}
		if exact {
			continue
		}

		findings = append(findings, schema.Finding{
			Category:    schema.CategorySpelling,
			Message:     fmt.Sprintf("Possible spelling error: %q", tok.Text),
			Start:       tok.Start,
			End:         tok.End,
			Suggestions: schema.CapSuggestions(suggestions),
			Confidence:  spellingConfidence,
			Source:      "symspell",
		})
	}
	return findings, nil
}

// matchCase transfers the leading capitalization of the original token onto
// a suggested replacement.
func matchCase(suggestion, original string) string {
	if suggestion == "" || original == "" {
		return suggestion
	}
	first := []rune(original)[0]
	if !unicode.IsUpper(first) {
		return suggestion
	}
	rs := []rune(suggestion)
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}
