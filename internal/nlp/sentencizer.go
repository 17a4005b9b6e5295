package nlp

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentencizer is the minimal fallback provider: tokenization and sentence
// segmentation only, no tagging. It mirrors the degraded mode of a blank
// language model and never fails.
type Sentencizer struct{}

// NewSentencizer returns the fallback provider.
func NewSentencizer() *Sentencizer {
	return &Sentencizer{}
}

// Parse splits text into tokens and sentences by byte offset.
func (s *Sentencizer) Parse(ctx context.Context, text string) (*Doc, error) {
	doc := &Doc{
		Text:   text,
		Tokens: Tokenize(text),
	}
	doc.Sentences = segmentSentences(text, doc.Tokens)
	return doc, nil
}

// Tokenize splits text into word and punctuation tokens with byte offsets.
// Word characters are letters, digits, apostrophes and hyphens inside a word;
// runs of other non-space characters become punctuation tokens rune by rune.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		emitWordRun(&tokens, text, start, end)
		start = -1
	}
	for idx, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(idx)
		case isWordRune(r):
			if start < 0 {
				start = idx
			}
		default:
			flush(idx)
			tokens = append(tokens, punctToken(text, idx, idx+len(string(r))))
		}
	}
	flush(len(text))
	return tokens
}

// emitWordRun splits one run of word runes into leading punctuation, the word
// core and trailing punctuation. Dots, slashes and colons count as word runes
// so URLs and emails stay whole, but an ordinary word must not swallow its
// sentence terminator.
func emitWordRun(tokens *[]Token, text string, start, end int) {
	if run := text[start:end]; likeURL(run) || likeEmail(run) {
		*tokens = append(*tokens, makeWordToken(text, start, end))
		return
	}

	lo := start
	for lo < end {
		r, size := utf8.DecodeRuneInString(text[lo:end])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			break
		}
		*tokens = append(*tokens, punctToken(text, lo, lo+size))
		lo += size
	}

	trail := end
	for trail > lo {
		r, size := utf8.DecodeLastRuneInString(text[lo:trail])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			break
		}
		trail -= size
	}

	if trail > lo {
		*tokens = append(*tokens, makeWordToken(text, lo, trail))
	}
	for p := trail; p < end; {
		_, size := utf8.DecodeRuneInString(text[p:end])
		*tokens = append(*tokens, punctToken(text, p, p+size))
		p += size
	}
}

func punctToken(text string, start, end int) Token {
	return Token{
		Text:    text[start:end],
		Start:   start,
		End:     end,
		Head:    -1,
		IsPunct: true,
	}
}

func makeWordToken(text string, start, end int) Token {
	t := Token{
		Text:  text[start:end],
		Start: start,
		End:   end,
		Head:  -1,
	}
	t.IsAlpha = isAlphaWord(t.Text)
	t.LikeURL = likeURL(t.Text)
	t.LikeEmail = likeEmail(t.Text)
	return t
}

func isWordRune(r rune) bool {
	// Keep URL/email-ish runs together so they can be skipped as a unit.
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '\'' || r == '-' || r == '_' || r == '@' || r == '/' || r == ':' || r == '.'
}

func isAlphaWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func likeURL(w string) bool {
	lw := strings.ToLower(w)
	return strings.Contains(lw, "://") || strings.HasPrefix(lw, "www.")
}

func likeEmail(w string) bool {
	at := strings.Index(w, "@")
	return at > 0 && strings.Contains(w[at:], ".")
}

// segmentSentences finds sentence spans over the token stream. A sentence
// ends at '.', '!' or '?' (runs collapse into one boundary) or at a newline.
func segmentSentences(text string, tokens []Token) []Sentence {
	if len(tokens) == 0 {
		return nil
	}
	var sentences []Sentence
	first := 0
	for i, tok := range tokens {
		terminal := tok.IsPunct && (tok.Text == "." || tok.Text == "!" || tok.Text == "?")
		if terminal {
			// Collapse terminator runs like "?!" into the same sentence.
			if i+1 < len(tokens) {
				next := tokens[i+1]
				if next.IsPunct && (next.Text == "." || next.Text == "!" || next.Text == "?") {
					continue
				}
			}
		}
		newlineAfter := i+1 < len(tokens) && strings.ContainsRune(text[tok.End:tokens[i+1].Start], '\n')
		if terminal || newlineAfter || i == len(tokens)-1 {
			sentences = append(sentences, Sentence{
				Start:      tokens[first].Start,
				End:        tok.End,
				TokenStart: first,
				TokenEnd:   i + 1,
			})
			first = i + 1
		}
	}
	return sentences
}
