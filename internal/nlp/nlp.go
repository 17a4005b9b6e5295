// Package nlp defines the shared parsed representation handed to every
// detector, plus the providers that produce it. A Doc is computed once per
// analysis call and is read-only afterwards.
package nlp

import "context"

// Token is one token of the analyzed text with byte offsets into it.
// POS/Tag/Dep/Number are empty when the producing provider cannot supply
// them; detectors emit fewer findings in that case instead of failing.
type Token struct {
	Text  string
	Start int
	End   int

	POS    string // coarse universal tag, e.g. NOUN, VERB, DET, PROPN, PUNCT
	Tag    string // fine-grained Penn Treebank tag, e.g. NNS, VBZ
	Dep    string // dependency relation to Head, e.g. nsubj, auxpass
	Head   int    // token index of the syntactic head, -1 when unknown
	Lemma  string
	Number string // morphological number: "Sing", "Plur" or ""
	Person string // morphological person: "1", "2", "3" or ""

	IsAlpha   bool
	IsPunct   bool
	LikeURL   bool
	LikeEmail bool
}

// Sentence is a sentence span, both in bytes and in token indices
// [TokenStart, TokenEnd).
type Sentence struct {
	Start      int
	End        int
	TokenStart int
	TokenEnd   int
}

// Doc is the parsed form shared by all detectors for one analysis call.
type Doc struct {
	Text      string
	Tokens    []Token
	Sentences []Sentence

	// HasPOS/HasDeps record how rich the producing provider was. Detectors
	// check these instead of probing individual tokens.
	HasPOS  bool
	HasDeps bool
}

// Provider parses normalized text into a Doc. Implementations may degrade to
// a sentence-segmentation-only Doc when a full model is unavailable.
type Provider interface {
	Parse(ctx context.Context, text string) (*Doc, error)
}
