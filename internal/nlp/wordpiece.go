package nlp

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// wordPieceTokenizer is a minimal BERT-style tokenizer used by the local
// ONNX tagger. It produces sub-word ids plus byte offsets back into the
// original text so tag predictions can be projected onto word tokens.
type wordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	continuation string
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return &wordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    true,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}, nil
}

type pieceOffset struct {
	id    int64
	start int
	end   int
}

// encodeWords converts pre-tokenized words into a fixed-length id sequence.
// For every sequence position it records which word the piece came from
// (-1 for special and padding positions).
func (t *wordPieceTokenizer) encodeWords(words []Token, seqLen int) (ids, attn []int64, wordIdx []int) {
	if seqLen <= 0 {
		return nil, nil, nil
	}
	ids = make([]int64, 0, seqLen)
	wordIdx = make([]int, 0, seqLen)
	ids = append(ids, t.clsID)
	wordIdx = append(wordIdx, -1)

outer:
	for wi, w := range words {
		text := w.Text
		if t.lowerCase {
			text = strings.ToLower(text)
		}
		for _, p := range t.wordPiece(text) {
			ids = append(ids, p.id)
			wordIdx = append(wordIdx, wi)
			if len(ids) >= seqLen-1 {
				break outer
			}
		}
	}
	ids = append(ids, t.sepID)
	wordIdx = append(wordIdx, -1)

	attn = make([]int64, seqLen)
	for i := 0; i < len(ids) && i < seqLen; i++ {
		attn[i] = 1
	}
	for len(ids) < seqLen {
		ids = append(ids, t.padID)
		wordIdx = append(wordIdx, -1)
	}
	return ids, attn, wordIdx
}

func (t *wordPieceTokenizer) wordPiece(token string) []pieceOffset {
	if id, ok := t.vocab[token]; ok {
		return []pieceOffset{{id: id, start: 0, end: len(token)}}
	}

	var pieces []pieceOffset
	start := 0
	for start < len(token) {
		end := len(token)
		matched := false
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, pieceOffset{id: id, start: start, end: end})
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []pieceOffset{{id: t.unkID, start: 0, end: len(token)}}
		}
	}
	if len(pieces) == 0 {
		return []pieceOffset{{id: t.unkID, start: 0, end: len(token)}}
	}
	return pieces
}
