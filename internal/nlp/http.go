package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider is a client for an out-of-process parse service (typically a
// small spaCy sidecar) that returns full token and dependency annotations.
type HTTPProvider struct {
	baseURL          string
	client           *http.Client
	maxResponseBytes int64
}

// NewHTTPProvider creates a parse-service client.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL:          baseURL,
		maxResponseBytes: 8 * 1024 * 1024,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Tokens []struct {
		Text  string            `json:"text"`
		Start int               `json:"start"`
		End   int               `json:"end"`
		POS   string            `json:"pos"`
		Tag   string            `json:"tag"`
		Dep   string            `json:"dep"`
		Head  int               `json:"head"`
		Lemma string            `json:"lemma"`
		Morph map[string]string `json:"morph"`
	} `json:"tokens"`
	Sentences []struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"sentences"`
}

// Parse sends the normalized text to the parse service and converts the
// reply into a Doc. Token offsets outside the text are rejected.
func (p *HTTPProvider) Parse(ctx context.Context, text string) (*Doc, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal parse request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create parse request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call parse service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("parse service status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, p.maxResponseBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read parse response: %w", err)
	}
	if int64(len(respBody)) > p.maxResponseBytes {
		return nil, fmt.Errorf("parse response exceeded limit (%d bytes)", p.maxResponseBytes)
	}

	var parsed parseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode parse response: %w", err)
	}

	doc := &Doc{Text: text}
	for i, t := range parsed.Tokens {
		if t.Start < 0 || t.Start > t.End || t.End > len(text) {
			return nil, fmt.Errorf("parse service token %d has invalid span [%d,%d)", i, t.Start, t.End)
		}
		head := t.Head
		if head < 0 || head >= len(parsed.Tokens) {
			head = -1
		}
		tok := Token{
			Text:   t.Text,
			Start:  t.Start,
			End:    t.End,
			POS:    t.POS,
			Tag:    t.Tag,
			Dep:    t.Dep,
			Head:   head,
			Lemma:  t.Lemma,
			Number: t.Morph["Number"],
			Person: t.Morph["Person"],
		}
		tok.IsAlpha = isAlphaWord(tok.Text)
		tok.IsPunct = tok.POS == "PUNCT"
		tok.LikeURL = likeURL(tok.Text)
		tok.LikeEmail = likeEmail(tok.Text)
		if tok.POS != "" {
			doc.HasPOS = true
		}
		if tok.Dep != "" {
			doc.HasDeps = true
		}
		doc.Tokens = append(doc.Tokens, tok)
	}

	for _, s := range parsed.Sentences {
		sent := Sentence{Start: s.Start, End: s.End, TokenStart: -1}
		for i, tok := range doc.Tokens {
			if tok.Start >= s.Start && tok.End <= s.End {
				if sent.TokenStart < 0 {
					sent.TokenStart = i
				}
				sent.TokenEnd = i + 1
			}
		}
		if sent.TokenStart < 0 {
			sent.TokenStart, sent.TokenEnd = 0, 0
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	if len(doc.Sentences) == 0 && len(doc.Tokens) > 0 {
		doc.Sentences = segmentSentences(text, doc.Tokens)
	}
	return doc, nil
}
