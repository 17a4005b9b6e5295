package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/schema"
)

const grammarConfidence = 0.8

// Grammar checks full text against a LanguageTool-compatible service.
// Service or network failures surface as errors at the detect boundary; the
// orchestrator degrades them to an empty contribution.
type Grammar struct {
	baseURL          string
	language         string
	client           *http.Client
	maxResponseBytes int64
}

// NewGrammar creates the grammar-service detector. baseURL points at the
// service root (the client appends /v2/check).
func NewGrammar(baseURL, language string, timeout time.Duration) *Grammar {
	if language == "" {
		language = "en-US"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Grammar{
		baseURL:          strings.TrimRight(baseURL, "/"),
		language:         language,
		maxResponseBytes: 4 * 1024 * 1024,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *Grammar) Name() string { return "grammar" }

type ltResponse struct {
	Matches []ltMatch `json:"matches"`
}

type ltMatch struct {
	Message      string `json:"message"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Replacements []struct {
		Value string `json:"value"`
	} `json:"replacements"`
	Rule struct {
		ID       string `json:"id"`
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	} `json:"rule"`
}

func (g *Grammar) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	if g.baseURL == "" {
		return nil, fmt.Errorf("grammar service not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", g.language)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create grammar request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call grammar service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("grammar service status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, g.maxResponseBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read grammar response: %w", err)
	}
	if int64(len(respBody)) > g.maxResponseBytes {
		return nil, fmt.Errorf("grammar response exceeded limit (%d bytes)", g.maxResponseBytes)
	}

	var lt ltResponse
	if err := json.Unmarshal(respBody, &lt); err != nil {
		return nil, fmt.Errorf("decode grammar response: %w", err)
	}

	// The service reports offset and length in characters; findings carry
	// byte offsets into the analyzed text. byteAt maps rune index to byte
	// offset, with a final entry for the end of text.
	byteAt := make([]int, 0, len(text)+1)
	for i := range text {
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(text))

	findings := make([]schema.Finding, 0, len(lt.Matches))
	for _, m := range lt.Matches {
		if m.Offset < 0 || m.Length < 0 || m.Offset+m.Length >= len(byteAt) {
			continue
		}
		start, end := byteAt[m.Offset], byteAt[m.Offset+m.Length]
		if !spanInText(start, end, len(text)) {
			continue
		}
		suggestions := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			suggestions = append(suggestions, r.Value)
		}
		findings = append(findings, schema.Finding{
			Category:    categoryForRule(m.Rule.ID, m.Rule.Category.ID),
			Message:     m.Message,
			Start:       start,
			End:         end,
			Suggestions: schema.CapSuggestions(suggestions),
			Confidence:  grammarConfidence,
			Source:      "languagetool",
		})
	}
	return findings, nil
}

// categoryForRule maps LanguageTool rule/category ids onto the closed
// category set. Unknown rules default to grammar.
func categoryForRule(ruleID, categoryID string) schema.Category {
	rule := strings.ToUpper(ruleID)
	cat := strings.ToUpper(categoryID)
	switch {
	case strings.HasPrefix(rule, "UPPERCASE_SENTENCE_START"):
		return schema.CategoryStyle
	case strings.Contains(rule, "SPELL") || cat == "TYPOS":
		return schema.CategorySpelling
	case cat == "PUNCTUATION" || strings.Contains(rule, "COMMA") || strings.Contains(rule, "PUNCT"):
		return schema.CategoryPunctuation
	case cat == "STYLE" || cat == "REDUNDANCY":
		return schema.CategoryStyle
	default:
		return schema.CategoryGrammar
	}
}
