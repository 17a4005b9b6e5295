package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/provider"
	"github.com/scribe-ai/scribe/internal/schema"
)

const contextualConfidence = 0.7

const contextualSystemPrompt = "You are a strict proofreader. Output valid JSON only."

const contextualInstructions = `Analyze the following text for subtle contextual grammar errors, malapropisms, or logical inconsistencies in phrasing.
Do NOT report style issues, spelling, or basic grammar (rules cover those).
Focus on things like:
- "There" vs "Their" when valid in part of speech but wrong in context.
- "Affect" vs "Effect".
- Wrong distinct word usage (e.g. "for all intensive purposes").

Return JSON format:
{"errors": [{"message": "...", "start_index": 0, "end_index": 5, "suggestion": "..."}]}
start_index and end_index are byte offsets into the provided text. Recalculate indices carefully.
If no errors, return {"errors": []}.`

// Contextual asks a language model for errors the rule-based sources miss.
// Offsets returned by the model are untrusted: entries with out-of-range or
// inverted spans are discarded individually, never the whole batch.
type Contextual struct {
	provider provider.Provider
	model    string
}

func NewContextual(p provider.Provider, model string) *Contextual {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Contextual{provider: p, model: model}
}

func (c *Contextual) Name() string { return "contextual" }

type contextualReply struct {
	Errors []struct {
		Message    string `json:"message"`
		StartIndex int    `json:"start_index"`
		EndIndex   int    `json:"end_index"`
		Suggestion string `json:"suggestion"`
	} `json:"errors"`
}

func (c *Contextual) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("llm provider not configured")
	}

	resp, err := c.provider.ChatCompletion(ctx, &provider.Request{
		Model:       c.model,
		Temperature: 0,
		JSONMode:    true,
		Messages: []provider.Message{
			{Role: "system", Content: contextualSystemPrompt},
			{Role: "user", Content: contextualInstructions + "\n\nText: " + text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("contextual check: %w", err)
	}

	var reply contextualReply
	if err := json.Unmarshal([]byte(resp.Content), &reply); err != nil {
		return nil, fmt.Errorf("decode contextual reply: %w", err)
	}

	findings := make([]schema.Finding, 0, len(reply.Errors))
	dropped := 0
	for _, item := range reply.Errors {
		if strings.TrimSpace(item.Message) == "" || !spanInText(item.StartIndex, item.EndIndex, len(text)) {
			dropped++
			continue
		}
		var suggestions []string
		if item.Suggestion != "" {
			suggestions = []string{item.Suggestion}
		}
		findings = append(findings, schema.Finding{
			Category:    schema.CategoryGrammar,
			Message:     item.Message,
			Start:       item.StartIndex,
			End:         item.EndIndex,
			Suggestions: suggestions,
			Confidence:  contextualConfidence,
			Source:      "llm_context",
		})
	}
	if dropped > 0 {
		log.Printf("contextual detector dropped %d item(s) with invalid spans or empty messages", dropped)
	}
	return findings, nil
}
