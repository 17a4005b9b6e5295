package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/scribe-ai/scribe/internal/provider"
	"github.com/scribe-ai/scribe/internal/schema"
)

func TestContextual_ParsesModelReply(t *testing.T) {
	text := "Their going to the store"
	fake := provider.NewFake(`{"errors": [
		{"message": "Their should be They're", "start_index": 0, "end_index": 5, "suggestion": "They're"}
	]}`)

	c := NewContextual(fake, "")
	findings, err := c.Detect(context.Background(), text, nil)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %#v", findings)
	}
	f := findings[0]
	if f.Category != schema.CategoryGrammar || f.Source != "llm_context" {
		t.Fatalf("unexpected finding %#v", f)
	}
	if f.Start != 0 || f.End != 5 || f.Confidence != 0.7 {
		t.Fatalf("unexpected finding %#v", f)
	}
	if len(f.Suggestions) != 1 || f.Suggestions[0] != "They're" {
		t.Fatalf("unexpected suggestions %v", f.Suggestions)
	}

	req := fake.LastRequest
	if req == nil {
		t.Fatalf("provider was not called")
	}
	if !req.JSONMode {
		t.Fatalf("contextual calls must request JSON mode")
	}
	if req.Temperature != 0 {
		t.Fatalf("expected deterministic temperature, got %v", req.Temperature)
	}
	if req.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %q", req.Model)
	}
}

func TestContextual_DropsInvalidSpansIndividually(t *testing.T) {
	text := "short text"
	fake := provider.NewFake(`{"errors": [
		{"message": "valid", "start_index": 0, "end_index": 5, "suggestion": "ok"},
		{"message": "past end", "start_index": 2, "end_index": 999},
		{"message": "inverted", "start_index": 6, "end_index": 3},
		{"message": "negative", "start_index": -1, "end_index": 4},
		{"message": "", "start_index": 0, "end_index": 3}
	]}`)

	c := NewContextual(fake, "gpt-4o-mini")
	findings, err := c.Detect(context.Background(), text, nil)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("only the valid entry must survive, got %#v", findings)
	}
	if findings[0].Message != "valid" {
		t.Fatalf("unexpected survivor %#v", findings[0])
	}
}

func TestContextual_ProviderErrorSurfacesAtBoundary(t *testing.T) {
	fake := provider.NewFake("")
	fake.Error = errors.New("rate limited")

	c := NewContextual(fake, "gpt-4o-mini")
	if _, err := c.Detect(context.Background(), "text", nil); err == nil {
		t.Fatalf("expected provider error to surface")
	}
}

func TestContextual_MalformedJSONIsAnError(t *testing.T) {
	fake := provider.NewFake("not json at all")
	c := NewContextual(fake, "gpt-4o-mini")
	if _, err := c.Detect(context.Background(), "text", nil); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestContextual_NilProviderIsAnError(t *testing.T) {
	c := NewContextual(nil, "")
	if _, err := c.Detect(context.Background(), "text", nil); err == nil {
		t.Fatalf("expected error when provider is not configured")
	}
}
