package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scribe-ai/scribe/internal/detector"
	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/readability"
	"github.com/scribe-ai/scribe/internal/schema"
)

// stubDetector returns canned findings or a canned error.
type stubDetector struct {
	name     string
	findings []schema.Finding
	err      error
	calls    int
}

func (s *stubDetector) Name() string { return s.name }

func (s *stubDetector) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.findings, nil
}

// failingParser always errors, exercising the degraded nil-doc path.
type failingParser struct{}

func (failingParser) Parse(ctx context.Context, text string) (*nlp.Doc, error) {
	return nil, errors.New("model not loaded")
}

func newTestPipeline(t *testing.T, detectors []detector.Detector, contextual detector.Detector) *Pipeline {
	t.Helper()
	p, err := New(nlp.NewSentencizer(), detectors, contextual)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestNew_RequiresParser(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil parser")
	}
}

func TestAnalyze_EmptyInputShortCircuits(t *testing.T) {
	stub := &stubDetector{name: "stub"}
	p := newTestPipeline(t, []detector.Detector{stub}, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		resp, err := p.Analyze(context.Background(), text, true)
		if err != nil {
			t.Fatalf("analyze(%q): %v", text, err)
		}
		if len(resp.Findings) != 0 {
			t.Fatalf("expected no findings for %q, got %#v", text, resp.Findings)
		}
		if resp.Readability != readability.Default() {
			t.Fatalf("expected defaulted readability snapshot, got %#v", resp.Readability)
		}
		if resp.LLMUsed {
			t.Fatalf("llm must not be reported for a short-circuited call")
		}
	}
	if stub.calls != 0 {
		t.Fatalf("detectors must not run on empty input, ran %d times", stub.calls)
	}
}

func TestAnalyze_ConcatenatesAndResolves(t *testing.T) {
	text := "Helo world, this is fine."
	spelling := &stubDetector{name: "spelling", findings: []schema.Finding{{
		Category:   schema.CategorySpelling,
		Message:    `Possible spelling error: "Helo"`,
		Start:      0,
		End:        4,
		Confidence: 0.9,
		Source:     "symspell",
	}}}
	style := &stubDetector{name: "style", findings: []schema.Finding{{
		Category:   schema.CategoryStyle,
		Message:    "Wordy construction.",
		Start:      0,
		End:        6,
		Confidence: 0.6,
		Source:     "style_heuristic_wordy",
	}}}

	p := newTestPipeline(t, []detector.Detector{spelling, style}, nil)
	resp, err := p.Analyze(context.Background(), text, false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(resp.Findings) != 1 {
		t.Fatalf("expected overlap to resolve to 1 finding, got %#v", resp.Findings)
	}
	if resp.Findings[0].Category != schema.CategorySpelling {
		t.Fatalf("spelling must win the overlap, got %#v", resp.Findings[0])
	}
	if resp.Readability == readability.Default() {
		t.Fatalf("readability must be computed for non-empty text")
	}
	if resp.LLMUsed {
		t.Fatalf("llm_used must be false when not requested")
	}
}

func TestAnalyze_FailingDetectorDegradesSilently(t *testing.T) {
	text := "Some reasonable text."
	good := &stubDetector{name: "good", findings: []schema.Finding{{
		Category:   schema.CategoryGrammar,
		Message:    "found",
		Start:      0,
		End:        4,
		Confidence: 0.8,
		Source:     "languagetool",
	}}}
	bad := &stubDetector{name: "bad", err: errors.New("service down")}

	p := newTestPipeline(t, []detector.Detector{good, bad}, nil)
	resp, err := p.Analyze(context.Background(), text, false)
	if err != nil {
		t.Fatalf("a degraded detector must not fail the call: %v", err)
	}
	if len(resp.Findings) != 1 || resp.Findings[0].Source != "languagetool" {
		t.Fatalf("expected only the healthy detector's findings, got %#v", resp.Findings)
	}
}

func TestAnalyze_ContextualOnlyWhenRequested(t *testing.T) {
	text := "Some text."
	contextual := &stubDetector{name: "contextual"}
	p := newTestPipeline(t, nil, contextual)

	resp, err := p.Analyze(context.Background(), text, false)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.LLMUsed || contextual.calls != 0 {
		t.Fatalf("contextual must not run unrequested (ran %d times)", contextual.calls)
	}

	resp, err = p.Analyze(context.Background(), text, true)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !resp.LLMUsed || contextual.calls != 1 {
		t.Fatalf("contextual must run when requested (ran %d times)", contextual.calls)
	}
}

func TestAnalyze_UseLLMIgnoredWithoutContextual(t *testing.T) {
	p := newTestPipeline(t, nil, nil)
	resp, err := p.Analyze(context.Background(), "Some text.", true)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.LLMUsed {
		t.Fatalf("llm_used must be false when no contextual detector is configured")
	}
}

func TestAnalyze_ParserFailureDegradesToNilDoc(t *testing.T) {
	stub := &stubDetector{name: "stub"}
	p, err := New(failingParser{}, []detector.Detector{stub}, nil)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	resp, err := p.Analyze(context.Background(), "Some text.", false)
	if err != nil {
		t.Fatalf("parse failure must not fail the call: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("detectors must still run with a nil doc, ran %d times", stub.calls)
	}
	if len(resp.Findings) != 0 {
		t.Fatalf("expected no findings, got %#v", resp.Findings)
	}
}

func TestAnalyze_InvalidDetectorFindingIsAHardError(t *testing.T) {
	rogue := &stubDetector{name: "rogue", findings: []schema.Finding{{
		Category:   schema.CategoryGrammar,
		Message:    "span past end of text",
		Start:      0,
		End:        10000,
		Confidence: 0.8,
		Source:     "rogue",
	}}}
	p := newTestPipeline(t, []detector.Detector{rogue}, nil)

	if _, err := p.Analyze(context.Background(), "tiny", false); err == nil {
		t.Fatalf("invariant violations must fail response construction")
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, []detector.Detector{&stubDetector{name: "stub"}}, nil)
	if _, err := p.Analyze(ctx, "Some text.", false); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

// blockingDetector hangs until its context is done.
type blockingDetector struct{}

func (blockingDetector) Name() string { return "blocking" }

func (blockingDetector) Detect(ctx context.Context, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyze_SlowDetectorIsCutOffAndDegraded(t *testing.T) {
	healthy := &stubDetector{name: "healthy", findings: []schema.Finding{{
		Category:   schema.CategoryGrammar,
		Message:    "found",
		Start:      0,
		End:        4,
		Confidence: 0.8,
		Source:     "languagetool",
	}}}

	p, err := New(nlp.NewSentencizer(), []detector.Detector{healthy, blockingDetector{}}, nil,
		WithDetectorTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	start := time.Now()
	resp, err := p.Analyze(context.Background(), "Some reasonable text.", false)
	if err != nil {
		t.Fatalf("a timed-out detector must not fail the call: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("analyze did not return promptly after the timeout: %v", elapsed)
	}
	if len(resp.Findings) != 1 || resp.Findings[0].Source != "languagetool" {
		t.Fatalf("expected only the healthy detector's findings, got %#v", resp.Findings)
	}
}

func TestWithDetectorTimeout(t *testing.T) {
	p := newTestPipeline(t, nil, nil)
	if p.detectorTimeout != DefaultDetectorTimeout {
		t.Fatalf("unexpected default timeout %v", p.detectorTimeout)
	}

	p2, err := New(nlp.NewSentencizer(), nil, nil, WithDetectorTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if p2.detectorTimeout != 2*time.Second {
		t.Fatalf("timeout override not applied: %v", p2.detectorTimeout)
	}

	p3, err := New(nlp.NewSentencizer(), nil, nil, WithDetectorTimeout(-1))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if p3.detectorTimeout != DefaultDetectorTimeout {
		t.Fatalf("non-positive override must be ignored, got %v", p3.detectorTimeout)
	}
}
