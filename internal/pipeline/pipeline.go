// Package pipeline orchestrates one analysis call: normalize, parse once,
// fan out to the detectors, resolve conflicts, attach readability.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/scribe-ai/scribe/internal/detector"
	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/readability"
	"github.com/scribe-ai/scribe/internal/resolve"
	"github.com/scribe-ai/scribe/internal/schema"
	"github.com/scribe-ai/scribe/internal/telemetry"
)

// DefaultDetectorTimeout bounds each detector invocation, including the ones
// backed by remote services.
const DefaultDetectorTimeout = 15 * time.Second

// Pipeline owns the analysis sequence and the decision whether the optional
// contextual detector participates.
type Pipeline struct {
	parser          nlp.Provider
	detectors       []detector.Detector
	contextual      detector.Detector
	detectorTimeout time.Duration
	telemetry       *telemetry.Provider
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDetectorTimeout overrides the per-detector timeout.
func WithDetectorTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.detectorTimeout = d
		}
	}
}

// WithTelemetry attaches a telemetry provider.
func WithTelemetry(t *telemetry.Provider) Option {
	return func(p *Pipeline) {
		p.telemetry = t
	}
}

// New builds a pipeline over the mandatory detectors plus an optional
// contextual detector (nil when the deployment has no LLM configured).
func New(parser nlp.Provider, detectors []detector.Detector, contextual detector.Detector, opts ...Option) (*Pipeline, error) {
	if parser == nil {
		return nil, fmt.Errorf("pipeline requires a parse provider")
	}
	p := &Pipeline{
		parser:          parser,
		detectors:       detectors,
		contextual:      contextual,
		detectorTimeout: DefaultDetectorTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Analyze runs the full sequence over rawText. useLLM enables the contextual
// detector for this call; it is ignored when no contextual detector is
// configured. Partial source failures degrade coverage silently; the only
// error paths are context cancellation and finding-invariant violations.
func (p *Pipeline) Analyze(ctx context.Context, rawText string, useLLM bool) (*schema.Response, error) {
	started := time.Now()

	text := norm.NFC.String(rawText)
	if strings.TrimSpace(text) == "" {
		// Nothing to analyze: no parsing, no detectors, defaulted snapshot.
		return schema.NewResponse(nil, readability.Default(), false, len(text))
	}

	doc := p.parseOnce(ctx, text)

	active := make([]detector.Detector, 0, len(p.detectors)+1)
	active = append(active, p.detectors...)
	llmRan := false
	if useLLM && p.contextual != nil {
		active = append(active, p.contextual)
		llmRan = true
	}

	collected, err := p.runDetectors(ctx, active, text, doc)
	if err != nil {
		return nil, err
	}

	resolved := resolve.Resolve(collected)
	metrics := readability.Compute(text)

	resp, err := schema.NewResponse(resolved, metrics, llmRan, len(text))
	if err != nil {
		return nil, err
	}
	p.telemetry.RecordAnalyze(llmRan, float64(time.Since(started).Milliseconds()), len(resp.Findings))
	return resp, nil
}

// parseOnce obtains the single shared parsed form for this call. Parse
// failures degrade to a nil doc; detectors tolerate that by emitting fewer
// findings.
func (p *Pipeline) parseOnce(ctx context.Context, text string) *nlp.Doc {
	doc, err := p.parser.Parse(ctx, text)
	if err != nil {
		log.Printf("parse provider failed, continuing without parsed form: %v", err)
		return nil
	}
	return doc
}

// runDetectors fans out to all enabled detectors concurrently with a
// per-detector timeout and fans back in, concatenating their findings.
// Detector errors are logged and contribute nothing; they never abort the
// analysis.
func (p *Pipeline) runDetectors(ctx context.Context, active []detector.Detector, text string, doc *nlp.Doc) ([]schema.Finding, error) {
	// Each goroutine writes only its own slot; the fan-in happens after Wait.
	results := make([][]schema.Finding, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range active {
		i, d := i, d
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, p.detectorTimeout)
			defer cancel()

			dstart := time.Now()
			findings, err := d.Detect(dctx, text, doc)
			p.telemetry.RecordDetector(d.Name(), float64(time.Since(dstart).Milliseconds()))
			if err != nil {
				log.Printf("detector %q degraded: %v", d.Name(), err)
				return nil
			}
			results[i] = findings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var collected []schema.Finding
	for _, r := range results {
		collected = append(collected, r...)
	}
	return collected, nil
}
