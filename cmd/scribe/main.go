package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/scribe-ai/scribe/internal/config"
	"github.com/scribe-ai/scribe/internal/detector"
	"github.com/scribe-ai/scribe/internal/dict"
	"github.com/scribe-ai/scribe/internal/nlp"
	"github.com/scribe-ai/scribe/internal/pipeline"
	"github.com/scribe-ai/scribe/internal/provider"
	"github.com/scribe-ai/scribe/internal/server"
	"github.com/scribe-ai/scribe/internal/telemetry"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "scribe.yaml", "Path to Scribe config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "scribe",
		Version:  os.Getenv("SCRIBE_VERSION"),
	})
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}
	defer tel.Shutdown(ctx)

	parser := buildParser(cfg)
	detectors := buildDetectors(cfg)
	contextual := buildContextual(cfg)

	pipe, err := pipeline.New(parser, detectors, contextual,
		pipeline.WithDetectorTimeout(time.Duration(cfg.Detectors.TimeoutMS)*time.Millisecond),
		pipeline.WithTelemetry(tel),
	)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	srv := server.New(pipe)

	log.Printf("Starting Scribe on %s...", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// buildParser constructs the configured parse provider, stepping down to the
// builtin sentencizer when a richer provider cannot be initialized.
func buildParser(cfg *config.Config) nlp.Provider {
	switch cfg.Parser.Mode {
	case "http":
		if cfg.Parser.URL == "" {
			log.Printf("parser mode http with empty url; using builtin sentencizer")
			return nlp.NewSentencizer()
		}
		return nlp.NewHTTPProvider(cfg.Parser.URL, time.Duration(cfg.Parser.TimeoutMS)*time.Millisecond)
	case "onnx":
		tagger, err := nlp.NewONNXTagger(cfg.Parser.ModelDir, cfg.Parser.SeqLen, cfg.Parser.PoolSize, cfg.Parser.SharedLibrary)
		if err != nil {
			log.Printf("onnx tagger unavailable: %v; using builtin sentencizer", err)
			return nlp.NewSentencizer()
		}
		return tagger
	case "builtin":
		return nlp.NewSentencizer()
	default:
		log.Printf("unknown parser mode %q; using builtin sentencizer", cfg.Parser.Mode)
		return nlp.NewSentencizer()
	}
}

// buildDetectors assembles the enabled rule-based detectors. A detector whose
// resources are missing is skipped with a log line rather than aborting
// startup.
func buildDetectors(cfg *config.Config) []detector.Detector {
	var detectors []detector.Detector

	if cfg.Spelling.Enabled {
		if cfg.Spelling.Dictionary == "" {
			log.Printf("spelling enabled but no dictionary configured; skipping spelling detector")
		} else if d, err := dict.Load(cfg.Spelling.Dictionary, cfg.Spelling.MaxEditDistance, cfg.Spelling.PrefixLength); err != nil {
			log.Printf("failed to load dictionary %s: %v; skipping spelling detector", cfg.Spelling.Dictionary, err)
		} else {
			log.Printf("loaded dictionary %s (%d terms)", cfg.Spelling.Dictionary, d.Len())
			detectors = append(detectors, detector.NewSpelling(d))
		}
	}

	if cfg.Grammar.Enabled {
		if cfg.Grammar.BaseURL == "" {
			log.Printf("grammar enabled but no base_url configured; skipping grammar detector")
		} else {
			detectors = append(detectors, detector.NewGrammar(
				cfg.Grammar.BaseURL,
				cfg.Grammar.Language,
				time.Duration(cfg.Grammar.TimeoutMS)*time.Millisecond,
			))
		}
	}

	if cfg.Agreement.Enabled {
		detectors = append(detectors, detector.NewAgreement())
	}

	if cfg.Style.Enabled {
		detectors = append(detectors, detector.NewStyle(cfg.Style.LongSentenceTokens))
	}

	return detectors
}

// buildContextual constructs the LLM-backed detector, or nil when it is
// disabled or the API key is absent.
func buildContextual(cfg *config.Config) detector.Detector {
	if !cfg.LLM.Enabled {
		return nil
	}
	if cfg.LLM.Type != "openai" {
		log.Printf("unsupported llm type %q; contextual detector disabled", cfg.LLM.Type)
		return nil
	}
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		log.Printf("environment variable %s is empty; contextual detector disabled", cfg.LLM.APIKeyEnv)
		return nil
	}
	p := provider.NewOpenAI(cfg.LLM.BaseURL, apiKey, time.Duration(cfg.LLM.TimeoutMS)*time.Millisecond, 0)
	return detector.NewContextual(p, cfg.LLM.Model)
}
