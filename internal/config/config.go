package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds Scribe configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Parser    ParserConfig    `yaml:"parser"`
	Spelling  SpellingConfig  `yaml:"spelling"`
	Grammar   GrammarConfig   `yaml:"grammar"`
	Agreement AgreementConfig `yaml:"agreement"`
	Style     StyleConfig     `yaml:"style"`
	LLM       LLMConfig       `yaml:"llm"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
}

type ParserConfig struct {
	Mode          string `yaml:"mode"`           // http | onnx | builtin
	URL           string `yaml:"url"`            // parse sidecar base URL (http mode)
	ModelDir      string `yaml:"model_dir"`      // tagger bundle dir (onnx mode)
	SharedLibrary string `yaml:"shared_library"` // onnxruntime shared library path
	SeqLen        int    `yaml:"seq_len"`        // tagger sequence length
	PoolSize      int    `yaml:"pool_size"`      // tagger session pool size
	TimeoutMS     int    `yaml:"timeout_ms"`     // http mode request timeout
}

type SpellingConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Dictionary      string `yaml:"dictionary"` // frequency dictionary path
	MaxEditDistance int    `yaml:"max_edit_distance"`
	PrefixLength    int    `yaml:"prefix_length"`
}

type GrammarConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"` // LanguageTool-compatible service root
	Language  string `yaml:"language"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type AgreementConfig struct {
	Enabled bool `yaml:"enabled"`
}

type StyleConfig struct {
	Enabled            bool `yaml:"enabled"`
	LongSentenceTokens int  `yaml:"long_sentence_tokens"`
}

type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Type      string `yaml:"type"`        // e.g. "openai"
	BaseURL   string `yaml:"base_url"`    // e.g. "https://api.openai.com/v1"
	APIKeyEnv string `yaml:"api_key_env"` // e.g. "OPENAI_API_KEY"
	Model     string `yaml:"model"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type DetectorsConfig struct {
	TimeoutMS int `yaml:"timeout_ms"` // per-detector budget
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Parser.Mode {
	case "http", "onnx", "builtin":
	default:
		return fmt.Errorf("parser.mode must be http, onnx or builtin, got %q", c.Parser.Mode)
	}
	if c.Parser.Mode == "http" && c.Parser.URL == "" {
		return errors.New("parser.url is required when parser.mode is http")
	}
	if c.Parser.Mode == "onnx" && c.Parser.ModelDir == "" {
		return errors.New("parser.model_dir is required when parser.mode is onnx")
	}
	if c.Spelling.MaxEditDistance > 4 {
		return fmt.Errorf("spelling.max_edit_distance %d is too large (max 4)", c.Spelling.MaxEditDistance)
	}
	switch strings.ToLower(c.Telemetry.Protocol) {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", c.Telemetry.Protocol)
	}
	return nil
}

func defaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Parser: ParserConfig{
			Mode: "builtin",
		},
		Spelling: SpellingConfig{
			Enabled:         true,
			MaxEditDistance: 2,
			PrefixLength:    7,
		},
		Grammar: GrammarConfig{
			Enabled:  true,
			BaseURL:  "https://api.languagetool.org",
			Language: "en-US",
		},
		Agreement: AgreementConfig{Enabled: true},
		Style:     StyleConfig{Enabled: true},
		LLM: LLMConfig{
			Type:      "openai",
			APIKeyEnv: "OPENAI_API_KEY",
			Model:     "gpt-4o-mini",
		},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Parser.Mode == "" {
		cfg.Parser.Mode = "builtin"
	}
	if cfg.Parser.SeqLen <= 0 {
		cfg.Parser.SeqLen = 256
	}
	if cfg.Parser.PoolSize <= 0 {
		cfg.Parser.PoolSize = 1
	}
	if cfg.Parser.TimeoutMS <= 0 {
		cfg.Parser.TimeoutMS = 10000
	}
	if cfg.Spelling.MaxEditDistance <= 0 {
		cfg.Spelling.MaxEditDistance = 2
	}
	if cfg.Spelling.PrefixLength <= 0 {
		cfg.Spelling.PrefixLength = 7
	}
	if cfg.Grammar.Language == "" {
		cfg.Grammar.Language = "en-US"
	}
	if cfg.Grammar.TimeoutMS <= 0 {
		cfg.Grammar.TimeoutMS = 10000
	}
	if cfg.Style.LongSentenceTokens <= 0 {
		cfg.Style.LongSentenceTokens = 40
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openai"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.TimeoutMS <= 0 {
		cfg.LLM.TimeoutMS = 30000
	}
	if cfg.Detectors.TimeoutMS <= 0 {
		cfg.Detectors.TimeoutMS = 15000
	}
}
