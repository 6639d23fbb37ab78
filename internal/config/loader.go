package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidEmbeddingsProviders lists known embeddings provider names. Used by
// [Validate] to warn about unrecognised names.
var ValidEmbeddingsProviders = []string{"openai", "ollama"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Threshold ordering. Bands() validates explicit bands and resolves the
	// preset name.
	if _, err := cfg.Bands(); err != nil {
		errs = append(errs, err)
	}

	if f := cfg.Pipeline.SimilarityFloor; f < 0 || f > 1 {
		errs = append(errs, fmt.Errorf("pipeline.similarity_floor %v is out of range [0, 1]", f))
	}
	if cfg.Pipeline.EmbedTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("pipeline.embed_timeout_ms must not be negative"))
	}

	// Zone tables must ascend; overlapping or out-of-order bands would make
	// percentage lookup ambiguous.
	for i := 1; i < len(cfg.Zones); i++ {
		prev, cur := cfg.Zones[i-1], cfg.Zones[i]
		if cur.Min < prev.Max {
			errs = append(errs, fmt.Errorf("zones[%d] %q overlaps zones[%d] %q", i, cur.Name, i-1, prev.Name))
		}
	}
	for i, z := range cfg.Zones {
		if z.Name == "" {
			errs = append(errs, fmt.Errorf("zones[%d].name is required", i))
		}
		if z.Max <= z.Min {
			errs = append(errs, fmt.Errorf("zones[%d] %q: max %v must exceed min %v", i, z.Name, z.Max, z.Min))
		}
	}

	if name := cfg.Embeddings.Name; name != "" && !slices.Contains(ValidEmbeddingsProviders, name) {
		slog.Warn("unknown embeddings provider name, may be a typo or third-party provider",
			"name", name,
			"known", ValidEmbeddingsProviders,
		)
	}
	if cfg.Embeddings.Name == "" && cfg.Corpus.PostgresDSN != "" {
		slog.Warn("corpus.postgres_dsn is set without an embeddings provider; nearest-neighbour search will be unavailable")
	}
	if cfg.Corpus.Path != "" && cfg.Corpus.PostgresDSN != "" {
		slog.Warn("both corpus.path and corpus.postgres_dsn are set; the file library will be loaded and upserted into postgres")
	}

	return errors.Join(errs...)
}

// SlogLevel converts the configured level to a slog.Level, defaulting to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
