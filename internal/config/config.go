// Package config provides the configuration schema, loader, and embeddings
// provider registry for the Vekta workout generator.
package config

import (
	"time"

	"github.com/Vicoder007/Vekta/internal/score"
	"github.com/Vicoder007/Vekta/internal/zones"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embeddings ProviderEntry    `yaml:"embeddings"`

	// Zones overrides the built-in 7-zone scheme. Zones must be listed in
	// ascending intensity order.
	Zones []zones.Zone `yaml:"zones"`
}

// ServerConfig holds process-wide settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// PipelineConfig tunes the generation pipeline.
type PipelineConfig struct {
	// Preset selects a named threshold preset: "lenient" (default) or
	// "strict". Ignored when Bands is set.
	Preset string `yaml:"preset"`

	// Bands sets explicit reject/accept thresholds, overriding Preset.
	Bands *score.Bands `yaml:"bands"`

	// SimilarityFloor is the minimum corpus similarity for a match to be
	// used. Zero means the built-in default.
	SimilarityFloor float64 `yaml:"similarity_floor"`

	// EmbedTimeoutMS bounds the embedding half of a corpus search, in
	// milliseconds. Zero means the built-in default.
	EmbedTimeoutMS int `yaml:"embed_timeout_ms"`

	// Author is written into generated workout files.
	Author string `yaml:"author"`

	// OutputDir is where .zwo artifacts are written.
	// Default: "./generated_workouts".
	OutputDir string `yaml:"output_dir"`
}

// VocabularyConfig points at an optional YAML file extending the built-in
// language tables.
type VocabularyConfig struct {
	Path string `yaml:"path"`
}

// CorpusConfig selects where the reference workout library comes from. With
// neither Path nor PostgresDSN set, the built-in library is used.
type CorpusConfig struct {
	// Path is a YAML corpus library file.
	Path string `yaml:"path"`

	// PostgresDSN enables the pgvector-backed corpus store.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ProviderEntry configures the embeddings provider. An empty Name disables
// embeddings; corpus search then runs lexical-only.
type ProviderEntry struct {
	// Name selects the registered provider implementation ("openai", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key, for providers that need one.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects the embedding model.
	Model string `yaml:"model"`

	// Dimensions pre-sets the vector length for models the provider cannot
	// resolve on its own.
	Dimensions int `yaml:"dimensions"`
}

// Bands resolves the effective decision thresholds: explicit bands when set,
// otherwise the named preset.
func (c *Config) Bands() (score.Bands, error) {
	if c.Pipeline.Bands != nil {
		return *c.Pipeline.Bands, c.Pipeline.Bands.Validate()
	}
	b, ok := score.Preset(c.Pipeline.Preset)
	if !ok {
		return score.Bands{}, &UnknownPresetError{Name: c.Pipeline.Preset}
	}
	return b, nil
}

// UnknownPresetError reports an unrecognised threshold preset name.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return "config: unknown preset " + e.Name + "; valid values: lenient, strict"
}

// EmbedTimeout returns the configured embedding deadline as a duration,
// zero when unset.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Pipeline.EmbedTimeoutMS) * time.Millisecond
}

// OutputDir returns the artifact directory, defaulted.
func (c *Config) OutputDir() string {
	if c.Pipeline.OutputDir != "" {
		return c.Pipeline.OutputDir
	}
	return "./generated_workouts"
}

// ZoneTable returns the configured zone table, or the default scheme when no
// zones are configured.
func (c *Config) ZoneTable() *zones.Table {
	if len(c.Zones) == 0 {
		return zones.Default()
	}
	return zones.New(c.Zones, zones.DefaultAliases())
}
