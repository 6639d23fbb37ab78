// Command vekta turns a free-text workout description into a Zwift .zwo file.
//
//	vekta -query "10min warm up then 3 sets of 5 min at vo2max"
//	vekta -config vekta.yaml -mode parametric -query "13x 4min33s à 87.3% FTP"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vicoder007/Vekta/internal/assemble"
	"github.com/Vicoder007/Vekta/internal/config"
	"github.com/Vicoder007/Vekta/internal/corpus"
	"github.com/Vicoder007/Vekta/internal/extract"
	"github.com/Vicoder007/Vekta/internal/normalize"
	"github.com/Vicoder007/Vekta/internal/observe"
	"github.com/Vicoder007/Vekta/internal/pipeline"
	"github.com/Vicoder007/Vekta/internal/vocab"
	"github.com/Vicoder007/Vekta/pkg/provider/embeddings"
	ollamaembed "github.com/Vicoder007/Vekta/pkg/provider/embeddings/ollama"
	oaembed "github.com/Vicoder007/Vekta/pkg/provider/embeddings/openai"
)

const defaultConfigPath = "vekta.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration file")
	query := flag.String("query", "", "workout description (defaults to the remaining arguments)")
	mode := flag.String("mode", string(pipeline.ModeLenient), "generation mode: lenient, strict or parametric")
	ftp := flag.Float64("ftp", 0, "reference power in watts for absolute targets (0 uses the built-in default)")
	outDir := flag.String("out", "", "artifact directory (overrides the configured output_dir)")
	flag.Parse()

	if *query == "" {
		*query = strings.Join(flag.Args(), " ")
	}
	if strings.TrimSpace(*query) == "" {
		fmt.Fprintln(os.Stderr, "vekta: no query given, pass -query or trailing arguments")
		flag.Usage()
		return 1
	}
	if !pipeline.Mode(*mode).IsValid() {
		fmt.Fprintf(os.Stderr, "vekta: invalid mode %q (valid values: lenient, strict, parametric)\n", *mode)
		return 1
	}

	cfg, err := config.Load(*configPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && *configPath == defaultConfigPath:
		// Running without a config file is the common case; every setting has
		// a built-in default.
		cfg = &config.Config{}
	default:
		fmt.Fprintf(os.Stderr, "vekta: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "vekta"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	tables := vocab.Defaults()
	if cfg.Vocabulary.Path != "" {
		tables, err = vocab.Load(cfg.Vocabulary.Path)
		if err != nil {
			slog.Error("failed to load vocabulary", "err", err)
			return 1
		}
	}

	ix, err := buildIndex(ctx, cfg, tables)
	if err != nil {
		slog.Error("failed to build corpus index", "err", err)
		return 1
	}

	zt := cfg.ZoneTable()
	opts := []pipeline.Option{
		pipeline.WithIndex(ix),
		pipeline.WithAuthor(cfg.Pipeline.Author),
	}
	// Thresholds from the config file pin the gate for every request;
	// without them the -mode flag picks the preset per request.
	if cfg.Pipeline.Preset != "" || cfg.Pipeline.Bands != nil {
		bands, err := cfg.Bands()
		if err != nil {
			slog.Error("invalid thresholds", "err", err)
			return 1
		}
		opts = append(opts, pipeline.WithBands(bands))
	}
	engine := pipeline.New(
		normalize.New(tables),
		extract.New(zt),
		assemble.New(zt),
		opts...,
	)

	resp, err := engine.Generate(ctx, pipeline.GenerateRequest{
		Query:          *query,
		Mode:           pipeline.Mode(*mode),
		ReferencePower: *ftp,
	})
	if err != nil {
		slog.Error("generation failed", "err", err)
		return 1
	}

	if !resp.Accepted {
		fmt.Fprintf(os.Stderr, "Requête refusée: %s\n", resp.RejectionReason)
		if len(resp.Hints) > 0 {
			fmt.Fprintln(os.Stderr, "Précisez:")
			for _, h := range resp.Hints {
				fmt.Fprintf(os.Stderr, "  - %s\n", h)
			}
		}
		return 2
	}

	dir := cfg.OutputDir()
	if *outDir != "" {
		dir = *outDir
	}
	store, err := pipeline.NewArtifactStore(dir, nil)
	if err != nil {
		slog.Error("failed to open artifact directory", "err", err)
		return 1
	}
	path, err := store.Write(ctx, resp.Document)
	if err != nil {
		slog.Error("failed to write workout file", "err", err)
		return 1
	}

	w := resp.Workout
	fmt.Printf("Séance: %s\n", w.Name)
	fmt.Printf("Segments: %d | Durée: %s | Charge: %.1f TSS\n",
		len(w.Segments), (time.Duration(w.TotalSeconds) * time.Second).String(), w.TrainingLoad)
	fmt.Printf("Confiance: %.2f (%s)\n", resp.Confidence, resp.Method)
	if resp.MatchedEntry != "" {
		fmt.Printf("Référence corpus: %s\n", resp.MatchedEntry)
	}
	fmt.Printf("Fichier: %s\n", path)
	return 0
}

// buildIndex assembles the corpus index from the configured sources: the
// built-in library, a YAML file, and optionally a pgvector-backed store that
// persists entries across runs.
func buildIndex(ctx context.Context, cfg *config.Config, tables *vocab.Tables) (*corpus.Index, error) {
	entries := corpus.Builtin()
	if cfg.Corpus.Path != "" {
		loaded, err := corpus.LoadFile(cfg.Corpus.Path)
		if err != nil {
			return nil, err
		}
		entries = loaded
	}

	provider, err := buildEmbeddings(cfg)
	if err != nil {
		return nil, err
	}

	opts := []corpus.Option{corpus.WithLogger(slog.Default())}
	if provider != nil {
		opts = append(opts, corpus.WithProvider(provider))
	}
	if d := cfg.EmbedTimeout(); d > 0 {
		opts = append(opts, corpus.WithEmbedTimeout(d))
	}
	if f := cfg.Pipeline.SimilarityFloor; f > 0 {
		opts = append(opts, corpus.WithSimilarityFloor(f))
	}
	ix := corpus.New(tables, opts...)

	snap, err := ix.BuildSnapshot(ctx, entries)
	if err != nil {
		return nil, err
	}

	if dsn := cfg.Corpus.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := corpus.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		for i := range snap.Entries {
			if err := store.Upsert(ctx, &snap.Entries[i]); err != nil {
				return nil, err
			}
		}
		// Pick up entries persisted by earlier runs on top of this run's set.
		stored, err := store.All(ctx)
		if err != nil {
			return nil, err
		}
		snap.Entries = stored
		slog.Info("corpus synchronised with postgres", "entries", len(stored))
	}

	ix.Load(snap)
	slog.Debug("corpus index ready", "entries", ix.Len(), "model", snap.ModelID)
	return ix, nil
}

// buildEmbeddings instantiates the configured embeddings provider, nil when
// none is configured. Corpus search then runs lexical-only.
func buildEmbeddings(cfg *config.Config) (embeddings.Provider, error) {
	if cfg.Embeddings.Name == "" {
		return nil, nil
	}

	reg := config.NewRegistry()
	registerEmbeddingsProviders(reg)

	p, err := reg.CreateEmbeddings(cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("create embeddings provider %q: %w", cfg.Embeddings.Name, err)
	}
	slog.Info("embeddings provider created", "name", cfg.Embeddings.Name, "model", p.ModelID())
	return p, nil
}

// registerEmbeddingsProviders wires the built-in provider factories into reg.
func registerEmbeddingsProviders(reg *config.Registry) {
	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterEmbeddings("ollama", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []ollamaembed.Option
		if entry.Dimensions > 0 {
			opts = append(opts, ollamaembed.WithDimensions(entry.Dimensions))
		}
		return ollamaembed.New(entry.BaseURL, entry.Model, opts...)
	})
}
