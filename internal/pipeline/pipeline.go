// Package pipeline wires the full query-to-workout flow: lexical
// normalization, structural extraction, confidence scoring, corpus
// enrichment, assembly and .zwo serialization.
//
// The engine is deliberately strict about what it will not do: it never
// estimates a value the athlete did not state, and it rejects rather than
// guesses. Corpus enrichment may fill in absent entity kinds from a similar
// reference workout, but direct extraction always wins.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Vicoder007/Vekta/internal/assemble"
	"github.com/Vicoder007/Vekta/internal/corpus"
	"github.com/Vicoder007/Vekta/internal/entity"
	"github.com/Vicoder007/Vekta/internal/extract"
	"github.com/Vicoder007/Vekta/internal/normalize"
	"github.com/Vicoder007/Vekta/internal/observe"
	"github.com/Vicoder007/Vekta/internal/score"
	"github.com/Vicoder007/Vekta/internal/zwo"
)

// Method names how a workout was produced.
const (
	MethodDirect       = "direct"
	MethodDirectCorpus = "direct+corpus"
	MethodParametric   = "parametric"
)

// Mode selects the gating behaviour for one request.
type Mode string

const (
	// ModeLenient applies the confidence gate with the lenient thresholds.
	ModeLenient Mode = "lenient"

	// ModeStrict applies the confidence gate with the strict thresholds.
	ModeStrict Mode = "strict"

	// ModeParametric trusts the query as written and skips the gate.
	// Required entities must still be present.
	ModeParametric Mode = "parametric"
)

// IsValid reports whether m names a known mode. The empty string is valid
// and resolves to ModeLenient.
func (m Mode) IsValid() bool {
	switch m {
	case "", ModeLenient, ModeStrict, ModeParametric:
		return true
	}
	return false
}

// GenerateRequest is one workout generation request.
type GenerateRequest struct {
	Query string
	Mode  Mode

	// ReferencePower is the athlete's FTP in watts, used to scale absolute
	// watt targets. Zero falls back to assemble.DefaultReferencePower.
	ReferencePower float64

	// Author overrides the engine-level author for this file.
	Author string
}

// GenerateResponse is the full outcome of a generation request, including
// everything a caller needs to explain a rejection.
type GenerateResponse struct {
	Accepted   bool
	Confidence float64
	Method     string

	// Corrections documents every normalizer fix applied to the query.
	Corrections []normalize.Correction

	// Unresolved lists tokens that could not be mapped to the vocabulary.
	Unresolved []string

	// MatchedEntry names the corpus entry used for enrichment, when any.
	MatchedEntry string

	Workout  *assemble.Workout
	Document []byte

	// RejectionReason and Hints are set when Accepted is false.
	RejectionReason string
	Hints           []string
}

// Engine runs the pipeline. Construct with New; safe for concurrent use.
type Engine struct {
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	index      *corpus.Index
	assembler  *assemble.Assembler
	bands      score.Bands
	bandsSet   bool
	author     string
	metrics    *observe.Metrics
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndex attaches a corpus index for the enrichment band. Without one,
// mid-band queries are rejected with a corpus-unavailable note.
func WithIndex(ix *corpus.Index) Option {
	return func(e *Engine) { e.index = ix }
}

// WithBands pins the thresholds for every request, overriding the per-request
// mode presets.
func WithBands(b score.Bands) Option {
	return func(e *Engine) {
		e.bands = b
		e.bandsSet = true
	}
}

// WithAuthor sets the author written into generated files.
func WithAuthor(a string) Option {
	return func(e *Engine) {
		if a != "" {
			e.author = a
		}
	}
}

// WithMetrics overrides the default metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine around the given stage implementations. Nil stages
// fall back to defaults built on the default language tables and zone table.
func New(n *normalize.Normalizer, x *extract.Extractor, a *assemble.Assembler, opts ...Option) *Engine {
	if n == nil {
		n = normalize.New(nil)
	}
	if x == nil {
		x = extract.New(nil)
	}
	if a == nil {
		a = assemble.New(nil)
	}
	e := &Engine{
		normalizer: n,
		extractor:  x,
		assembler:  a,
		bands:      score.Lenient,
		author:     "Vekta",
		metrics:    observe.DefaultMetrics(),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Generate runs the full pipeline for one query.
//
// An error return means the pipeline itself failed (a serialization bug, a
// cancelled context). Bad user input is not an error: it comes back as a
// response with Accepted=false and hints.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode := req.Mode
	if !mode.IsValid() {
		return nil, fmt.Errorf("pipeline: unknown mode %q", req.Mode)
	}
	if mode == "" {
		mode = ModeLenient
	}

	q := e.timedNormalize(ctx, req.Query)
	ex := e.timedExtract(ctx, q)

	resp := &GenerateResponse{
		Method:      MethodDirect,
		Corrections: q.Corrections,
		Unresolved:  q.Unresolved,
	}

	resp.Confidence = e.timedScore(ctx, score.Input{Set: ex.Set, Unresolved: len(q.Unresolved)})

	if mode == ModeParametric {
		resp.Method = MethodParametric
		// A coach-authored query is trusted as written; the gate is skipped
		// and confidence pinned above every preset's accept threshold.
		resp.Confidence = 0.95
		return e.finish(ctx, resp, q, ex, req)
	}

	bands := e.bands
	if !e.bandsSet && mode == ModeStrict {
		bands = score.Strict
	}

	switch bands.Of(resp.Confidence) {
	case score.BandReject:
		return e.reject(ctx, resp, ex, "confiance insuffisante pour générer une séance"), nil

	case score.BandEnrich:
		e.enrich(ctx, resp, q, ex)
		if bands.Of(resp.Confidence) != score.BandAccept {
			return e.reject(ctx, resp, ex, "confiance insuffisante même après enrichissement corpus"), nil
		}
	}

	return e.finish(ctx, resp, q, ex, req)
}

// enrich runs the corpus search and fills absent entity kinds from the best
// match, then rescores. A missing or empty corpus leaves the response
// untouched except for a warning; it must never fail the request.
func (e *Engine) enrich(ctx context.Context, resp *GenerateResponse, q normalize.Query, ex *entity.Extraction) {
	if e.index == nil {
		e.logger.Warn("corpus index not configured; skipping enrichment")
		return
	}

	start := time.Now()
	matches, err := e.index.Search(ctx, q.Text, ex.Template.StepCount(), 3)
	e.metrics.RecordStage(ctx, "corpus", time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, corpus.ErrUnavailable) {
			e.logger.Warn("corpus unavailable; skipping enrichment")
		} else {
			e.logger.Error("corpus search failed", "error", err)
		}
		return
	}
	if len(matches) == 0 {
		e.logger.Info("no corpus match above similarity floor", "query", q.Text)
		return
	}

	best := matches[0]
	if corpus.Enrich(ex.Set, best) {
		resp.Method = MethodDirectCorpus
		resp.MatchedEntry = best.Entry.Name
	}
	resp.Confidence = e.timedScore(ctx, score.Input{
		Set:        ex.Set,
		Unresolved: len(resp.Unresolved),
		MatchScore: best.Similarity,
	})
	e.logger.Info("corpus enrichment applied",
		"entry", best.Entry.ID,
		"similarity", best.Similarity,
		"confidence", resp.Confidence,
	)
}

// finish assembles and serializes an accepted extraction.
func (e *Engine) finish(ctx context.Context, resp *GenerateResponse, q normalize.Query, ex *entity.Extraction, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	w, err := e.assembler.Assemble(ex, req.ReferencePower)
	e.metrics.RecordStage(ctx, "assemble", time.Since(start).Seconds())
	if err != nil {
		var ide *entity.InsufficientDataError
		if errors.As(err, &ide) {
			resp.RejectionReason = "données insuffisantes: " + err.Error()
			resp.Hints = ide.Hints()
			e.metrics.RecordRequest(ctx, "rejected", resp.Method)
			return resp, nil
		}
		e.metrics.RecordRequest(ctx, "error", resp.Method)
		return nil, fmt.Errorf("pipeline: assemble: %w", err)
	}

	author := req.Author
	if author == "" {
		author = e.author
	}

	start = time.Now()
	doc := zwo.Build(w, zwo.Meta{
		Author:     author,
		Query:      q.Text,
		Confidence: resp.Confidence,
		Method:     resp.Method,
	})
	data, err := zwo.Marshal(doc)
	e.metrics.RecordStage(ctx, "serialize", time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordRequest(ctx, "error", resp.Method)
		return nil, fmt.Errorf("pipeline: serialize: %w", err)
	}

	resp.Accepted = true
	resp.Workout = w
	resp.Document = data
	e.metrics.RecordRequest(ctx, "accepted", resp.Method)
	e.logger.Info("workout generated",
		"name", w.Name,
		"segments", len(w.Segments),
		"tss", w.TrainingLoad,
		"confidence", resp.Confidence,
		"method", resp.Method,
	)
	return resp, nil
}

func (e *Engine) reject(ctx context.Context, resp *GenerateResponse, ex *entity.Extraction, reason string) *GenerateResponse {
	if missing := ex.Set.Missing(entity.RequiredKinds); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, k := range missing {
			names[i] = kindLabel(k)
		}
		reason = fmt.Sprintf("%s (manque: %s)", reason, strings.Join(names, ", "))
		ide := &entity.InsufficientDataError{Missing: missing}
		resp.Hints = ide.Hints()
	}
	resp.RejectionReason = reason
	e.metrics.RecordRequest(ctx, "rejected", resp.Method)
	e.logger.Info("query rejected",
		"confidence", resp.Confidence,
		"reason", reason,
		"unresolved", resp.Unresolved,
	)
	return resp
}

// kindLabel renders an entity kind for user-facing rejection reasons.
func kindLabel(k entity.Kind) string {
	switch k {
	case entity.KindDuration:
		return "durée"
	case entity.KindIntensity:
		return "intensité"
	case entity.KindRepetition:
		return "répétitions"
	case entity.KindStructure:
		return "structure"
	case entity.KindRecovery:
		return "récupération"
	default:
		return string(k)
	}
}

func (e *Engine) timedNormalize(ctx context.Context, query string) normalize.Query {
	start := time.Now()
	q := e.normalizer.Normalize(query)
	e.metrics.RecordStage(ctx, "normalize", time.Since(start).Seconds())

	byMethod := map[string]int64{}
	for _, c := range q.Corrections {
		byMethod[c.Method]++
	}
	for method, n := range byMethod {
		e.metrics.RecordCorrections(ctx, method, n)
	}
	if len(q.Unresolved) > 0 {
		e.metrics.UnresolvedTokens.Add(ctx, int64(len(q.Unresolved)))
	}
	return q
}

func (e *Engine) timedExtract(ctx context.Context, q normalize.Query) *entity.Extraction {
	start := time.Now()
	ex := e.extractor.Extract(q)
	e.metrics.RecordStage(ctx, "extract", time.Since(start).Seconds())
	return ex
}

func (e *Engine) timedScore(ctx context.Context, in score.Input) float64 {
	start := time.Now()
	c := score.Confidence(in)
	e.metrics.RecordStage(ctx, "score", time.Since(start).Seconds())
	e.metrics.Confidence.Record(ctx, c)
	return c
}
