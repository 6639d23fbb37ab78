package pipeline_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/Vicoder007/Vekta/internal/corpus"
	"github.com/Vicoder007/Vekta/internal/pipeline"
	"github.com/Vicoder007/Vekta/internal/score"
)

func generate(t *testing.T, e *pipeline.Engine, req pipeline.GenerateRequest) *pipeline.GenerateResponse {
	t.Helper()
	resp, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate(%q): %v", req.Query, err)
	}
	return resp
}

func TestGenerateColloquialEnglishQuery(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{
		Query: "10min warm up then 3 sets of 5 min at vo2max with 2 min easy between sets, finish with 10 min cool-down",
	})

	if !resp.Accepted {
		t.Fatalf("rejected: %s (hints %v)", resp.RejectionReason, resp.Hints)
	}
	if resp.Method != pipeline.MethodDirect {
		t.Errorf("Method = %q, want %q", resp.Method, pipeline.MethodDirect)
	}
	if resp.Confidence < 0.99 {
		t.Errorf("Confidence = %v, want ~1.0 for a fully explicit query", resp.Confidence)
	}
	if len(resp.Unresolved) != 0 {
		t.Errorf("Unresolved = %v, want none", resp.Unresolved)
	}

	byMethod := map[string]int{}
	for _, c := range resp.Corrections {
		byMethod[c.Method]++
	}
	if byMethod["compound"] != 2 || byMethod["table"] != 3 {
		t.Errorf("corrections by method = %v, want 2 compound + 3 table", byMethod)
	}

	w := resp.Workout
	if w.Name != "3x5min vo2max" {
		t.Errorf("Name = %q", w.Name)
	}
	if len(w.Segments) != 8 {
		t.Fatalf("got %d segments, want 8", len(w.Segments))
	}
	if w.Segments[0].Name != "Échauffement" || w.Segments[7].Name != "Retour au calme" {
		t.Errorf("phase segments = %q .. %q", w.Segments[0].Name, w.Segments[7].Name)
	}
	if w.Segments[2].Name != "Récupération 1" || w.Segments[2].Seconds != 120 {
		t.Errorf("recovery = %+v, want closed 120s", w.Segments[2])
	}
	if w.TotalSeconds != 2460 {
		t.Errorf("TotalSeconds = %d, want 2460", w.TotalSeconds)
	}

	doc := string(resp.Document)
	for _, want := range []string{
		`<Warmup Duration="600"`,
		`<SteadyState Duration="300" Power="1.18"`,
		`<Cooldown Duration="600"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestGenerateVagueQueryRejected(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{Query: "je veux un truc dur"})

	if resp.Accepted {
		t.Fatal("vague query was accepted")
	}
	if !strings.Contains(resp.RejectionReason, "confiance insuffisante") {
		t.Errorf("RejectionReason = %q", resp.RejectionReason)
	}
	if !strings.Contains(resp.RejectionReason, "durée") || !strings.Contains(resp.RejectionReason, "intensité") {
		t.Errorf("RejectionReason = %q, want the missing kinds named", resp.RejectionReason)
	}
	if len(resp.Hints) != 2 {
		t.Fatalf("Hints = %v, want one for duration and one for intensity", resp.Hints)
	}
	if !strings.Contains(resp.Hints[0], "durée") || !strings.Contains(resp.Hints[1], "intensité") {
		t.Errorf("Hints = %v", resp.Hints)
	}
	if resp.Document != nil {
		t.Error("rejected response carries a document")
	}
}

func TestGenerateCompactNotationOpenRecoveries(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{Query: "13x 4min33s à 87.3% FTP"})

	if !resp.Accepted {
		t.Fatalf("rejected: %s (hints %v)", resp.RejectionReason, resp.Hints)
	}

	w := resp.Workout
	if len(w.Segments) != 26 {
		t.Fatalf("got %d segments, want 13 intervals + 13 open recoveries", len(w.Segments))
	}
	open := 0
	for _, s := range w.Segments {
		if s.Open {
			open++
			if s.Seconds != 0 {
				t.Errorf("open segment %q has Seconds = %d", s.Name, s.Seconds)
			}
		}
	}
	if open != 13 {
		t.Errorf("open segments = %d, want 13", open)
	}
	if w.TotalSeconds != 13*273 {
		t.Errorf("TotalSeconds = %d, want %d (open segments excluded)", w.TotalSeconds, 13*273)
	}
	if math.Abs(w.TrainingLoad-75.1) > 0.05 {
		t.Errorf("TrainingLoad = %v, want 75.1", w.TrainingLoad)
	}

	doc := string(resp.Document)
	if !strings.Contains(doc, `<SteadyState Duration="273" Power="0.87"`) {
		t.Errorf("document missing the 4min33s interval:\n%s", doc)
	}
	if !strings.Contains(doc, `<FreeRide Power="0.5">`) {
		t.Errorf("open recovery not serialized as duration-less FreeRide:\n%s", doc)
	}
	if strings.Contains(doc, "FreeRide Duration") {
		t.Error("open recovery received a duration")
	}
}

func TestGenerateWattTargets(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{
		Query:          "3 fois 5min a 300 watts avec 2min repos",
		ReferencePower: 250,
	})

	if !resp.Accepted {
		t.Fatalf("rejected: %s (hints %v)", resp.RejectionReason, resp.Hints)
	}
	w := resp.Workout
	if w.Name != "3x5min vo2max" {
		t.Errorf("Name = %q, want zone derived from 300W/250W", w.Name)
	}
	if len(w.Segments) != 6 {
		t.Fatalf("got %d segments, want 3 intervals + 3 recoveries", len(w.Segments))
	}
	if p := w.Segments[0].Power; p != 1.2 {
		t.Errorf("work power = %v, want 300W over 250W reference = 1.2", p)
	}
	if !strings.Contains(string(resp.Document), `<SteadyState Duration="300" Power="1.2"`) {
		t.Errorf("document missing the watt-scaled interval:\n%s", resp.Document)
	}
}

func TestGenerateEnglishRepetitionPhrasing(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{Query: "3 times 5 minutes hard"})

	if !resp.Accepted {
		t.Fatalf("rejected: %s (hints %v)", resp.RejectionReason, resp.Hints)
	}
	w := resp.Workout
	if w.Name != "3x5min seuil" {
		t.Errorf("Name = %q, want the repetition preserved", w.Name)
	}
	if len(w.Segments) != 6 {
		t.Fatalf("got %d segments, want 3 intervals + 3 open recoveries", len(w.Segments))
	}
	open := 0
	for _, s := range w.Segments {
		if s.Open {
			open++
		}
	}
	if open != 3 {
		t.Errorf("open segments = %d, want 3 (no recovery stated)", open)
	}
	if w.TotalSeconds != 900 {
		t.Errorf("TotalSeconds = %d, want 900", w.TotalSeconds)
	}

	byMethod := map[string]int{}
	for _, c := range resp.Corrections {
		byMethod[c.Method]++
	}
	if byMethod["table"] != 2 {
		t.Errorf("table corrections = %d, want times->fois and hard->dur", byMethod["table"])
	}
}

func TestGenerateStrictModeRejectsMidBand(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{
		Query: "45 minutes",
		Mode:  pipeline.ModeStrict,
	})

	if resp.Accepted {
		t.Fatal("accepted in strict mode")
	}
	if strings.Contains(resp.RejectionReason, "après enrichissement") {
		t.Errorf("strict mode should reject before enrichment, got %q", resp.RejectionReason)
	}
}

func TestGenerateUnknownModeErrors(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	_, err := e.Generate(context.Background(), pipeline.GenerateRequest{
		Query: "30 minutes tempo",
		Mode:  "user",
	})
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("err = %v, want unknown mode error", err)
	}
}

func TestGenerateParametricPinsConfidence(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil, pipeline.WithBands(score.Strict))

	resp := generate(t, e, pipeline.GenerateRequest{
		Query: "2h endurance",
		Mode:  pipeline.ModeParametric,
	})

	if !resp.Accepted {
		t.Fatalf("rejected: %s", resp.RejectionReason)
	}
	if resp.Method != pipeline.MethodParametric {
		t.Errorf("Method = %q", resp.Method)
	}
	if resp.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want pinned 0.95", resp.Confidence)
	}
}

func TestGenerateParametricStillRequiresEntities(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)

	resp := generate(t, e, pipeline.GenerateRequest{
		Query: "45 minutes",
		Mode:  pipeline.ModeParametric,
	})

	if resp.Accepted {
		t.Fatal("parametric query without intensity was accepted")
	}
	if !strings.Contains(resp.RejectionReason, "données insuffisantes") {
		t.Errorf("RejectionReason = %q", resp.RejectionReason)
	}
	if len(resp.Hints) != 1 || !strings.Contains(resp.Hints[0], "intensité") {
		t.Errorf("Hints = %v", resp.Hints)
	}
}

func TestGenerateEnrichesFromCorpus(t *testing.T) {
	t.Parallel()
	ix := corpus.New(nil)
	snap, err := ix.BuildSnapshot(context.Background(), corpus.Builtin())
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	ix.Load(snap)
	e := pipeline.New(nil, nil, nil, pipeline.WithIndex(ix))

	// Duration only: mid-band on its own, lifted into acceptance by the
	// 45-minute aerobic reference session.
	resp := generate(t, e, pipeline.GenerateRequest{Query: "45 minutes"})

	if !resp.Accepted {
		t.Fatalf("rejected: %s (hints %v)", resp.RejectionReason, resp.Hints)
	}
	if resp.Method != pipeline.MethodDirectCorpus {
		t.Errorf("Method = %q, want %q", resp.Method, pipeline.MethodDirectCorpus)
	}
	if resp.MatchedEntry != "Aerobic 45min" {
		t.Errorf("MatchedEntry = %q", resp.MatchedEntry)
	}
	if resp.Confidence < 0.8 || resp.Confidence >= 1 {
		t.Errorf("Confidence = %v, want blended into the accept band below 1", resp.Confidence)
	}

	w := resp.Workout
	if len(w.Segments) != 1 || w.Segments[0].Seconds != 2700 {
		t.Fatalf("segments = %+v, want one 45min effort", w.Segments)
	}
}

func TestGenerateMidBandWithoutCorpusRejected(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts []pipeline.Option
	}{
		{"no index configured", nil},
		{"index without snapshot", []pipeline.Option{pipeline.WithIndex(corpus.New(nil))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := pipeline.New(nil, nil, nil, tt.opts...)

			resp := generate(t, e, pipeline.GenerateRequest{Query: "45 minutes"})

			if resp.Accepted {
				t.Fatal("mid-band query accepted without corpus support")
			}
			if !strings.Contains(resp.RejectionReason, "après enrichissement") {
				t.Errorf("RejectionReason = %q", resp.RejectionReason)
			}
			if len(resp.Hints) != 1 || !strings.Contains(resp.Hints[0], "intensité") {
				t.Errorf("Hints = %v", resp.Hints)
			}
		})
	}
}

func TestGenerateStrictBandsRejectEarlier(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil, pipeline.WithBands(score.Strict))

	resp := generate(t, e, pipeline.GenerateRequest{Query: "45 minutes"})

	if resp.Accepted {
		t.Fatal("accepted under strict bands")
	}
	if strings.Contains(resp.RejectionReason, "après enrichissement") {
		t.Errorf("strict bands should reject before enrichment, got %q", resp.RejectionReason)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)
	req := pipeline.GenerateRequest{
		Query: "10min warm up then 3 sets of 5 min at vo2max with 2 min easy between sets, finish with 10 min cool-down",
	}

	a := generate(t, e, req)
	b := generate(t, e, req)

	if a.Confidence != b.Confidence {
		t.Errorf("confidence differs between runs: %v vs %v", a.Confidence, b.Confidence)
	}
	if !bytes.Equal(a.Document, b.Document) {
		t.Error("documents differ between identical runs")
	}
}

func TestGenerateAuthorOverride(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil, pipeline.WithAuthor("Coach Martin"))

	engineLevel := generate(t, e, pipeline.GenerateRequest{Query: "30 minutes tempo"})
	if !strings.Contains(string(engineLevel.Document), "Coach Martin") {
		t.Error("engine author missing from document")
	}

	perRequest := generate(t, e, pipeline.GenerateRequest{Query: "30 minutes tempo", Author: "Léa"})
	if !strings.Contains(string(perRequest.Document), "Léa") {
		t.Error("request author did not override engine author")
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	t.Parallel()
	e := pipeline.New(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Generate(ctx, pipeline.GenerateRequest{Query: "30 minutes tempo"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
