package assemble_test

import (
	"errors"
	"testing"

	"github.com/Vicoder007/Vekta/internal/assemble"
	"github.com/Vicoder007/Vekta/internal/entity"
)

// classicIntervals is "10min échauffement, 3x5min vo2max avec 2min récup,
// 10min retour au calme" in template form.
func classicIntervals() *entity.Extraction {
	set := entity.Set{}
	set.Add(entity.KindDuration, entity.Value{Origin: entity.OriginDirect, Seconds: 300})
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginDirect, Zone: "vo2max"})
	set.Add(entity.KindRepetition, entity.Value{Origin: entity.OriginDirect, Count: 3})
	set.Add(entity.KindStructure, entity.Value{Origin: entity.OriginDirect, Shape: "intervals"})

	return &entity.Extraction{
		Set: set,
		Template: &entity.Template{
			Shape: "intervals",
			Blocks: []entity.Block{
				{Repeat: 1, Steps: []entity.Step{{Kind: entity.StepWarmup, Seconds: 600}}},
				{Repeat: 3, Steps: []entity.Step{
					{Kind: entity.StepWork, Seconds: 300, Zone: "vo2max"},
					{Kind: entity.StepRecovery, Seconds: 120},
				}},
				{Repeat: 1, Steps: []entity.Step{{Kind: entity.StepCooldown, Seconds: 600}}},
			},
		},
	}
}

func TestAssembleExpandsIntervals(t *testing.T) {
	t.Parallel()
	w, err := assemble.New(nil).Assemble(classicIntervals(), 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(w.Segments) != 8 {
		t.Fatalf("expected 8 segments (1+3x2+1), got %d", len(w.Segments))
	}
	if w.Segments[0].Kind != assemble.SegWarmup {
		t.Errorf("first segment kind = %v, want warmup", w.Segments[0].Kind)
	}
	if w.Segments[7].Kind != assemble.SegCooldown {
		t.Errorf("last segment kind = %v, want cooldown", w.Segments[7].Kind)
	}
	if got := w.Segments[1].Name; got != "Intervalle 1/3" {
		t.Errorf("first interval name = %q", got)
	}
	if got := w.Segments[5].Name; got != "Intervalle 3/3" {
		t.Errorf("third interval name = %q", got)
	}
	if got := w.Segments[2].Name; got != "Récupération 1" {
		t.Errorf("first recovery name = %q", got)
	}

	// vo2max midpoint of the default table is 117.5%.
	if p := w.Segments[1].Power; p < 1.17 || p > 1.18 {
		t.Errorf("interval power = %v, want zone midpoint ~1.175", p)
	}
	if w.TotalSeconds != 600+3*(300+120)+600 {
		t.Errorf("TotalSeconds = %d", w.TotalSeconds)
	}
	if w.TrainingLoad <= 0 {
		t.Errorf("TrainingLoad = %v, want positive", w.TrainingLoad)
	}
}

func TestAssembleMissingRequiredKinds(t *testing.T) {
	t.Parallel()
	set := entity.Set{}
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginDirect, Zone: "seuil"})

	_, err := assemble.New(nil).Assemble(&entity.Extraction{Set: set}, 250)
	var ide *entity.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if len(ide.Missing) != 1 || ide.Missing[0] != entity.KindDuration {
		t.Errorf("Missing = %v, want [duration]", ide.Missing)
	}
	if len(ide.Hints()) != 1 {
		t.Errorf("expected one hint, got %v", ide.Hints())
	}
}

func TestAssembleOpenRecoveryStaysOpen(t *testing.T) {
	t.Parallel()
	set := entity.Set{}
	set.Add(entity.KindDuration, entity.Value{Origin: entity.OriginDirect, Seconds: 273})
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginDirect, Percent: 87.3})
	set.Add(entity.KindRepetition, entity.Value{Origin: entity.OriginDirect, Count: 2})
	set.Add(entity.KindStructure, entity.Value{Origin: entity.OriginDirect, Shape: "intervals"})

	ex := &entity.Extraction{
		Set: set,
		Template: &entity.Template{
			Shape: "intervals",
			Blocks: []entity.Block{
				{Repeat: 2, Steps: []entity.Step{
					{Kind: entity.StepWork, Seconds: 273, Percent: 87.3},
					{Kind: entity.StepRecovery, Open: true},
				}},
			},
		},
	}

	w, err := assemble.New(nil).Assemble(ex, 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	open := 0
	for _, s := range w.Segments {
		if s.Open {
			open++
			if s.Seconds != 0 {
				t.Errorf("open segment %q carries seconds %d", s.Name, s.Seconds)
			}
		}
	}
	if open != 2 {
		t.Fatalf("expected 2 open recoveries, got %d", open)
	}

	// Open segments contribute neither time nor load.
	if w.TotalSeconds != 2*273 {
		t.Errorf("TotalSeconds = %d, want %d", w.TotalSeconds, 2*273)
	}
	wantLoad := 2 * (273.0 / 3600) * 0.873 * 0.873 * 100
	if diff := w.TrainingLoad - wantLoad; diff > 0.1 || diff < -0.1 {
		t.Errorf("TrainingLoad = %v, want ~%v", w.TrainingLoad, wantLoad)
	}
}

func TestAssembleExplicitPercentBeatsZone(t *testing.T) {
	t.Parallel()
	set := entity.Set{}
	set.Add(entity.KindDuration, entity.Value{Origin: entity.OriginDirect, Seconds: 1200})
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginDirect, Percent: 95, Zone: "seuil"})

	ex := &entity.Extraction{
		Set: set,
		Template: &entity.Template{
			Shape: "continuous",
			Blocks: []entity.Block{
				{Repeat: 1, Steps: []entity.Step{{Kind: entity.StepWork, Seconds: 1200, Percent: 95, Zone: "seuil"}}},
			},
		},
	}

	w, err := assemble.New(nil).Assemble(ex, 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(w.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(w.Segments))
	}
	if w.Segments[0].Power != 0.95 {
		t.Errorf("Power = %v, want explicit 0.95 over the seuil midpoint", w.Segments[0].Power)
	}
	if w.Segments[0].Name != "Effort principal" {
		t.Errorf("Name = %q", w.Segments[0].Name)
	}
}

func TestAssembleWithoutTemplate(t *testing.T) {
	t.Parallel()
	set := entity.Set{}
	set.Add(entity.KindDuration, entity.Value{Origin: entity.OriginCorpus, Seconds: 2700, Confidence: 0.7})
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginCorpus, Zone: "endurance", Confidence: 0.7})

	w, err := assemble.New(nil).Assemble(&entity.Extraction{Set: set}, 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(w.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(w.Segments))
	}
	s := w.Segments[0]
	if s.Seconds != 2700 || s.Zone != "endurance" {
		t.Errorf("unexpected segment: %+v", s)
	}
	// endurance midpoint is 65%.
	if s.Power != 0.65 {
		t.Errorf("Power = %v, want 0.65", s.Power)
	}
	if s.Cadence != 85 {
		t.Errorf("Cadence = %d, want 85 at endurance intensity", s.Cadence)
	}
}

func TestWorkoutNameComposition(t *testing.T) {
	t.Parallel()
	w, err := assemble.New(nil).Assemble(classicIntervals(), 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if w.Name != "3x5min vo2max" {
		t.Errorf("Name = %q, want 3x5min vo2max", w.Name)
	}
}

func TestAssembleWattTargetScaledByReferencePower(t *testing.T) {
	t.Parallel()
	set := entity.Set{}
	set.Add(entity.KindDuration, entity.Value{Origin: entity.OriginDirect, Seconds: 300})
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginDirect, Watts: 300})
	set.Add(entity.KindRepetition, entity.Value{Origin: entity.OriginDirect, Count: 3})
	set.Add(entity.KindStructure, entity.Value{Origin: entity.OriginDirect, Shape: "intervals"})

	ex := &entity.Extraction{
		Set: set,
		Template: &entity.Template{
			Shape: "intervals",
			Blocks: []entity.Block{
				{Repeat: 3, Steps: []entity.Step{
					{Kind: entity.StepWork, Seconds: 300, Watts: 300},
					{Kind: entity.StepRecovery, Seconds: 120},
				}},
			},
		},
	}

	w, err := assemble.New(nil).Assemble(ex, 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(w.Segments) != 6 {
		t.Fatalf("expected 6 segments, got %d", len(w.Segments))
	}
	if p := w.Segments[0].Power; p != 1.2 {
		t.Errorf("work power = %v, want 300W/250W = 1.2", p)
	}

	// A non-positive reference power falls back to the 250W default.
	w, err = assemble.New(nil).Assemble(ex, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if p := w.Segments[0].Power; p != 300/assemble.DefaultReferencePower {
		t.Errorf("work power = %v, want default-scaled %v", p, 300/assemble.DefaultReferencePower)
	}
}

func TestAssembleExplicitPercentBeatsWatts(t *testing.T) {
	t.Parallel()
	set := entity.Set{}
	set.Add(entity.KindDuration, entity.Value{Origin: entity.OriginDirect, Seconds: 1200})
	set.Add(entity.KindIntensity, entity.Value{Origin: entity.OriginDirect, Percent: 90, Watts: 300})

	ex := &entity.Extraction{
		Set: set,
		Template: &entity.Template{
			Shape: "continuous",
			Blocks: []entity.Block{
				{Repeat: 1, Steps: []entity.Step{{Kind: entity.StepWork, Seconds: 1200, Percent: 90, Watts: 300}}},
			},
		},
	}

	w, err := assemble.New(nil).Assemble(ex, 250)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if w.Segments[0].Power != 0.9 {
		t.Errorf("Power = %v, want explicit 0.9 over the watt target", w.Segments[0].Power)
	}
}
