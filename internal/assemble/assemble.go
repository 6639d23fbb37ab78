// Package assemble expands an extraction into a concrete workout: named,
// ordered segments with resolved power targets, cadence guidance and a
// training load estimate.
//
// Assembly never invents missing data. A required entity kind that is absent
// raises an InsufficientDataError, and an open duration stays open all the
// way into the serialized file. The only defaults applied here are rendering
// choices (ramp shapes for unspecified warm-ups, cadence guidance), never
// workout content.
package assemble

import (
	"fmt"
	"math"

	"github.com/Vicoder007/Vekta/internal/entity"
	"github.com/Vicoder007/Vekta/internal/zones"
)

// SegmentKind classifies a concrete workout segment.
type SegmentKind string

const (
	SegWarmup   SegmentKind = "warmup"
	SegSteady   SegmentKind = "steady"
	SegRamp     SegmentKind = "ramp"
	SegCooldown SegmentKind = "cooldown"
)

// Segment is one concrete piece of the workout timeline. Power values are
// fractions of reference power (0.95 = 95% FTP).
type Segment struct {
	Kind SegmentKind
	Name string

	// Seconds is zero when Open is set: the athlete ends the segment.
	Seconds int
	Open    bool

	Power    float64
	PowerEnd float64 // differs from Power on ramps
	Cadence  int
	Zone     string
}

// Workout is the fully assembled session.
type Workout struct {
	Name     string
	Segments []Segment

	// TotalSeconds covers closed segments only.
	TotalSeconds int

	// TrainingLoad is the TSS estimate over closed segments, rounded to one
	// decimal. Open segments contribute nothing rather than a guess.
	TrainingLoad float64
}

// DefaultReferencePower is the FTP, in watts, used to scale absolute watt
// targets when a request does not carry its own value.
const DefaultReferencePower = 250.0

// Assembler expands extractions against a zone table. Read-only after
// construction and safe for concurrent use.
type Assembler struct {
	zones *zones.Table
}

// New returns an Assembler. When zt is nil the default table is used.
func New(zt *zones.Table) *Assembler {
	if zt == nil {
		zt = zones.Default()
	}
	return &Assembler{zones: zt}
}

// Assemble expands the extraction into a workout, scaling absolute watt
// targets against referencePower (watts; non-positive values fall back to
// DefaultReferencePower). It returns an *entity.InsufficientDataError when
// required kinds are absent.
func (a *Assembler) Assemble(ex *entity.Extraction, referencePower float64) (*Workout, error) {
	if missing := ex.Set.Missing(entity.RequiredKinds); len(missing) > 0 {
		return nil, &entity.InsufficientDataError{Missing: missing}
	}
	if referencePower <= 0 {
		referencePower = DefaultReferencePower
	}

	w := &Workout{Name: a.workoutName(ex, referencePower)}

	if ex.Template != nil && len(ex.Template.Blocks) > 0 {
		st := &expandState{totalWork: countWork(ex.Template.Blocks)}
		for _, b := range ex.Template.Blocks {
			a.expandBlock(w, st, b, referencePower)
		}
	} else {
		// No structure: a single continuous effort from the entity set.
		dur, _ := ex.Set.First(entity.KindDuration)
		in, _ := ex.Set.First(entity.KindIntensity)
		power := a.resolvePower(in.Percent, in.Watts, in.Zone, 0.65, referencePower)
		w.Segments = append(w.Segments, Segment{
			Kind:    SegSteady,
			Name:    "Effort continu",
			Seconds: dur.Seconds,
			Open:    dur.Open,
			Power:   power,
			Cadence: cadenceFor(power),
			Zone:    a.zoneNameFor(power, in.Zone),
		})
	}

	for _, s := range w.Segments {
		if s.Open {
			continue
		}
		w.TotalSeconds += s.Seconds
		w.TrainingLoad += segmentLoad(s)
	}
	w.TrainingLoad = math.Round(w.TrainingLoad*10) / 10
	return w, nil
}

// expandState carries numbering across the recursive expansion.
type expandState struct {
	totalWork int
	workSeen  int
	recSeen   int
}

func (a *Assembler) expandBlock(w *Workout, st *expandState, b entity.Block, referencePower float64) {
	repeat := b.Repeat
	if repeat < 1 {
		repeat = 1
	}
	for i := 0; i < repeat; i++ {
		if len(b.Blocks) > 0 {
			for _, inner := range b.Blocks {
				a.expandBlock(w, st, inner, referencePower)
			}
			continue
		}
		for _, step := range b.Steps {
			w.Segments = append(w.Segments, a.expandStep(st, step, referencePower))
		}
	}
}

func (a *Assembler) expandStep(st *expandState, step entity.Step, referencePower float64) Segment {
	switch step.Kind {
	case entity.StepWarmup:
		return a.rampSegment(SegWarmup, "Échauffement", step, 0.50, 0.75, referencePower)
	case entity.StepCooldown:
		return a.rampSegment(SegCooldown, "Retour au calme", step, 0.70, 0.50, referencePower)
	case entity.StepRecovery:
		st.recSeen++
		power := a.resolvePower(step.Percent, step.Watts, step.Zone, 0.50, referencePower)
		return Segment{
			Kind:    SegSteady,
			Name:    fmt.Sprintf("Récupération %d", st.recSeen),
			Seconds: step.Seconds,
			Open:    step.Open,
			Power:   power,
			Cadence: cadenceFor(power),
			Zone:    a.zoneNameFor(power, step.Zone),
		}
	default:
		st.workSeen++
		name := fmt.Sprintf("Intervalle %d/%d", st.workSeen, st.totalWork)
		if st.totalWork == 1 {
			name = "Effort principal"
		}
		power := a.resolvePower(step.Percent, step.Watts, step.Zone, 0.65, referencePower)
		seg := Segment{
			Kind:    SegSteady,
			Name:    name,
			Seconds: step.Seconds,
			Open:    step.Open,
			Power:   power,
			Cadence: cadenceFor(power),
			Zone:    a.zoneNameFor(power, step.Zone),
		}
		if step.PercentEnd > 0 && step.PercentEnd != step.Percent {
			seg.Kind = SegRamp
			seg.PowerEnd = step.PercentEnd / 100
		}
		return seg
	}
}

// rampSegment renders warm-up and cool-down steps. An explicit percentage or
// watt target flattens the ramp; a named zone centers it; otherwise the
// default ramp bounds apply.
func (a *Assembler) rampSegment(kind SegmentKind, name string, step entity.Step, defLow, defHigh, referencePower float64) Segment {
	low, high := defLow, defHigh
	switch {
	case step.Percent > 0:
		low, high = step.Percent/100, step.Percent/100
	case step.Watts > 0:
		low, high = step.Watts/referencePower, step.Watts/referencePower
	case step.Zone != "":
		if z, ok := a.zones.ForName(step.Zone); ok {
			mid := a.zones.Target(z) / 100
			low, high = mid, mid
		}
	}
	avg := (low + high) / 2
	return Segment{
		Kind:     kind,
		Name:     name,
		Seconds:  step.Seconds,
		Open:     step.Open,
		Power:    low,
		PowerEnd: high,
		Cadence:  cadenceFor(avg),
		Zone:     a.zoneNameFor(avg, step.Zone),
	}
}

// resolvePower applies the intensity precedence: explicit percentage, then
// absolute watts over reference power, then zone midpoint, then the
// kind-specific fallback fraction.
func (a *Assembler) resolvePower(percent, watts float64, zone string, fallback, referencePower float64) float64 {
	if percent > 0 {
		return percent / 100
	}
	if watts > 0 {
		return watts / referencePower
	}
	if zone != "" {
		if z, ok := a.zones.ForName(zone); ok {
			return a.zones.Target(z) / 100
		}
	}
	return fallback
}

func (a *Assembler) zoneNameFor(power float64, declared string) string {
	if declared != "" {
		if z, ok := a.zones.ForName(declared); ok {
			return z.Name
		}
	}
	if z, ok := a.zones.ForPercent(power * 100); ok {
		return z.Name
	}
	return declared
}

// workoutName composes a short human name from the dominant entities.
func (a *Assembler) workoutName(ex *entity.Extraction, referencePower float64) string {
	zoneName := ""
	if in, ok := ex.Set.First(entity.KindIntensity); ok {
		zoneName = a.zoneNameFor(a.resolvePower(in.Percent, in.Watts, in.Zone, 0.65, referencePower), in.Zone)
	}

	if rep, ok := ex.Set.First(entity.KindRepetition); ok && rep.Count > 1 {
		if work := mainWorkSeconds(ex); work > 0 {
			return fmt.Sprintf("%dx%s %s", rep.Count, shortDuration(work), zoneName)
		}
		return fmt.Sprintf("%d répétitions %s", rep.Count, zoneName)
	}
	if dur, ok := ex.Set.First(entity.KindDuration); ok && dur.Seconds > 0 {
		return fmt.Sprintf("%s %s", shortDuration(dur.Seconds), zoneName)
	}
	return "Séance Vekta"
}

// mainWorkSeconds finds the duration of the repeated work step.
func mainWorkSeconds(ex *entity.Extraction) int {
	if ex.Template == nil {
		return 0
	}
	return firstWorkSeconds(ex.Template.Blocks)
}

func firstWorkSeconds(blocks []entity.Block) int {
	for _, b := range blocks {
		if b.Repeat > 1 {
			for _, s := range b.Steps {
				if s.Kind == entity.StepWork && s.Seconds > 0 {
					return s.Seconds
				}
			}
		}
		if n := firstWorkSeconds(b.Blocks); n > 0 {
			return n
		}
	}
	return 0
}

func countWork(blocks []entity.Block) int {
	n := 0
	for _, b := range blocks {
		repeat := b.Repeat
		if repeat < 1 {
			repeat = 1
		}
		inner := 0
		if len(b.Blocks) > 0 {
			inner = countWork(b.Blocks)
		} else {
			for _, s := range b.Steps {
				if s.Kind == entity.StepWork {
					inner++
				}
			}
		}
		n += inner * repeat
	}
	return n
}

func shortDuration(seconds int) string {
	if seconds%60 == 0 {
		return fmt.Sprintf("%dmin", seconds/60)
	}
	return fmt.Sprintf("%dmin%ds", seconds/60, seconds%60)
}

// segmentLoad is the TSS contribution of one closed segment: duration in
// hours times the squared intensity factor, times 100.
func segmentLoad(s Segment) float64 {
	power := s.Power
	if s.PowerEnd > 0 {
		power = (s.Power + s.PowerEnd) / 2
	}
	hours := float64(s.Seconds) / 3600
	return hours * power * power * 100
}

// cadenceFor returns cadence guidance by intensity, in rpm.
func cadenceFor(power float64) int {
	p := power * 100
	switch {
	case p <= 75:
		return 85
	case p <= 90:
		return 90
	case p <= 105:
		return 95
	case p <= 120:
		return 105
	default:
		return 110
	}
}
