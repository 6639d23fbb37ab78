package entity

// StepKind classifies one step of a structure template.
type StepKind string

const (
	StepWarmup   StepKind = "warmup"
	StepWork     StepKind = "work"
	StepRecovery StepKind = "recovery"
	StepCooldown StepKind = "cooldown"
)

// Step is one segment template inside a structure. The extractor fills steps
// from text; the assembler expands them into concrete workout segments
// without re-parsing anything.
type Step struct {
	Kind StepKind

	// Seconds is the explicit duration. Open marks an athlete-controlled
	// duration; an open step never receives an estimated value downstream.
	Seconds int
	Open    bool

	// Percent is the explicit intensity as a percentage of reference power;
	// zero means only watts or the zone name (possibly empty) are known.
	Percent float64

	// Watts is an absolute power target, divided by the reference power at
	// assembly time. Percent outranks Watts when both are set.
	Watts float64

	// PercentEnd, when non-zero and different from Percent, makes the step a
	// ramp from Percent to PercentEnd.
	PercentEnd float64

	Zone string
}

// Block is a recursive repetition structure: either a leaf sequence of steps
// or a sequence of nested blocks, repeated Repeat times. Nesting depth is
// unbounded; two levels (blocks × repetitions) is the common case.
type Block struct {
	Repeat int
	Steps  []Step
	Blocks []Block
}

// Template is the structure shape recovered from a query: an ordered
// top-level block sequence annotated with the detected shape name.
type Template struct {
	Shape  string
	Blocks []Block
}

// Extraction bundles the entity set with the structure template so the
// pipeline can hand both to enrichment and assembly as one unit.
type Extraction struct {
	Set      Set
	Template *Template
}

// StepCount returns the number of concrete steps the template expands to.
func (t *Template) StepCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, b := range t.Blocks {
		n += b.stepCount()
	}
	return n
}

func (b Block) stepCount() int {
	repeat := b.Repeat
	if repeat < 1 {
		repeat = 1
	}
	n := 0
	if len(b.Blocks) > 0 {
		for _, inner := range b.Blocks {
			n += inner.stepCount()
		}
	} else {
		n = len(b.Steps)
	}
	return n * repeat
}
