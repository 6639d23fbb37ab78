// Package entity defines the typed entities the structural extractor pulls
// out of a normalized query, and the merge rules that govern how corpus
// enrichment may complete a partial extraction.
package entity

// Kind identifies a category of extracted information.
type Kind string

const (
	KindDuration   Kind = "duration"
	KindIntensity  Kind = "intensity"
	KindRepetition Kind = "repetition"
	KindStructure  Kind = "structure"
	KindPhase      Kind = "phase"
	KindRecovery   Kind = "recovery"
)

// RequiredKinds are the entity kinds a query must provide before a workout
// can be assembled. Structure is additionally required when repetition
// language is present; see the confidence scorer.
var RequiredKinds = []Kind{KindDuration, KindIntensity}

// Origin records where a value came from. Direct extraction always outranks
// corpus inference: a corpus-origin value may only ever fill a kind that
// direct extraction left empty.
type Origin string

const (
	OriginDirect Origin = "direct"
	OriginCorpus Origin = "corpus"
)

// Span locates a value inside the normalized query text. Every direct value
// must reference a non-empty span; corpus-origin values carry a zero span.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers no text.
func (s Span) Empty() bool { return s.End <= s.Start }

// Value is one extracted datum. Which payload fields are meaningful depends
// on the kind it is stored under.
type Value struct {
	Span       Span
	Confidence float64
	Origin     Origin

	// Duration / recovery payload. Open means the athlete controls the end
	// of the interval; Seconds is zero in that case and must not be
	// substituted with an estimate.
	Seconds int
	Open    bool

	// Intensity payload: an explicit percentage of reference power, an
	// absolute watt target, or a named zone. At assembly time an explicit
	// percentage wins, then watts, then the zone midpoint.
	Percent float64
	Watts   float64
	Zone    string

	// Repetition payload.
	Count int

	// Structure payload: "intervals", "nested", "pyramid", "continuous", ...
	Shape string

	// Phase payload: "warmup", "main", "cooldown".
	Label string
}

// Set maps entity kinds to the values extracted for them. Absence of a kind
// is signalled by a missing key, never by an error.
type Set map[Kind][]Value

// Has reports whether at least one value exists for kind.
func (s Set) Has(kind Kind) bool { return len(s[kind]) > 0 }

// Add appends a value under kind.
func (s Set) Add(kind Kind, v Value) { s[kind] = append(s[kind], v) }

// First returns the first value for kind, or a zero Value when absent.
func (s Set) First(kind Kind) (Value, bool) {
	vs := s[kind]
	if len(vs) == 0 {
		return Value{}, false
	}
	return vs[0], true
}

// Missing returns the kinds from required that have no value at all.
func (s Set) Missing(required []Kind) []Kind {
	var missing []Kind
	for _, k := range required {
		if !s.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Fill adds values under kind only when the kind is currently absent,
// stamping them with corpus origin and the given confidence. It reports
// whether anything was added. Kinds already populated by direct extraction
// are never touched.
func (s Set) Fill(kind Kind, confidence float64, values ...Value) bool {
	if s.Has(kind) || len(values) == 0 {
		return false
	}
	for _, v := range values {
		v.Origin = OriginCorpus
		v.Confidence = confidence
		v.Span = Span{}
		s.Add(kind, v)
	}
	return true
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, vs := range s {
		cp := make([]Value, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}
