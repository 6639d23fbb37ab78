// Package score computes the confidence of an extraction and maps it onto
// the reject / enrich / accept decision bands.
//
// Confidence is deterministic: the same entity set, unresolved-token count
// and corpus match score always produce the same value. The pipeline never
// compensates for a low score by inventing data; it either enriches from the
// corpus or rejects with actionable hints.
package score

import (
	"fmt"

	"github.com/Vicoder007/Vekta/internal/entity"
)

// Band is the decision a confidence value maps to.
type Band string

const (
	// BandReject means the extraction is too incomplete to act on.
	BandReject Band = "reject"
	// BandEnrich means corpus enrichment may still lift the extraction
	// into acceptance.
	BandEnrich Band = "enrich"
	// BandAccept means the workout is generated as extracted.
	BandAccept Band = "accept"
)

// Bands holds the two thresholds partitioning [0, 1] into the three decision
// bands. Confidence below Reject rejects, at or above Accept accepts,
// anything between goes through enrichment.
type Bands struct {
	Reject float64 `yaml:"reject"`
	Accept float64 `yaml:"accept"`
}

// Lenient is the default preset, tuned for colloquial everyday queries.
var Lenient = Bands{Reject: 0.4, Accept: 0.8}

// Strict is the preset for coaching contexts where a wrong workout is worse
// than a rejected query.
var Strict = Bands{Reject: 0.75, Accept: 0.95}

// Preset returns the named threshold preset.
func Preset(name string) (Bands, bool) {
	switch name {
	case "lenient", "":
		return Lenient, true
	case "strict":
		return Strict, true
	}
	return Bands{}, false
}

// Validate checks the band ordering invariant 0 <= Reject < Accept <= 1.
func (b Bands) Validate() error {
	if b.Reject < 0 || b.Accept > 1 || b.Reject >= b.Accept {
		return fmt.Errorf("score: invalid bands: reject %v must be below accept %v within [0, 1]", b.Reject, b.Accept)
	}
	return nil
}

// Of maps a confidence value onto its decision band.
func (b Bands) Of(confidence float64) Band {
	switch {
	case confidence < b.Reject:
		return BandReject
	case confidence >= b.Accept:
		return BandAccept
	default:
		return BandEnrich
	}
}

// Input carries everything confidence depends on.
type Input struct {
	// Set is the entity set after extraction (and, on the second scoring
	// pass, after enrichment).
	Set entity.Set

	// Unresolved is the number of tokens the normalizer could not map to
	// the vocabulary.
	Unresolved int

	// MatchScore is the similarity of the best corpus match used for
	// enrichment, zero when no enrichment happened.
	MatchScore float64
}

// Confidence computes the confidence of an extraction, clamped to [0, 1].
//
// The base is completeness over the required kinds. When corpus enrichment
// contributed, the base is blended 60/40 with the match score so a filled-in
// workout never scores as high as a fully explicit one backed by a strong
// match. A fully resolved query earns a small bonus; every unresolved token
// beyond the first costs one.
func Confidence(in Input) float64 {
	c := Completeness(in.Set)
	if in.MatchScore > 0 {
		c = 0.6*c + 0.4*in.MatchScore
	}

	if in.Unresolved == 0 {
		c += 0.05
	} else if in.Unresolved > 1 {
		c -= 0.05 * float64(in.Unresolved-1)
	}

	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Completeness is the fraction of required entity kinds present in the set.
// Duration and intensity are always required; structure becomes required as
// soon as repetition language appears, since "5 fois" without a shape cannot
// be assembled.
func Completeness(set entity.Set) float64 {
	required := requiredKinds(set)
	have := 0
	for _, k := range required {
		if set.Has(k) {
			have++
		}
	}
	return float64(have) / float64(len(required))
}

func requiredKinds(set entity.Set) []entity.Kind {
	required := append([]entity.Kind(nil), entity.RequiredKinds...)
	if set.Has(entity.KindRepetition) {
		required = append(required, entity.KindStructure)
	}
	return required
}
