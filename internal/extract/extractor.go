// Package extract implements the structural extractor: it decomposes a
// normalized query into typed entities (durations, intensities, repetition
// counts, structure shape, phase markers) and a structure template the
// assembler can expand without ever re-parsing text.
//
// Extraction is clause-oriented: the text is split on sequence connectors
// ("puis", "ensuite", commas, periods) and each clause is classified as a
// warm-up, cool-down, interval block, recovery specification or steady
// effort. Partial results are normal: a clause that yields nothing simply
// contributes nothing, and absence of an entity kind is signalled by a
// missing key in the resulting set, never by an error.
package extract

import (
	"strconv"
	"strings"

	"github.com/Vicoder007/Vekta/internal/entity"
	"github.com/Vicoder007/Vekta/internal/normalize"
	"github.com/Vicoder007/Vekta/internal/zones"
)

// Extractor turns normalized queries into entity sets. It is read-only
// after construction and safe for concurrent use.
type Extractor struct {
	zones *zones.Table
}

// New returns an Extractor resolving effort words against the given zone
// table. When zt is nil the default table is used.
func New(zt *zones.Table) *Extractor {
	if zt == nil {
		zt = zones.Default()
	}
	return &Extractor{zones: zt}
}

// Extract parses the normalized query into an entity set plus structure
// template. It never fails; callers check the set for missing kinds.
func (e *Extractor) Extract(q normalize.Query) *entity.Extraction {
	ex := &entity.Extraction{Set: entity.Set{}}

	var blocks []entity.Block
	// lastOpenRecovery points at the recovery step of the most recent
	// interval block whose recovery was left open, so a trailing "2min repos
	// entre les series" clause can still bind to it.
	var lastOpenRecovery *entity.Step

	for _, cl := range splitClauses(q.Text) {
		p := e.parseClause(cl)
		p.record(ex)

		switch p.kind {
		case clauseWarmup:
			if p.firstDuration() > 0 {
				blocks = append(blocks, entity.Block{Repeat: 1, Steps: []entity.Step{{
					Kind:    entity.StepWarmup,
					Seconds: p.firstDuration(),
					Percent: p.percent,
					Watts:   p.watts,
					Zone:    p.zone,
				}}})
			}
		case clauseCooldown:
			if p.firstDuration() > 0 {
				blocks = append(blocks, entity.Block{Repeat: 1, Steps: []entity.Step{{
					Kind:    entity.StepCooldown,
					Seconds: p.firstDuration(),
					Percent: p.percent,
					Watts:   p.watts,
					Zone:    p.zone,
				}}})
			}
		case clauseInterval:
			b := e.buildIntervalBlock(p)
			blocks = append(blocks, b)
			lastOpenRecovery = openRecoveryOf(&blocks[len(blocks)-1])
		case clausePyramid:
			blocks = append(blocks, e.buildPyramidBlock(p))
		case clauseRecovery:
			// Standalone recovery spec: bind to the preceding block's open
			// recovery when one exists. Direct text still outranks defaults.
			if lastOpenRecovery != nil && p.firstDuration() > 0 {
				lastOpenRecovery.Seconds = p.firstDuration()
				lastOpenRecovery.Open = false
				lastOpenRecovery = nil
				dropOpenRecovery(ex.Set)
			}
		case clauseSteady:
			if p.firstDuration() > 0 {
				blocks = append(blocks, entity.Block{Repeat: 1, Steps: []entity.Step{{
					Kind:    entity.StepWork,
					Seconds: p.firstDuration(),
					Percent: p.percent,
					Watts:   p.watts,
					Zone:    p.zone,
				}}})
			}
		}
	}

	if len(blocks) > 0 {
		shape := shapeOf(ex.Set, blocks)
		ex.Template = &entity.Template{Shape: shape, Blocks: blocks}
		if !ex.Set.Has(entity.KindStructure) && shape != "continuous" {
			ex.Set.Add(entity.KindStructure, entity.Value{
				Span:       entity.Span{Start: 0, End: len(q.Text)},
				Confidence: 0.8,
				Origin:     entity.OriginDirect,
				Shape:      shape,
			})
		}
	}

	return ex
}

// buildIntervalBlock assembles a repetition block from an interval clause:
// N repetitions of a work step plus a recovery step. A repetition without
// any recovery mention yields an explicitly open recovery step, never a
// computed default.
func (e *Extractor) buildIntervalBlock(p parsedClause) entity.Block {
	work := entity.Step{
		Kind:    entity.StepWork,
		Seconds: p.firstDuration(),
		Percent: p.percent,
		Watts:   p.watts,
		Zone:    p.zone,
	}

	recovery := entity.Step{Kind: entity.StepRecovery, Open: true}
	if p.recoverySeconds > 0 {
		recovery.Seconds = p.recoverySeconds
		recovery.Open = false
	}

	// Over-under alternation: each repetition is a high/low pair instead of
	// work plus recovery.
	if p.percentLow > 0 && p.percent > 0 {
		half := work.Seconds / 2
		steps := []entity.Step{
			{Kind: entity.StepWork, Seconds: work.Seconds - half, Percent: p.percent, Zone: p.zone},
			{Kind: entity.StepWork, Seconds: half, Percent: p.percentLow},
		}
		inner := entity.Block{Repeat: p.reps, Steps: steps}
		if p.blockCount > 1 {
			return entity.Block{Repeat: p.blockCount, Blocks: []entity.Block{inner}}
		}
		return inner
	}

	inner := entity.Block{Repeat: p.reps, Steps: []entity.Step{work, recovery}}
	if p.blockCount > 1 {
		return entity.Block{Repeat: p.blockCount, Blocks: []entity.Block{inner}}
	}
	return inner
}

// buildPyramidBlock turns a progression like "1-2-3-2-1 minutes a seuil"
// into an alternating work/recovery step sequence.
func (e *Extractor) buildPyramidBlock(p parsedClause) entity.Block {
	var steps []entity.Step
	for i, mins := range p.pyramid {
		steps = append(steps, entity.Step{
			Kind:    entity.StepWork,
			Seconds: mins * 60,
			Percent: p.percent,
			Watts:   p.watts,
			Zone:    p.zone,
		})
		if i < len(p.pyramid)-1 {
			rec := entity.Step{Kind: entity.StepRecovery, Open: true}
			if p.recoverySeconds > 0 {
				rec.Seconds = p.recoverySeconds
				rec.Open = false
			}
			steps = append(steps, rec)
		}
	}
	return entity.Block{Repeat: 1, Steps: steps}
}

// shapeOf classifies the overall structure.
func shapeOf(set entity.Set, blocks []entity.Block) string {
	for _, v := range set[entity.KindStructure] {
		if v.Shape != "" {
			return v.Shape
		}
	}
	nested := false
	intervals := false
	for _, b := range blocks {
		if len(b.Blocks) > 0 {
			nested = true
		}
		if b.Repeat > 1 {
			intervals = true
		}
	}
	switch {
	case nested:
		return "nested"
	case intervals:
		return "intervals"
	default:
		return "continuous"
	}
}

// openRecoveryOf returns a pointer to the block's open recovery step, if any.
func openRecoveryOf(b *entity.Block) *entity.Step {
	if len(b.Blocks) > 0 {
		return openRecoveryOf(&b.Blocks[len(b.Blocks)-1])
	}
	for i := range b.Steps {
		if b.Steps[i].Kind == entity.StepRecovery && b.Steps[i].Open {
			return &b.Steps[i]
		}
	}
	return nil
}

// dropOpenRecovery removes the most recent open recovery value after a
// standalone recovery clause supplied the explicit duration for it.
func dropOpenRecovery(set entity.Set) {
	vs := set[entity.KindRecovery]
	for i := len(vs) - 1; i >= 0; i-- {
		if vs[i].Open {
			set[entity.KindRecovery] = append(vs[:i:i], vs[i+1:]...)
			return
		}
	}
}

func parseNumber(s string) float64 {
	s = strings.ReplaceAll(s, ",", ".")
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
