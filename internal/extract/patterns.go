package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Vicoder007/Vekta/internal/entity"
)

// Precompiled pattern set. Durations support compact second-precision forms
// (4min33s), hour forms (2h30, 2 heures) and bare units; intensities support
// decimal percentages, percentage ranges and absolute watt targets.
var (
	reDurMinSec = regexp.MustCompile(`(\d+)\s*(?:min|mn)\s*(\d+)\s*s(?:ec)?\b`)
	reDurHour   = regexp.MustCompile(`(\d+)\s*(?:heures?|h)\s*(\d+)?\b`)
	reDurMin    = regexp.MustCompile(`(\d+)\s*(?:minutes?\b|min\b|mn\b)`)
	reDurSec    = regexp.MustCompile(`(\d+)\s*(?:secondes?\b|sec\b|s\b)`)
	rePercent   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	reRange     = regexp.MustCompile(`entre\s+(\d+(?:[.,]\d+)?)\s*%\s*et\s+(\d+(?:[.,]\d+)?)\s*%`)
	reWatts     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:watts?\b|w\b)`)
	reReps      = regexp.MustCompile(`(\d+)\s*(?:x\b|fois\b|series?\s+(?:de|of)\b|repetitions?\s+(?:de|of)\b)`)
	reBlocks    = regexp.MustCompile(`(\d+)\s*blocs?\s+de\b`)
	rePyramid   = regexp.MustCompile(`(\d+(?:\s*-\s*\d+){2,})`)

	reWarmup   = regexp.MustCompile(`echauffement|chauffe`)
	reCooldown = regexp.MustCompile(`retour-au-calme|calme\b|cool\b`)
	reRecovery = regexp.MustCompile(`repos|recuperation`)
	reEasy     = regexp.MustCompile(`facile|tranquille|souple`)

	reClauseSep = regexp.MustCompile(`\s+(?:puis|ensuite|alors|then)\s+|[,.;](?:\s+|$)`)
)

// vagueEfforts are effort words too unspecific to constitute an intensity
// entity on their own. They only count when the same clause anchors them to
// a duration or a repetition structure.
var vagueEfforts = map[string]bool{"dur": true, "facile": true, "modere": true}

type clauseKind int

const (
	clauseSteady clauseKind = iota
	clauseWarmup
	clauseCooldown
	clauseInterval
	clausePyramid
	clauseRecovery
)

// clause is a text fragment with its byte offset in the normalized query.
type clause struct {
	text   string
	offset int
}

// splitClauses cuts the text on sequence connectors and punctuation,
// preserving offsets so entity spans index into the full normalized text.
func splitClauses(text string) []clause {
	var out []clause
	last := 0
	for _, loc := range reClauseSep.FindAllStringIndex(text, -1) {
		if frag := text[last:loc[0]]; strings.TrimSpace(frag) != "" {
			out = append(out, clause{text: frag, offset: last})
		}
		last = loc[1]
	}
	if frag := text[last:]; strings.TrimSpace(frag) != "" {
		out = append(out, clause{text: frag, offset: last})
	}
	return out
}

// durationMatch is one extracted duration with its span in the full text.
type durationMatch struct {
	seconds int
	span    entity.Span
}

// parsedClause is everything a single clause yields.
type parsedClause struct {
	kind       clauseKind
	clauseSpan entity.Span

	durations       []durationMatch
	recoverySeconds int

	percent     float64 // explicit percentage of reference power
	percentLow  float64 // low bound of an over-under range
	percentSpan entity.Span
	watts       float64 // absolute power target
	wattsSpan   entity.Span
	zone        string
	zoneVague   bool
	zoneSpan    entity.Span

	reps       int
	repsSpan   entity.Span
	blockCount int
	pyramid    []int
}

// parseClause extracts every recognizable datum from one clause and
// classifies it.
func (e *Extractor) parseClause(cl clause) parsedClause {
	p := parsedClause{
		clauseSpan: entity.Span{Start: cl.offset, End: cl.offset + len(cl.text)},
	}
	text := cl.text

	p.durations = extractDurations(text, cl.offset)

	// Intensity: a range, an explicit percentage, absolute watts, or an
	// effort word. An explicit percentage on the same clause always outranks
	// the word; watts rank between the two.
	if m := reRange.FindStringSubmatchIndex(text); m != nil {
		hi := parseNumber(text[m[2]:m[3]])
		lo := parseNumber(text[m[4]:m[5]])
		if lo > hi {
			hi, lo = lo, hi
		}
		p.percent, p.percentLow = hi, lo
		p.percentSpan = entity.Span{Start: cl.offset + m[0], End: cl.offset + m[1]}
	} else if m := rePercent.FindStringSubmatchIndex(text); m != nil {
		p.percent = parseNumber(text[m[2]:m[3]])
		p.percentSpan = entity.Span{Start: cl.offset + m[0], End: cl.offset + m[1]}
	} else if m := reWatts.FindStringSubmatchIndex(text); m != nil {
		p.watts = parseNumber(text[m[2]:m[3]])
		p.wattsSpan = entity.Span{Start: cl.offset + m[0], End: cl.offset + m[1]}
	}
	for _, tok := range strings.Fields(text) {
		word := strings.Trim(tok, ",.;:!?")
		if z, ok := e.zones.ForName(word); ok {
			p.zone = z.Name
			p.zoneVague = vagueEfforts[word]
			idx := strings.Index(text, word)
			p.zoneSpan = entity.Span{Start: cl.offset + idx, End: cl.offset + idx + len(word)}
			break
		}
	}

	// Structure counters.
	if m := reBlocks.FindStringSubmatchIndex(text); m != nil {
		p.blockCount, _ = strconv.Atoi(text[m[2]:m[3]])
	}
	for _, m := range reReps.FindAllStringSubmatchIndex(text, -1) {
		// Skip the match reBlocks already consumed ("2 blocs de").
		if p.blockCount > 0 && strings.Contains(text[m[0]:m[1]], "bloc") {
			continue
		}
		n, _ := strconv.Atoi(text[m[2]:m[3]])
		if p.reps == 0 {
			p.reps = n
			p.repsSpan = entity.Span{Start: cl.offset + m[0], End: cl.offset + m[1]}
		}
	}
	if m := rePyramid.FindStringIndex(text); m != nil && strings.Contains(text, "pyramide") {
		for _, part := range strings.Split(text[m[0]:m[1]], "-") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil {
				p.pyramid = append(p.pyramid, n)
			}
		}
	}

	// Recovery duration: the duration closest to the recovery keyword,
	// excluding the work duration (the first one) when repetitions are
	// present in the same clause.
	if loc := reRecovery.FindStringIndex(text); loc != nil {
		p.recoverySeconds = recoveryDuration(p.durations, cl.offset+loc[0], p.reps > 0)
	} else if p.reps > 0 {
		// "2min facile entre les series": inside an interval clause a bare
		// low-effort word marks the recovery duration.
		if loc := reEasy.FindStringIndex(text); loc != nil {
			p.recoverySeconds = recoveryDuration(p.durations, cl.offset+loc[0], true)
		}
	}

	// Classification.
	switch {
	case reWarmup.MatchString(text):
		p.kind = clauseWarmup
	case reCooldown.MatchString(text):
		p.kind = clauseCooldown
	case len(p.pyramid) >= 3:
		p.kind = clausePyramid
	case p.reps > 0:
		p.kind = clauseInterval
	case reRecovery.MatchString(text) && len(p.durations) > 0:
		p.kind = clauseRecovery
	default:
		p.kind = clauseSteady
	}

	return p
}

// extractDurations finds every duration expression in order of appearance.
// Compact forms are matched first and their character ranges masked so the
// simpler patterns do not re-match their components.
func extractDurations(text string, base int) []durationMatch {
	masked := []byte(text)
	var out []durationMatch

	add := func(loc []int, seconds int) {
		out = append(out, durationMatch{
			seconds: seconds,
			span:    entity.Span{Start: base + loc[0], End: base + loc[1]},
		})
		for i := loc[0]; i < loc[1]; i++ {
			masked[i] = '#'
		}
	}

	for _, m := range reDurMinSec.FindAllStringSubmatchIndex(string(masked), -1) {
		mins, _ := strconv.Atoi(text[m[2]:m[3]])
		secs, _ := strconv.Atoi(text[m[4]:m[5]])
		add(m[:2], mins*60+secs)
	}
	for _, m := range reDurHour.FindAllStringSubmatchIndex(string(masked), -1) {
		hours, _ := strconv.Atoi(text[m[2]:m[3]])
		mins := 0
		if m[4] >= 0 {
			mins, _ = strconv.Atoi(text[m[4]:m[5]])
		}
		add(m[:2], hours*3600+mins*60)
	}
	for _, m := range reDurMin.FindAllStringSubmatchIndex(string(masked), -1) {
		mins, _ := strconv.Atoi(text[m[2]:m[3]])
		add(m[:2], mins*60)
	}
	for _, m := range reDurSec.FindAllStringSubmatchIndex(string(masked), -1) {
		secs, _ := strconv.Atoi(text[m[2]:m[3]])
		add(m[:2], secs)
	}

	// Restore textual order; the pattern passes interleave.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].span.Start < out[j-1].span.Start; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// recoveryDuration picks the duration belonging to a recovery keyword at
// keywordPos. When the clause also declares repetitions, the first duration
// is the work interval and is excluded.
func recoveryDuration(durations []durationMatch, keywordPos int, hasWork bool) int {
	start := 0
	if hasWork && len(durations) > 1 {
		start = 1
	}
	best, bestDist := 0, -1
	for _, d := range durations[start:] {
		dist := keywordPos - d.span.End
		if dist < 0 {
			dist = d.span.Start - keywordPos
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d.seconds, dist
		}
	}
	if hasWork && len(durations) <= 1 {
		return 0
	}
	return best
}

// firstDuration returns the clause's leading duration in seconds, 0 when
// the clause has none.
func (p parsedClause) firstDuration() int {
	if len(p.durations) == 0 {
		return 0
	}
	return p.durations[0].seconds
}

// record writes the clause's findings into the entity set.
func (p parsedClause) record(ex *entity.Extraction) {
	set := ex.Set

	for _, d := range p.durations {
		set.Add(entity.KindDuration, entity.Value{
			Span:       d.span,
			Confidence: 1.0,
			Origin:     entity.OriginDirect,
			Seconds:    d.seconds,
		})
	}

	if p.percent > 0 {
		set.Add(entity.KindIntensity, entity.Value{
			Span:       p.percentSpan,
			Confidence: 1.0,
			Origin:     entity.OriginDirect,
			Percent:    p.percent,
		})
	} else if p.watts > 0 {
		set.Add(entity.KindIntensity, entity.Value{
			Span:       p.wattsSpan,
			Confidence: 1.0,
			Origin:     entity.OriginDirect,
			Watts:      p.watts,
		})
	}
	// A vague effort word on its own clause ("dur", "facile") does not make
	// an intensity entity; it must qualify an actual effort.
	if p.zone != "" && p.zoneVague && len(p.durations) == 0 && p.reps == 0 {
		p.zone = ""
	}
	if p.zone != "" {
		set.Add(entity.KindIntensity, entity.Value{
			Span:       p.zoneSpan,
			Confidence: 0.9,
			Origin:     entity.OriginDirect,
			Zone:       p.zone,
		})
	}

	if p.reps > 0 {
		set.Add(entity.KindRepetition, entity.Value{
			Span:       p.repsSpan,
			Confidence: 1.0,
			Origin:     entity.OriginDirect,
			Count:      p.reps,
		})
		// Repetition without any recovery mention: record an explicitly
		// open recovery duration, never a computed default.
		if p.recoverySeconds == 0 {
			set.Add(entity.KindRecovery, entity.Value{
				Span:       p.repsSpan,
				Confidence: 1.0,
				Origin:     entity.OriginDirect,
				Open:       true,
			})
		}
	}
	if p.recoverySeconds > 0 {
		set.Add(entity.KindRecovery, entity.Value{
			Span:       p.clauseSpan,
			Confidence: 1.0,
			Origin:     entity.OriginDirect,
			Seconds:    p.recoverySeconds,
		})
	}

	switch p.kind {
	case clauseWarmup:
		set.Add(entity.KindPhase, entity.Value{
			Span: p.clauseSpan, Confidence: 1.0, Origin: entity.OriginDirect, Label: "warmup",
		})
	case clauseCooldown:
		set.Add(entity.KindPhase, entity.Value{
			Span: p.clauseSpan, Confidence: 1.0, Origin: entity.OriginDirect, Label: "cooldown",
		})
	case clausePyramid:
		set.Add(entity.KindStructure, entity.Value{
			Span: p.clauseSpan, Confidence: 1.0, Origin: entity.OriginDirect, Shape: "pyramid",
		})
	case clauseInterval:
		shape := "intervals"
		if p.blockCount > 1 {
			shape = "nested"
		}
		if p.percentLow > 0 {
			shape = "over-under"
		}
		set.Add(entity.KindStructure, entity.Value{
			Span: p.clauseSpan, Confidence: 1.0, Origin: entity.OriginDirect, Shape: shape,
		})
	}
}
