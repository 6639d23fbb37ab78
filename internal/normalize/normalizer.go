// Package normalize implements the lexical normalizer: the first pipeline
// stage, which rewrites colloquial and misspelled cycling vocabulary into
// canonical technical terms before any structural parsing happens.
//
// Normalization proceeds in three passes:
//
//  1. Compound substitution: multi-word colloquial expressions ("cool
//     down", "a fond") are replaced by their canonical single phrase.
//     Expression-level substitution always precedes token-level correction.
//
//  2. Table correction: individual tokens found in the correction table are
//     replaced verbatim ("seuille" to "seuil").
//
//  3. Fuzzy correction: remaining out-of-vocabulary tokens are matched
//     against the domain vocabulary using Levenshtein similarity, with a
//     Double Metaphone overlap pre-filter to keep candidate sets small. A
//     correction is accepted only when the normalized similarity clears the
//     configured threshold, so legitimate unknown words pass through.
//
// Tokens that survive all three passes unrecognized are flagged as
// unresolved; the confidence scorer charges a penalty for them. Normalize is
// a pure function of the input text and the static tables; it never fails.
package normalize

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/Vicoder007/Vekta/internal/vocab"
)

const defaultFuzzyThreshold = 0.80

// minFuzzyLen is the shortest token the fuzzy pass will touch. Shorter
// tokens produce too many near-collisions to correct safely.
const minFuzzyLen = 3

// Correction records one applied substitution, located by byte offset in the
// text the stage received as input for that pass.
type Correction struct {
	Offset     int
	Original   string
	Corrected  string
	Method     string // "compound", "table" or "fuzzy"
	Confidence float64
}

// Query is the normalizer output: the corrected text plus the audit trail
// the scorer and the caller-facing response both consume.
type Query struct {
	// Raw is the original user text, untouched.
	Raw string

	// Text is the corrected, lowercased text all later stages parse.
	Text string

	// Corrections lists every substitution that was applied.
	Corrections []Correction

	// Unresolved lists tokens that could not be mapped to the domain
	// vocabulary. Each costs a confidence penalty downstream.
	Unresolved []string
}

// Option is a functional option for configuring a [Normalizer].
type Option func(*Normalizer)

// WithFuzzyThreshold sets the minimum normalized Levenshtein similarity
// (1 - distance/maxLen) required to accept a fuzzy correction. Default: 0.80.
func WithFuzzyThreshold(threshold float64) Option {
	return func(n *Normalizer) {
		n.fuzzyThreshold = threshold
	}
}

// Normalizer rewrites noisy query text using static vocabulary tables.
// It is read-only after construction and safe for concurrent use.
type Normalizer struct {
	tables         *vocab.Tables
	fuzzyThreshold float64
}

// New returns a Normalizer over the given tables. When tables is nil the
// built-in defaults are used.
func New(tables *vocab.Tables, opts ...Option) *Normalizer {
	if tables == nil {
		tables = vocab.Defaults()
	}
	n := &Normalizer{
		tables:         tables,
		fuzzyThreshold: defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize corrects text and returns the normalized query together with
// the list of corrections that were applied.
func (n *Normalizer) Normalize(text string) Query {
	q := Query{Raw: text}

	working := strings.ToLower(strings.TrimSpace(text))

	// Pass 1: compound expressions, longest first.
	working, compoundCorrs := n.applyCompounds(working)
	q.Corrections = append(q.Corrections, compoundCorrs...)

	// Passes 2 and 3: per-token correction.
	var out strings.Builder
	out.Grow(len(working))

	for _, tok := range tokenize(working) {
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		corrected, corr, resolved := n.correctToken(tok)
		if corr != nil {
			q.Corrections = append(q.Corrections, *corr)
		}
		if !resolved {
			q.Unresolved = append(q.Unresolved, tok.text)
		}
		out.WriteString(corrected)
	}

	q.Text = out.String()
	return q
}

// applyCompounds substitutes every occurrence of each compound expression,
// recording one correction per occurrence.
func (n *Normalizer) applyCompounds(text string) (string, []Correction) {
	var corrs []Correction
	for _, c := range n.tables.Compounds {
		for {
			idx := strings.Index(text, c.From)
			if idx < 0 {
				break
			}
			corrs = append(corrs, Correction{
				Offset:     idx,
				Original:   c.From,
				Corrected:  c.To,
				Method:     "compound",
				Confidence: 1.0,
			})
			text = text[:idx] + c.To + text[idx+len(c.From):]
		}
	}
	return text, corrs
}

// correctToken applies table and fuzzy correction to a single token. The
// third return reports whether the token is considered resolved: known
// vocabulary, numeric, stopword, or successfully corrected.
//
// Trailing punctuation is detached before lookup and reattached afterwards,
// so clause separators survive for the structural extractor.
func (n *Normalizer) correctToken(tok token) (string, *Correction, bool) {
	word := strings.TrimRight(tok.text, ",.;:!?")
	suffix := tok.text[len(word):]
	if suffix != "" {
		out, corr, resolved := n.correctToken(token{text: word, offset: tok.offset})
		return out + suffix, corr, resolved
	}

	if hasDigit(word) || len([]rune(word)) < minFuzzyLen {
		return word, nil, true
	}
	if _, ok := n.tables.Stopwords[word]; ok {
		return word, nil, true
	}
	if _, ok := n.tables.Vocabulary[word]; ok {
		return word, nil, true
	}

	if canonical, ok := n.tables.Corrections[word]; ok {
		return canonical, &Correction{
			Offset:     tok.offset,
			Original:   word,
			Corrected:  canonical,
			Method:     "table",
			Confidence: 1.0,
		}, true
	}

	if best, score := n.fuzzyMatch(word); best != "" {
		return best, &Correction{
			Offset:     tok.offset,
			Original:   word,
			Corrected:  best,
			Method:     "fuzzy",
			Confidence: score,
		}, true
	}

	return word, nil, false
}

// fuzzyMatch finds the vocabulary word most similar to word, or "" when no
// candidate clears the threshold. Candidates are pre-filtered by Double
// Metaphone code overlap; when the phonetic filter yields nothing, the full
// vocabulary is scanned (accents defeat metaphone codes often enough that a
// pure-phonetic gate would miss valid corrections).
func (n *Normalizer) fuzzyMatch(word string) (string, float64) {
	wp, ws := matchr.DoubleMetaphone(word)

	best, bestScore := "", 0.0
	scan := func(candidate string) {
		if len([]rune(candidate)) < minFuzzyLen {
			return
		}
		score := levenshteinSimilarity(word, candidate)
		if score >= n.fuzzyThreshold && score > bestScore {
			best, bestScore = candidate, score
		}
	}

	phoneticHit := false
	for candidate := range n.tables.Vocabulary {
		cp, cs := matchr.DoubleMetaphone(candidate)
		if codesOverlap(wp, ws, cp, cs) {
			phoneticHit = true
			scan(candidate)
		}
	}
	if !phoneticHit {
		for candidate := range n.tables.Vocabulary {
			scan(candidate)
		}
	}
	return best, bestScore
}

// levenshteinSimilarity is 1 - distance/maxLen, in [0,1].
func levenshteinSimilarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	d := matchr.Levenshtein(a, b)
	return 1 - float64(d)/float64(maxLen)
}

func codesOverlap(ap, as, bp, bs string) bool {
	if ap == "" && as == "" {
		return false
	}
	return (ap != "" && (ap == bp || ap == bs)) ||
		(as != "" && (as == bp || as == bs))
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// token is a word with its byte offset in the pass-2 input text.
type token struct {
	text   string
	offset int
}

// tokenize splits on whitespace, keeping byte offsets. Punctuation glued to
// a word is kept with it; the extractor's patterns tolerate that.
func tokenize(text string) []token {
	var toks []token
	start := -1
	for i, r := range text {
		if r == ' ' || r == '\t' || r == '\n' {
			if start >= 0 {
				toks = append(toks, token{text: text[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, token{text: text[start:], offset: start})
	}
	return toks
}
