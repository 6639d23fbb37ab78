// Package vocab holds the static language tables the lexical normalizer and
// the corpus similarity search operate on: token-level corrections, compound
// expression substitutions, the canonical cycling vocabulary used for fuzzy
// matching, and synonym groups used for retrieval expansion.
//
// The built-in tables target French cycling shorthand with common English
// colloquialisms mixed in ("warm up", "cool down", "sets"), since that is the
// language real queries arrive in. Deployments can extend or override every
// table from a YAML file via [Load].
package vocab

import "sort"

// Compound is a multi-word expression substitution. Compounds are applied
// before any token-level correction so that "cool down" resolves to
// "retour au calme" rather than two unrelated token fixes.
type Compound struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Tables bundles every static language table consumed by the pipeline.
// A Tables value is read-only after construction and safe for concurrent use.
type Tables struct {
	// Corrections maps a misspelled or colloquial token to its canonical form.
	Corrections map[string]string

	// Compounds lists multi-word substitutions, ordered longest-first.
	Compounds []Compound

	// Vocabulary is the set of canonical domain terms. Tokens already in the
	// vocabulary are never corrected; out-of-vocabulary tokens are fuzzy
	// matched against it.
	Vocabulary map[string]struct{}

	// Synonyms maps a canonical term to equivalent phrasings. Used by the
	// corpus index to expand token sets before lexical similarity scoring.
	Synonyms map[string][]string

	// Stopwords are function words that are never flagged as unresolved and
	// never fuzzy corrected.
	Stopwords map[string]struct{}
}

// Defaults returns the built-in language tables.
func Defaults() *Tables {
	t := &Tables{
		Corrections: map[string]string{
			// phonetic misspellings
			"aerobik":   "aerobic",
			"seuille":   "seuil",
			"recupe":    "recuperation",
			"recup":     "recuperation",
			"piramide":  "pyramide",
			"anaerobik": "anaerobie",

			// colloquial → technical
			"chaude":  "echauffement",
			"chauffe": "echauffement",
			"warm":    "echauffement",
			"warmup":  "echauffement",
			"set":     "series",
			"sets":    "series",
			"times":   "fois",
			"rep":     "repetitions",
			"reps":    "repetitions",
			"pose":    "repos",
			"pause":   "repos",
			"break":   "repos",
			"rest":    "repos",

			// colloquial intensities
			"fond":  "max",
			"donf":  "max",
			"facil": "facile",
			"ezpz":  "facile",
			"easy":  "facile",
			"hard":  "dur",

			// frequent typos
			"avk":    "avec",
			"avek":   "avec",
			"minut":  "minutes",
			"minuts": "minutes",
			"mn":     "minutes",
			"fini":   "finir",
			"finit":  "finir",
		},
		Compounds: []Compound{
			{From: "retour au calme", To: "retour-au-calme"},
			{From: "cool down", To: "retour-au-calme"},
			{From: "cool-down", To: "retour-au-calme"},
			{From: "cooldown", To: "retour-au-calme"},
			{From: "retour calme", To: "retour-au-calme"},
			{From: "warm up", To: "echauffement"},
			{From: "warm-up", To: "echauffement"},
			{From: "a fond", To: "max"},
			{From: "à fond", To: "max"},
			{From: "au max", To: "maximum"},
			{From: "tres dur", To: "maximum"},
			{From: "très dur", To: "maximum"},
			{From: "super dur", To: "maximum"},
			{From: "sweet spot", To: "sweet-spot"},
			{From: "over under", To: "over-under"},
		},
		Synonyms: map[string][]string{
			"vo2max":          {"max", "fond", "vo2", "pma"},
			"max":             {"vo2max", "vo2", "fond"},
			"seuil":           {"tempo", "threshold", "ftp"},
			"tempo":           {"seuil", "threshold"},
			"echauffement":    {"chauffe", "warmup", "warm"},
			"retour-au-calme": {"cooldown", "calme", "retour"},
			"series":          {"set", "fois", "repetitions"},
			"repos":           {"pause", "recuperation", "recup"},
			"endurance":       {"aerobic", "base", "fond"},
			"facile":          {"recuperation", "easy"},
		},
	}

	t.Vocabulary = toSet([]string{
		// technical terms
		"ftp", "seuil", "tempo", "endurance", "aerobic", "anaerobie",
		"vo2max", "puissance", "watts", "cadence", "frequence",
		// session types
		"intervalles", "series", "repetitions", "pyramide", "over-under",
		"sweet-spot", "threshold", "recovery", "base", "blocs",
		// durations and units
		"minutes", "secondes", "heures",
		// intensities
		"facile", "modere", "dur", "max", "maximum",
		// session structure
		"echauffement", "retour-au-calme", "repos", "recuperation",
		"travail", "effort", "progressif", "alternance", "continue",
	})

	t.Stopwords = toSet([]string{
		"de", "des", "du", "le", "la", "les", "un", "une", "et", "ou",
		"avec", "sans", "entre", "pour", "par", "sur", "en", "au", "aux",
		"a", "à", "puis", "ensuite", "apres", "après", "dans", "je", "tu",
		"ma", "mon", "mes", "dois", "faire", "fois", "the", "then", "of",
		"with", "and", "at", "to", "between", "finir", "finish",
	})

	sortCompounds(t.Compounds)
	return t
}

// MaxCompoundWords returns the word count of the longest compound expression,
// used by callers that scan n-gram windows.
func (t *Tables) MaxCompoundWords() int {
	max := 1
	for _, c := range t.Compounds {
		if n := wordCount(c.From); n > max {
			max = n
		}
	}
	return max
}

// sortCompounds orders compounds longest-first so that expression-level
// substitution takes precedence over shorter overlapping forms.
func sortCompounds(cs []Compound) {
	sort.SliceStable(cs, func(i, j int) bool {
		return len(cs[i].From) > len(cs[j].From)
	})
}

func toSet(words []string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func wordCount(s string) int {
	n, inWord := 0, false
	for _, r := range s {
		switch {
		case r == ' ':
			inWord = false
		case !inWord:
			inWord = true
			n++
		}
	}
	return n
}
