// Package corpus implements the reference workout library and the hybrid
// similarity search used to validate and enrich partial extractions.
//
// The corpus is held in an immutable snapshot swapped atomically, so searches
// never block behind a reload. Similarity is lexical (synonym-expanded
// Jaccard plus domain bonuses) and optionally blended with embedding cosine
// similarity when a provider is configured. Embedding lookups run under a
// short deadline and degrade to lexical-only scoring on timeout.
package corpus

import "errors"

// ErrUnavailable is returned by Search when no corpus snapshot has been
// loaded. Callers treat it as "no corpus signal", not a fatal error.
var ErrUnavailable = errors.New("corpus: no snapshot loaded")

// Entry is one reference workout.
type Entry struct {
	ID              string    `yaml:"id"`
	Text            string    `yaml:"text"`
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description"`
	DurationMinutes int       `yaml:"duration_minutes"`
	Segments        int       `yaml:"segments"` // expanded segment count
	Difficulty      int       `yaml:"difficulty"`
	Zone            string    `yaml:"zone"`
	Complexity      string    `yaml:"complexity"` // simple | complete | complex
	Structure       []string  `yaml:"structure"`  // warmup, main, cooldown
	Embedding       []float32 `yaml:"-"`
}

// Match pairs an entry with its similarity to a query, in [0, 1].
type Match struct {
	Entry      Entry
	Similarity float64
}

// Builtin returns the built-in reference library. Texts are kept in the same
// colloquial register as real queries so lexical similarity stays meaningful.
func Builtin() []Entry {
	return []Entry{
		{
			ID:              "vo2-3x5",
			Text:            "10min echauffement puis 3 series de 5min vo2max avec 2min repos entre series puis 10min retour au calme",
			Name:            "3x5min VO2max",
			Description:     "Séance VO2max complète avec échauffement et récupération",
			DurationMinutes: 41,
			Segments:        8,
			Difficulty:      4,
			Zone:            "vo2max",
			Complexity:      "complete",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "vo2-3x5-alt",
			Text:            "10 minutes echauffement, 3 set de 5 mn vo2max et 2 min pause entre set. 10 min cool down facile",
			Name:            "3x5min VO2max Alternative",
			Description:     "Séance VO2max avec pause entre sets",
			DurationMinutes: 41,
			Segments:        8,
			Difficulty:      4,
			Zone:            "vo2max",
			Complexity:      "complete",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "vo2-5x5",
			Text:            "15min echauffement progressif puis 5x5min a 95% ftp avec 2min recuperation puis 15min retour calme",
			Name:            "Séance VO2max 5x5min",
			Description:     "Travail de VO2max structuré",
			DurationMinutes: 65,
			Segments:        12,
			Difficulty:      5,
			Zone:            "vo2max",
			Complexity:      "complete",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "seuil-4x4",
			Text:            "12min echauffement puis 4 fois 4min seuil avec 90sec repos puis 8min retour au calme",
			Name:            "4x4min Seuil",
			Description:     "Intervalles seuil classiques",
			DurationMinutes: 42,
			Segments:        10,
			Difficulty:      4,
			Zone:            "seuil",
			Complexity:      "complete",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "tempo-20",
			Text:            "15 minutes echauffement progressif puis 20 minutes tempo seuil puis 10 minutes retour calme",
			Name:            "Tempo 20min",
			Description:     "Séance tempo seuil avec échauffement progressif",
			DurationMinutes: 45,
			Segments:        3,
			Difficulty:      3,
			Zone:            "seuil",
			Complexity:      "complete",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "seuil-2x20",
			Text:            "20min echauffement puis 2x20min a 95% seuil avec 5min recuperation puis 15min facile",
			Name:            "Double Seuil 2x20min",
			Description:     "Travail de seuil en blocs longs",
			DurationMinutes: 85,
			Segments:        6,
			Difficulty:      4,
			Zone:            "seuil",
			Complexity:      "complete",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "pyramide-seuil",
			Text:            "echauffement 10min puis pyramide 1-2-3-4-3-2-1 minutes a seuil avec 1min recuperation entre puis retour calme",
			Name:            "Pyramide Seuil",
			Description:     "Séance pyramide progressive au seuil",
			DurationMinutes: 50,
			Segments:        15,
			Difficulty:      4,
			Zone:            "seuil",
			Complexity:      "complex",
			Structure:       []string{"warmup", "main", "cooldown"},
		},
		{
			ID:              "mixte-vo2-tempo",
			Text:            "6 fois 30sec max avec 30sec repos puis 5min facile puis 4 fois 2min tempo avec 1min repos",
			Name:            "Mixte VO2+Tempo",
			Description:     "Séance mixte VO2max et tempo",
			DurationMinutes: 35,
			Segments:        21,
			Difficulty:      5,
			Zone:            "vo2max",
			Complexity:      "complex",
			Structure:       []string{"main"},
		},
		{
			ID:              "over-under-5x3",
			Text:            "5 fois 3min over-under alternant 90sec a 95% et 90sec a 105% avec 2min repos",
			Name:            "Over-Under 5x3min",
			Description:     "Intervalles over-under autour du seuil",
			DurationMinutes: 23,
			Segments:        15,
			Difficulty:      4,
			Zone:            "seuil",
			Complexity:      "complex",
			Structure:       []string{"main"},
		},
		{
			ID:              "aerobic-45",
			Text:            "45 minutes aerobic zone2",
			Name:            "Aerobic 45min",
			Description:     "Séance aérobie continue",
			DurationMinutes: 45,
			Segments:        1,
			Difficulty:      2,
			Zone:            "endurance",
			Complexity:      "simple",
			Structure:       []string{"main"},
		},
		{
			ID:              "endurance-30",
			Text:            "30 minutes endurance",
			Name:            "Endurance Base",
			Description:     "Sortie endurance de base",
			DurationMinutes: 30,
			Segments:        1,
			Difficulty:      1,
			Zone:            "endurance",
			Complexity:      "simple",
			Structure:       []string{"main"},
		},
		{
			ID:              "tempo-10",
			Text:            "10 minutes de tempo",
			Name:            "Tempo Simple",
			Description:     "Travail de tempo basique",
			DurationMinutes: 10,
			Segments:        1,
			Difficulty:      2,
			Zone:            "tempo",
			Complexity:      "simple",
			Structure:       []string{"main"},
		},
		{
			ID:              "vo2-8x1",
			Text:            "8 fois 1min max avec 1min repos",
			Name:            "8x1min VO2max",
			Description:     "Intervalles courts VO2max",
			DurationMinutes: 16,
			Segments:        16,
			Difficulty:      4,
			Zone:            "vo2max",
			Complexity:      "simple",
			Structure:       []string{"main"},
		},
	}
}
