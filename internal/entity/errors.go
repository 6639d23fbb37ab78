package entity

import (
	"fmt"
	"strings"
)

// InsufficientDataError reports that required entity kinds are entirely
// absent from a query. It is a user-input condition, not a bug: callers
// surface it as a structured rejection naming the missing kinds.
type InsufficientDataError struct {
	Missing []Kind
}

func (e *InsufficientDataError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	return fmt.Sprintf("insufficient data: missing %s", strings.Join(names, ", "))
}

// Hints returns user-facing guidance for each missing kind, with example
// phrasing the extractor understands.
func (e *InsufficientDataError) Hints() []string {
	hints := make([]string, 0, len(e.Missing))
	for _, k := range e.Missing {
		switch k {
		case KindDuration:
			hints = append(hints, `une durée (ex: "5 minutes", "10min")`)
		case KindIntensity:
			hints = append(hints, `une intensité ou une zone (ex: "VO2max", "seuil", "95%")`)
		case KindStructure:
			hints = append(hints, `une structure d'entraînement (ex: "3 fois 5 minutes")`)
		default:
			hints = append(hints, string(k))
		}
	}
	return hints
}
