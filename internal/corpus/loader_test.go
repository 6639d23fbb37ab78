package corpus_test

import (
	"strings"
	"testing"

	"github.com/Vicoder007/Vekta/internal/corpus"
)

const libraryYAML = `
entries:
  - id: sst-2x15
    text: 15min echauffement puis 2x15min sweet-spot avec 5min recuperation puis 10min retour au calme
    name: Sweet Spot 2x15
    description: Blocs sweet spot classiques
    duration_minutes: 65
    segments: 6
    difficulty: 3
    zone: tempo
    complexity: complete
    structure: [warmup, main, cooldown]
`

func TestLoadReader(t *testing.T) {
	t.Parallel()
	entries, err := corpus.LoadReader(strings.NewReader(libraryYAML))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != "sst-2x15" || e.Zone != "tempo" || e.DurationMinutes != 65 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if len(e.Structure) != 3 {
		t.Errorf("structure = %v, want 3 phases", e.Structure)
	}
}

func TestLoadReaderRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := corpus.LoadReader(strings.NewReader("entries:\n  - id: x\n    text: y\n    bogus: z\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadReaderRejectsMissingID(t *testing.T) {
	t.Parallel()
	_, err := corpus.LoadReader(strings.NewReader("entries:\n  - text: 30 minutes endurance\n"))
	if err == nil {
		t.Fatal("expected error for missing id")
	}
}
