package corpus

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML document shape for a corpus library file:
//
//	entries:
//	  - id: vo2-3x5
//	    text: 10min echauffement puis 3 series de 5min vo2max ...
//	    name: 3x5min VO2max
//	    duration_minutes: 41
//	    zone: vo2max
//	    complexity: complete
//	    structure: [warmup, main, cooldown]
type File struct {
	Entries []Entry `yaml:"entries"`
}

// LoadFile reads a corpus library from a YAML file. Unknown fields are
// rejected so typos surface at startup rather than as silently empty entries.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %q: %w", path, err)
	}
	defer f.Close()

	entries, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: load %q: %w", path, err)
	}
	return entries, nil
}

// LoadReader decodes a corpus library from r.
func LoadReader(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	for i, e := range file.Entries {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d: missing id", i)
		}
		if e.Text == "" {
			return nil, fmt.Errorf("entry %q: missing text", e.ID)
		}
	}
	return file.Entries, nil
}
