package vocab

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML override format for language tables.
//
// Example:
//
//	corrections:
//	  gravelle: gravel
//	compounds:
//	  - from: "full gaz"
//	    to: "max"
//	vocabulary:
//	  - gravel
//	synonyms:
//	  gravel: [chemin, piste]
type File struct {
	Corrections map[string]string   `yaml:"corrections"`
	Compounds   []Compound          `yaml:"compounds"`
	Vocabulary  []string            `yaml:"vocabulary"`
	Synonyms    map[string][]string `yaml:"synonyms"`
	Stopwords   []string            `yaml:"stopwords"`
}

// Load reads a YAML vocabulary file and merges it over the built-in defaults.
// Entries in the file extend or replace default entries of the same key.
func Load(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("vocab: parse %q: %w", path, err)
	}
	return t, nil
}

// LoadFromReader parses vocabulary YAML from r and merges it over
// [Defaults]. Useful in tests where tables are built from string literals.
func LoadFromReader(r io.Reader) (*Tables, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("vocab: decode yaml: %w", err)
	}

	t := Defaults()
	for from, to := range file.Corrections {
		t.Corrections[from] = to
	}
	t.Compounds = append(t.Compounds, file.Compounds...)
	sortCompounds(t.Compounds)
	for _, w := range file.Vocabulary {
		t.Vocabulary[w] = struct{}{}
	}
	for term, syns := range file.Synonyms {
		t.Synonyms[term] = append(t.Synonyms[term], syns...)
	}
	for _, w := range file.Stopwords {
		t.Stopwords[w] = struct{}{}
	}
	return t, nil
}
