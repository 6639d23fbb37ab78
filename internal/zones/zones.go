// Package zones maps between named power zones and percentages of reference
// power (Critical Power / FTP). The zone table is configuration, not a
// constant: different deployments run 5-, 6- or 7-zone schemes, so the table
// is supplied at construction and only the default lives here.
package zones

import "strings"

// Zone is one intensity band. Min is inclusive, Max exclusive, both as
// percentages of reference power.
type Zone struct {
	Name  string  `yaml:"name"`
	Label string  `yaml:"label"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// Table is an ordered zone scheme with alias resolution. A Table is
// read-only after construction and safe for concurrent use.
type Table struct {
	zones   []Zone
	aliases map[string]string
}

// Default returns the 7-zone scheme the system was calibrated with.
func Default() *Table {
	return New([]Zone{
		{Name: "recuperation", Label: "Zone 1", Min: 0, Max: 55},
		{Name: "endurance", Label: "Zone 2", Min: 55, Max: 75},
		{Name: "tempo", Label: "Zone 3", Min: 75, Max: 90},
		{Name: "seuil", Label: "Zone 4", Min: 90, Max: 105},
		{Name: "vo2max", Label: "Zone 5", Min: 105, Max: 130},
		{Name: "anaerobie", Label: "Zone 6", Min: 130, Max: 180},
		{Name: "neuromusculaire", Label: "Zone 7", Min: 180, Max: 300},
	}, DefaultAliases())
}

// DefaultAliases maps effort words and common variants to canonical zone
// names of the default scheme.
func DefaultAliases() map[string]string {
	return map[string]string{
		"recup":        "recuperation",
		"recovery":     "recuperation",
		"facile":       "recuperation",
		"aerobic":      "endurance",
		"base":         "endurance",
		"fondamental":  "endurance",
		"zone2":        "endurance",
		"sweet-spot":   "tempo",
		"threshold":    "seuil",
		"ftp":          "seuil",
		"lactate":      "seuil",
		"max":          "vo2max",
		"maximum":      "vo2max",
		"vo2":          "vo2max",
		"pma":          "vo2max",
		"dur":          "seuil",
		"anaerobik":    "anaerobie",
		"sprint":       "neuromusculaire",
		"neuro":        "neuromusculaire",
	}
}

// New builds a table from an ordered zone list and an alias map. Zones must
// be supplied in ascending intensity order.
func New(zs []Zone, aliases map[string]string) *Table {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Table{zones: zs, aliases: aliases}
}

// Zones returns the ordered zone list.
func (t *Table) Zones() []Zone { return t.zones }

// ForName resolves an effort word (canonical name or alias) to its zone.
func (t *Table) ForName(word string) (Zone, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if canonical, ok := t.aliases[w]; ok {
		w = canonical
	}
	for _, z := range t.zones {
		if z.Name == w {
			return z, true
		}
	}
	return Zone{}, false
}

// ForPercent returns the zone containing the given percentage of reference
// power. Percentages above the top boundary fall into the last zone.
func (t *Table) ForPercent(p float64) (Zone, bool) {
	if len(t.zones) == 0 {
		return Zone{}, false
	}
	for _, z := range t.zones {
		if p >= z.Min && p < z.Max {
			return z, true
		}
	}
	return t.zones[len(t.zones)-1], true
}

// Target returns the working percentage for a named zone: the band midpoint,
// which is what the assembler uses when a query names a zone without an
// explicit percentage.
func (t *Table) Target(z Zone) float64 {
	return (z.Min + z.Max) / 2
}
