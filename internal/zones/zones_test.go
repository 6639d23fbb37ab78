package zones_test

import (
	"testing"

	"github.com/Vicoder007/Vekta/internal/zones"
)

func TestForNameResolvesAliases(t *testing.T) {
	t.Parallel()
	tests := []struct {
		word string
		want string
	}{
		{"seuil", "seuil"},
		{"SEUIL", "seuil"},
		{" ftp ", "seuil"},
		{"threshold", "seuil"},
		{"max", "vo2max"},
		{"pma", "vo2max"},
		{"facile", "recuperation"},
		{"aerobic", "endurance"},
		{"zone2", "endurance"},
		{"sweet-spot", "tempo"},
		{"sprint", "neuromusculaire"},
	}
	zt := zones.Default()
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			z, ok := zt.ForName(tt.word)
			if !ok || z.Name != tt.want {
				t.Errorf("ForName(%q) = %+v ok=%v, want %q", tt.word, z, ok, tt.want)
			}
		})
	}

	if _, ok := zt.ForName("licorne"); ok {
		t.Error("ForName accepted an unknown word")
	}
}

func TestForPercentBoundaries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "recuperation"},
		{54.9, "recuperation"},
		{55, "endurance"},
		{89.9, "tempo"},
		{90, "seuil"},
		{105, "vo2max"},
		{129.9, "vo2max"},
		{130, "anaerobie"},
		{400, "neuromusculaire"}, // above the top boundary falls into the last zone
	}
	zt := zones.Default()
	for _, tt := range tests {
		z, ok := zt.ForPercent(tt.percent)
		if !ok || z.Name != tt.want {
			t.Errorf("ForPercent(%v) = %+v ok=%v, want %q", tt.percent, z, ok, tt.want)
		}
	}
}

func TestTargetIsBandMidpoint(t *testing.T) {
	t.Parallel()
	zt := zones.Default()
	z, ok := zt.ForName("vo2max")
	if !ok {
		t.Fatal("vo2max missing from default table")
	}
	if got := zt.Target(z); got != 117.5 {
		t.Errorf("Target(vo2max) = %v, want 117.5", got)
	}
}

func TestCustomTableWithoutAliases(t *testing.T) {
	t.Parallel()
	zt := zones.New([]zones.Zone{
		{Name: "easy", Label: "E", Min: 0, Max: 70},
		{Name: "hard", Label: "H", Min: 70, Max: 200},
	}, nil)

	if z, ok := zt.ForName("hard"); !ok || z.Label != "H" {
		t.Errorf("ForName(hard) = %+v ok=%v", z, ok)
	}
	if _, ok := zt.ForName("seuil"); ok {
		t.Error("custom table resolved a default-scheme name")
	}
	if z, ok := zt.ForPercent(69.9); !ok || z.Name != "easy" {
		t.Errorf("ForPercent(69.9) = %+v ok=%v", z, ok)
	}
}
