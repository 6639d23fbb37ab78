// Package zwo serializes assembled workouts to Zwift workout files and
// parses them back.
//
// The .zwo dialect here is the subset Zwift actually reads: Warmup, Ramp,
// SteadyState, Cooldown and FreeRide elements under <workout>. An
// athlete-controlled duration is a FreeRide element without a Duration
// attribute; that is the lossless representation of "open", so a parsed file
// reconstructs exactly the open segments the query produced.
package zwo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/Vicoder007/Vekta/internal/assemble"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// maxNameLen bounds the <name> element; Zwift truncates around there anyway.
const maxNameLen = 60

// SerializationError reports a workout that violates the serializer's
// contract, such as a closed segment without a duration. It signals a bug in
// assembly, not bad user input.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return "zwo: " + e.Reason
}

// Document is a complete workout file.
type Document struct {
	XMLName     xml.Name `xml:"workout_file"`
	Author      string   `xml:"author"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	SportType   string   `xml:"sportType"`
	Tags        Tags     `xml:"tags"`
	Workout     Body     `xml:"workout"`
}

// Tags is the tag list of a workout file.
type Tags struct {
	Tags []Tag `xml:"tag"`
}

// Tag is one workout tag.
type Tag struct {
	Name string `xml:"name,attr"`
}

// Body holds the ordered segment elements of the <workout> block.
type Body struct {
	Elements []any
}

// Warmup is a power ramp opening the session.
type Warmup struct {
	XMLName   xml.Name `xml:"Warmup"`
	Duration  int      `xml:"Duration,attr"`
	PowerLow  float64  `xml:"PowerLow,attr"`
	PowerHigh float64  `xml:"PowerHigh,attr"`
	Cadence   int      `xml:"Cadence,attr,omitempty"`
}

// SteadyState is a constant-power segment.
type SteadyState struct {
	XMLName  xml.Name `xml:"SteadyState"`
	Duration int      `xml:"Duration,attr"`
	Power    float64  `xml:"Power,attr"`
	Cadence  int      `xml:"Cadence,attr,omitempty"`
}

// Ramp is a linear power progression.
type Ramp struct {
	XMLName   xml.Name `xml:"Ramp"`
	Duration  int      `xml:"Duration,attr"`
	PowerLow  float64  `xml:"PowerLow,attr"`
	PowerHigh float64  `xml:"PowerHigh,attr"`
	Cadence   int      `xml:"Cadence,attr,omitempty"`
}

// Cooldown is a descending ramp closing the session.
type Cooldown struct {
	XMLName   xml.Name `xml:"Cooldown"`
	Duration  int      `xml:"Duration,attr"`
	PowerLow  float64  `xml:"PowerLow,attr"`
	PowerHigh float64  `xml:"PowerHigh,attr"`
	Cadence   int      `xml:"Cadence,attr,omitempty"`
}

// FreeRide is an athlete-paced segment. A zero Duration is omitted from the
// output entirely, which is how an open duration survives serialization.
// Power is advisory and kept so a parsed file restores the suggested target.
type FreeRide struct {
	XMLName  xml.Name `xml:"FreeRide"`
	Duration int      `xml:"Duration,attr,omitempty"`
	Power    float64  `xml:"Power,attr,omitempty"`
}

// MarshalXML writes the body elements in order.
func (b Body) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, el := range b.Elements {
		if err := e.Encode(el); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads the body elements in order, skipping unknown elements
// so files touched by other tools still parse.
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var el any
			switch t.Name.Local {
			case "Warmup":
				el = &Warmup{}
			case "SteadyState":
				el = &SteadyState{}
			case "Ramp":
				el = &Ramp{}
			case "Cooldown":
				el = &Cooldown{}
			case "FreeRide":
				el = &FreeRide{}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := d.DecodeElement(el, &t); err != nil {
				return err
			}
			switch v := el.(type) {
			case *Warmup:
				b.Elements = append(b.Elements, *v)
			case *SteadyState:
				b.Elements = append(b.Elements, *v)
			case *Ramp:
				b.Elements = append(b.Elements, *v)
			case *Cooldown:
				b.Elements = append(b.Elements, *v)
			case *FreeRide:
				b.Elements = append(b.Elements, *v)
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// Meta carries the provenance recorded in the file description.
type Meta struct {
	Author     string
	Query      string
	Confidence float64
	Method     string // direct | direct+corpus | parametric
}

// Build converts an assembled workout into a document.
func Build(w *assemble.Workout, meta Meta) *Document {
	author := meta.Author
	if author == "" {
		author = "Vekta"
	}

	doc := &Document{
		Author:      author,
		Name:        truncate(w.Name, maxNameLen),
		Description: describe(w, meta),
		SportType:   "bike",
		Tags: Tags{Tags: []Tag{
			{Name: "Vekta"},
			{Name: fmt.Sprintf("TSS%d", int(w.TrainingLoad))},
		}},
	}

	for _, s := range w.Segments {
		doc.Workout.Elements = append(doc.Workout.Elements, element(s))
	}
	return doc
}

func element(s assemble.Segment) any {
	if s.Open {
		return FreeRide{Power: round2(s.Power)}
	}
	switch s.Kind {
	case assemble.SegWarmup:
		return Warmup{
			Duration:  s.Seconds,
			PowerLow:  round2(s.Power),
			PowerHigh: round2(s.PowerEnd),
			Cadence:   s.Cadence,
		}
	case assemble.SegCooldown:
		return Cooldown{
			Duration:  s.Seconds,
			PowerLow:  round2(s.PowerEnd),
			PowerHigh: round2(s.Power),
			Cadence:   s.Cadence,
		}
	case assemble.SegRamp:
		return Ramp{
			Duration:  s.Seconds,
			PowerLow:  round2(s.Power),
			PowerHigh: round2(s.PowerEnd),
			Cadence:   s.Cadence,
		}
	default:
		return SteadyState{
			Duration: s.Seconds,
			Power:    round2(s.Power),
			Cadence:  s.Cadence,
		}
	}
}

func describe(w *assemble.Workout, meta Meta) string {
	var sb strings.Builder
	if meta.Query != "" {
		fmt.Fprintf(&sb, "Requête: %s\n", meta.Query)
	}
	if meta.Method != "" {
		fmt.Fprintf(&sb, "Méthode: %s | Confiance: %.2f\n", meta.Method, meta.Confidence)
	}
	fmt.Fprintf(&sb, "Charge estimée: %.1f TSS", w.TrainingLoad)
	return sb.String()
}

// Marshal validates the document and renders the XML file bytes.
func Marshal(doc *Document) ([]byte, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, &SerializationError{Reason: fmt.Sprintf("encode: %v", err)}
	}
	if err := enc.Close(); err != nil {
		return nil, &SerializationError{Reason: fmt.Sprintf("encode: %v", err)}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Parse reads a workout file back into a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("zwo: parse: %w", err)
	}
	return &doc, nil
}

// validate enforces the serializer contract: every closed element carries a
// positive duration, every element a workable power.
func validate(doc *Document) error {
	if len(doc.Workout.Elements) == 0 {
		return &SerializationError{Reason: "workout has no segments"}
	}
	for i, el := range doc.Workout.Elements {
		switch v := el.(type) {
		case Warmup:
			if v.Duration <= 0 {
				return &SerializationError{Reason: fmt.Sprintf("segment %d: warmup without duration", i)}
			}
		case SteadyState:
			if v.Duration <= 0 {
				return &SerializationError{Reason: fmt.Sprintf("segment %d: steady state without duration", i)}
			}
			if v.Power <= 0 || v.Power > 5 {
				return &SerializationError{Reason: fmt.Sprintf("segment %d: steady state power %v out of range", i, v.Power)}
			}
		case Ramp:
			if v.Duration <= 0 {
				return &SerializationError{Reason: fmt.Sprintf("segment %d: ramp without duration", i)}
			}
		case Cooldown:
			if v.Duration <= 0 {
				return &SerializationError{Reason: fmt.Sprintf("segment %d: cooldown without duration", i)}
			}
		case FreeRide:
			// Athlete-paced; nothing to check.
		default:
			return &SerializationError{Reason: fmt.Sprintf("segment %d: unknown element %T", i, el)}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
