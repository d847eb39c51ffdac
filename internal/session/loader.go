package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/playmatatu/pinball/internal/element"
)

// TableDescription is the JSON form of a table and its elements. Each
// element object carries "kind" and "name" next to the fields of its data
// struct; missing fields keep the element's defaults.
type TableDescription struct {
	Table    json.RawMessage   `json:"table"`
	Elements []json.RawMessage `json:"elements"`
}

type elementHeader struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type builder func(name string, raw json.RawMessage) (element.Element, error)

func kind[D any, E element.Element](defaults func(string) D, build func(D) E) builder {
	return func(name string, raw json.RawMessage) (element.Element, error) {
		data := defaults(name)
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		return build(data), nil
	}
}

var builders = map[string]builder{
	"bumper":    kind(element.DefaultBumperData, element.NewBumper),
	"flipper":   kind(element.DefaultFlipperData, element.NewFlipper),
	"gate":      kind(element.DefaultGateData, element.NewGate),
	"hittarget": kind(element.DefaultHitTargetData, element.NewHitTarget),
	"kicker":    kind(element.DefaultKickerData, element.NewKicker),
	"plunger":   kind(element.DefaultPlungerData, element.NewPlunger),
	"primitive": kind(element.DefaultPrimitiveData, element.NewPrimitive),
	"ramp":      kind(element.DefaultRampData, element.NewRamp),
	"rubber":    kind(element.DefaultRubberData, element.NewRubber),
	"spinner":   kind(element.DefaultSpinnerData, element.NewSpinner),
	"surface":   kind(element.DefaultSurfaceData, element.NewSurface),
	"trigger":   kind(element.DefaultTriggerData, element.NewTrigger),
}

// Kinds lists the element kinds a description may use.
func Kinds() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SkippedElement names an element left out of a table and why.
type SkippedElement struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// Build turns a description into a table and its elements. A malformed
// table is an error; a malformed element is skipped and reported.
func (d *TableDescription) Build() (*element.Table, []element.Element, []SkippedElement, error) {
	table := element.DefaultTable()
	if len(d.Table) > 0 {
		if err := json.Unmarshal(d.Table, table); err != nil {
			return nil, nil, nil, fmt.Errorf("table: %w", err)
		}
	}
	if table.Name == "" {
		return nil, nil, nil, errors.New("table: name is required")
	}

	var elems []element.Element
	var skipped []SkippedElement
	seen := make(map[string]bool, len(d.Elements))
	skip := func(i int, name, reason string) {
		log.Printf("[SESSION] Skipping element %d (%s) of %q: %s", i, name, table.Name, reason)
		skipped = append(skipped, SkippedElement{Index: i, Name: name, Reason: reason})
	}

	for i, raw := range d.Elements {
		var h elementHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			skip(i, "", err.Error())
			continue
		}
		if h.Name == "" {
			skip(i, "", "missing name")
			continue
		}
		if seen[h.Name] {
			skip(i, h.Name, "duplicate name")
			continue
		}
		b, ok := builders[strings.ToLower(h.Kind)]
		if !ok {
			skip(i, h.Name, fmt.Sprintf("unknown kind %q", h.Kind))
			continue
		}
		e, err := b(h.Name, raw)
		if err != nil {
			skip(i, h.Name, err.Error())
			continue
		}
		seen[h.Name] = true
		elems = append(elems, e)
	}
	return table, elems, skipped, nil
}
