// Package domain defines the core types and interfaces for the assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

// Guide is the instruction set being worked on: a title, an ordered list
// of materials, and an ordered list of steps, plus extraction metadata.
// It is replaced wholesale on load and on every accepted transformation —
// never patched field by field.
type Guide struct {
	Title     string
	Materials []string // free-text quantity+item, display order
	Steps     []string // free-text instructions, execution order

	// Sources is the provenance attached at extraction time. Once set it
	// is carried forward across every transformation, never regenerated.
	Sources []Source

	// IsFood is set at extraction time and immutable thereafter.
	IsFood *bool

	// HasAnimalProducts drives the eco-swap affordance. Mutable only by
	// the transformation engine.
	HasAnimalProducts *bool

	// SustainabilitySuggestion is a one-shot hint computed at load time,
	// cleared the first time an eco transformation succeeds.
	SustainabilitySuggestion string
}

// Source is a provenance record for a loaded guide.
type Source struct {
	URI   string
	Title string
}

// Clone returns a deep copy of the guide. Snapshots handed to readers
// must not alias the store's slices.
func (g *Guide) Clone() *Guide {
	if g == nil {
		return nil
	}
	out := &Guide{
		Title:                    g.Title,
		SustainabilitySuggestion: g.SustainabilitySuggestion,
	}
	out.Materials = append([]string(nil), g.Materials...)
	out.Steps = append([]string(nil), g.Steps...)
	out.Sources = append([]Source(nil), g.Sources...)
	if g.IsFood != nil {
		v := *g.IsFood
		out.IsFood = &v
	}
	if g.HasAnimalProducts != nil {
		v := *g.HasAnimalProducts
		out.HasAnimalProducts = &v
	}
	return out
}

// Bool returns a pointer to b. Convenience for the optional guide flags.
func Bool(b bool) *bool { return &b }
