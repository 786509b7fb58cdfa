package session

import (
	"strings"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/selection"
)

// Section groups fields in the panel.
type Section string

// Field sections.
const (
	SectionGeneral    Section = "general"
	SectionProperties Section = "properties"
	SectionStyle      Section = "style"
)

// Field is one editable field of the selection.
type Field struct {
	Key     string
	Label   string
	Section Section
}

var (
	nodeFields = []Field{
		{Key: "label", Label: "Label", Section: SectionGeneral},
		{Key: "description", Label: "Description", Section: SectionGeneral},
		{Key: "color", Label: "Color", Section: SectionStyle},
		{Key: "icon", Label: "Icon", Section: SectionStyle},
	}
	edgeFields = []Field{
		{Key: "label", Label: "Label", Section: SectionGeneral},
		{Key: "animated", Label: "Animated", Section: SectionStyle},
		{Key: "stroke", Label: "Stroke", Section: SectionStyle},
		{Key: "speed", Label: "Speed", Section: SectionStyle},
	}
)

// fieldsFor lists the fields of one element. Custom properties follow the
// standard node fields in bag order.
func fieldsFor(el diagram.Element) []Field {
	switch el.Kind {
	case diagram.KindNode:
		out := append([]Field(nil), nodeFields...)
		for _, key := range el.Node.Data.Properties.Keys() {
			out = append(out, Field{
				Key:     propertyFieldKey(key),
				Label:   key,
				Section: SectionProperties,
			})
		}
		return out
	case diagram.KindEdge:
		return append([]Field(nil), edgeFields...)
	}
	return nil
}

// propertyFieldKey keeps custom keys from colliding with standard ones.
func propertyFieldKey(key string) string {
	return "properties." + key
}

// SelectionFields returns the fields shared by every selected element, in
// the order of the first element.
func SelectionFields(sel selection.State) []Field {
	elements := sel.Elements()
	if len(elements) == 0 {
		return nil
	}

	common := fieldsFor(elements[0])
	for _, el := range elements[1:] {
		have := make(map[string]bool)
		for _, f := range fieldsFor(el) {
			have[f.Key] = true
		}
		kept := common[:0]
		for _, f := range common {
			if have[f.Key] {
				kept = append(kept, f)
			}
		}
		common = kept
	}
	return common
}

// FilterFields keeps fields whose key or label contains query, ignoring
// case. An empty or blank query keeps everything.
func FilterFields(fields []Field, query string) []Field {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return fields
	}
	var out []Field
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Key), q) || strings.Contains(strings.ToLower(f.Label), q) {
			out = append(out, f)
		}
	}
	return out
}
