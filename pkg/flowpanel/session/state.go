package session

import (
	"slices"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/layout"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/selection"
)

// Tab is a panel tab.
type Tab string

// Panel tabs in display order.
const (
	TabOverview   Tab = "overview"
	TabProperties Tab = "properties"
	TabStyle      Tab = "style"
	TabAdvanced   Tab = "advanced"
	TabDiagram    Tab = "diagram"
)

// tabVisibility lists each tab with the selection kinds it is shown for.
var tabVisibility = []struct {
	tab   Tab
	kinds []selection.Kind
}{
	{TabOverview, []selection.Kind{selection.KindSingle, selection.KindMultiple}},
	{TabProperties, []selection.Kind{selection.KindSingle}},
	{TabStyle, []selection.Kind{selection.KindSingle, selection.KindMultiple}},
	{TabAdvanced, []selection.Kind{selection.KindSingle}},
	{TabDiagram, []selection.Kind{selection.KindNone}},
}

// AllTabs returns every tab in display order.
func AllTabs() []Tab {
	out := make([]Tab, len(tabVisibility))
	for i, entry := range tabVisibility {
		out[i] = entry.tab
	}
	return out
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	return slices.Contains(AllTabs(), t)
}

// VisibleTabs returns the tabs shown for a selection kind, in display order.
func VisibleTabs(kind selection.Kind) []Tab {
	var out []Tab
	for _, entry := range tabVisibility {
		if slices.Contains(entry.kinds, kind) {
			out = append(out, entry.tab)
		}
	}
	return out
}

// EffectiveTab returns preferred if it is visible for kind, otherwise the
// first visible tab.
func EffectiveTab(preferred Tab, kind selection.Kind) Tab {
	visible := VisibleTabs(kind)
	if slices.Contains(visible, preferred) {
		return preferred
	}
	if len(visible) == 0 {
		return ""
	}
	return visible[0]
}

// PanelState is one immutable snapshot of the panel. Renderers draw it and
// call Session methods for user actions.
type PanelState struct {
	Open      bool
	Collapsed bool
	Resizing  bool

	// Width is always within [prefs.MinWidth, prefs.MaxWidth].
	Width int

	// ActiveTab is the tab shown; Tabs are the tabs available for the
	// current selection.
	ActiveTab Tab
	Tabs      []Tab

	CompactMode bool

	Device       layout.Device
	Presentation layout.Presentation

	Selection     selection.State
	SelectionKind selection.Kind

	// SearchInput echoes keystrokes; SearchQuery is the debounced value
	// that Fields is filtered by.
	SearchInput string
	SearchQuery string

	BulkEdit bool
	Preview  bool

	// Fields are the editable fields for the selection after search
	// filtering.
	Fields []Field

	// Revision increases with every recomputation.
	Revision uint64
}

// Expanded reports whether the panel body is visible.
func (p PanelState) Expanded() bool {
	return p.Open && !p.Collapsed
}

// clone copies the slices so snapshots never share backing arrays.
func (p PanelState) clone() PanelState {
	p.Tabs = slices.Clone(p.Tabs)
	p.Fields = slices.Clone(p.Fields)
	return p
}
