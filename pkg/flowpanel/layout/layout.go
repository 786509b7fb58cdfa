// Package layout maps the viewport width to a device class and the panel
// presentation that device uses.
package layout

// Device is a viewport-width category.
type Device string

// Device classes.
const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

// Presentation is how the property panel is shown.
type Presentation string

// Presentation modes.
const (
	PresentationBottomSheet Presentation = "bottomSheet"
	PresentationModal       Presentation = "modal"
	PresentationSidebar     Presentation = "sidebar"
)

// Overlays reports whether p covers the canvas, so that a click outside
// the panel should dismiss it.
func (p Presentation) Overlays() bool {
	return p == PresentationModal || p == PresentationBottomSheet
}

// PresentationFor returns the one presentation each device uses.
func PresentationFor(d Device) Presentation {
	switch d {
	case DeviceMobile:
		return PresentationBottomSheet
	case DeviceTablet:
		return PresentationModal
	default:
		return PresentationSidebar
	}
}

// Layout is a classified viewport.
type Layout struct {
	Device       Device
	Presentation Presentation
}

// Default breakpoints in CSS pixels.
const (
	DefaultTabletMin  = 768
	DefaultDesktopMin = 1024
)

// Policy holds the breakpoints. A width below TabletMin is mobile, below
// DesktopMin is tablet, anything else desktop.
type Policy struct {
	TabletMin  int
	DesktopMin int
}

// DefaultPolicy uses DefaultTabletMin and DefaultDesktopMin.
var DefaultPolicy = Policy{
	TabletMin:  DefaultTabletMin,
	DesktopMin: DefaultDesktopMin,
}

// Valid reports whether the breakpoints are positive and ordered.
func (p Policy) Valid() bool {
	return p.TabletMin > 0 && p.DesktopMin > p.TabletMin
}

// Classify returns the layout for widthPx. Invalid policies fall back to
// DefaultPolicy.
func (p Policy) Classify(widthPx int) Layout {
	if !p.Valid() {
		p = DefaultPolicy
	}
	d := DeviceDesktop
	switch {
	case widthPx < p.TabletMin:
		d = DeviceMobile
	case widthPx < p.DesktopMin:
		d = DeviceTablet
	}
	return Layout{Device: d, Presentation: PresentationFor(d)}
}

// Classify classifies widthPx with DefaultPolicy.
func Classify(widthPx int) Layout {
	return DefaultPolicy.Classify(widthPx)
}
