// Package session implements the property panel state machine.
//
// A Session combines the current selection, the viewport layout and the
// persisted panel preferences into one immutable PanelState snapshot, and
// routes edits made in the panel back to the graph.
//
// # States
//
//	Closed ──(non-empty selection / Open)──▶ Open/Expanded ◀──(Expand)── Open/Collapsed
//	  ▲                                            │  ──(Collapse)──▶
//	  └──────(Close, Escape, empty selection)──────┘
//
// Close is a user override: the panel stays closed until the selection
// changes to a different non-empty set. When global properties are shown,
// an empty selection keeps the panel open on the diagram tab.
//
// # Listeners
//
// Resize, escape and outside-click listeners are attached through a
// ListenerHost while the panel is open and detached when it closes or the
// session is disposed.
//
// # Concurrency
//
// All methods are safe for concurrent use. Subscribers are called after the
// session lock is released, in subscription order.
package session
