package session

import (
	"sync"
)

// ListenerKind names a global listener the session installs while open.
type ListenerKind string

// Listener kinds.
const (
	ListenResize       ListenerKind = "resize"
	ListenEscape       ListenerKind = "escape"
	ListenOutsideClick ListenerKind = "outside-click"
)

var listenerKinds = []ListenerKind{ListenResize, ListenEscape, ListenOutsideClick}

// ListenerHost attaches global listeners on behalf of the session, for
// example window resize and keydown handlers in a browser shell.
//
// Listen must not call fn before it returns. The returned stop function
// detaches the listener and may be called more than once.
type ListenerHost interface {
	Listen(kind ListenerKind, fn func()) (stop func())

	// ViewportWidth returns the current viewport width in pixels.
	ViewportWidth() int
}

// ManualHost is a ListenerHost driven by explicit calls. It backs tests,
// examples and headless tools.
type ManualHost struct {
	mu        sync.Mutex
	width     int
	seq       int
	listeners map[ListenerKind]map[int]func()
}

// Compile-time interface check.
var _ ListenerHost = (*ManualHost)(nil)

// NewManualHost creates a host with the given viewport width.
func NewManualHost(width int) *ManualHost {
	return &ManualHost{
		width:     width,
		listeners: make(map[ListenerKind]map[int]func()),
	}
}

// Listen implements ListenerHost.
func (h *ManualHost) Listen(kind ListenerKind, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	id := h.seq
	if h.listeners[kind] == nil {
		h.listeners[kind] = make(map[int]func())
	}
	h.listeners[kind][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[kind], id)
		})
	}
}

// ViewportWidth implements ListenerHost.
func (h *ManualHost) ViewportWidth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width
}

// Resize changes the viewport width and fires resize listeners.
func (h *ManualHost) Resize(width int) {
	h.mu.Lock()
	h.width = width
	h.mu.Unlock()
	h.Fire(ListenResize)
}

// Fire invokes every listener of kind outside the host lock.
func (h *ManualHost) Fire(kind ListenerKind) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.listeners[kind]))
	for _, fn := range h.listeners[kind] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Active returns how many listeners of kind are attached.
func (h *ManualHost) Active(kind ListenerKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[kind])
}

// ActiveTotal returns how many listeners are attached across all kinds.
func (h *ManualHost) ActiveTotal() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.listeners {
		n += len(m)
	}
	return n
}
