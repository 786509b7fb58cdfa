package session

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/debounce"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/observability"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/selection"
)

// Recompute triggers, as reported to metrics.
const (
	TriggerSelection = "selection"
	TriggerOpen      = "open"
	TriggerClose     = "close"
	TriggerCollapse  = "collapse"
	TriggerTab       = "tab"
	TriggerCompact   = "compact"
	TriggerResize    = "resize"
	TriggerViewport  = "viewport"
	TriggerSearch    = "search"
	TriggerBulkEdit  = "bulk-edit"
	TriggerPreview   = "preview"
	TriggerUpdate    = "update"
)

type subscriber struct {
	id int
	fn func(PanelState)
}

// Session is the property panel state machine for one editing session.
type Session struct {
	graph   diagram.GraphQuery
	mutator diagram.GraphMutator
	store   *prefs.Store
	host    ListenerHost
	cfg     config
	logger  *slog.Logger
	search  *debounce.Task

	mu           sync.Mutex
	state        PanelState
	preferredTab Tab
	dismissed    bool
	stops        []func()
	subs         []subscriber
	nextSub      int
	disposed     bool
}

// New creates a session with default panel state and immediately
// rehydrates it from store. store and host may be nil: the session then
// runs without persistence or global listeners.
//
// Panics if graph or mutator is nil.
func New(graph diagram.GraphQuery, mutator diagram.GraphMutator, store *prefs.Store, host ListenerHost, opts ...Option) *Session {
	if graph == nil {
		panic("session: graph cannot be nil")
	}
	if mutator == nil {
		panic("session: mutator cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if cfg.sessionID != "" {
		logger = observability.EnrichLogger(logger, cfg.sessionID)
	}

	s := &Session{
		graph:   graph,
		mutator: mutator,
		store:   store,
		host:    host,
		cfg:     cfg,
		logger:  logger,
		search:  debounce.NewTask(cfg.searchDelay, cfg.scheduler),
		state: PanelState{
			Width:     cfg.defaultWidth,
			Selection: selection.Empty(),
		},
		preferredTab: cfg.defaultTab,
	}
	s.rehydrate()

	width := DefaultViewportWidth
	if host != nil {
		width = host.ViewportWidth()
	}
	s.applyViewportLocked(width)
	s.deriveLocked()
	return s
}

func (s *Session) rehydrate() {
	if s.store == nil {
		return
	}
	p, ok := s.store.Load(s.cfg.ctx)
	if !ok {
		return
	}
	if p.Width != nil {
		s.state.Width = prefs.ClampWidth(*p.Width)
	}
	if p.ActiveTab != nil && Tab(*p.ActiveTab).Valid() {
		s.preferredTab = Tab(*p.ActiveTab)
	}
	if p.CompactMode != nil {
		s.state.CompactMode = *p.CompactMode
	}
	if p.Collapsed != nil {
		s.state.Collapsed = *p.Collapsed
	}
}

// Snapshot returns the current panel state.
func (s *Session) Snapshot() PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Revision returns how many times the panel state has been recomputed.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Revision
}

// Subscribe registers fn to receive every new snapshot. The returned
// function unsubscribes.
func (s *Session) Subscribe(fn func(PanelState)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// mutate runs fn under the session lock. fn returns the recompute trigger,
// or "" when nothing changed, plus any preferences to persist. Preferences
// are saved and subscribers notified after the lock is released.
func (s *Session) mutate(fn func() (trigger string, save prefs.Preferences)) bool {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	trigger, save := fn()
	var (
		snap PanelState
		subs []subscriber
	)
	if trigger != "" {
		snap = s.recomputeLocked(trigger)
		subs = append(subs, s.subs...)
	}
	s.mu.Unlock()

	if s.store != nil && !save.IsEmpty() {
		s.store.Save(s.cfg.ctx, save)
	}
	for _, sub := range subs {
		sub.fn(snap.clone())
	}
	return trigger != ""
}

// deriveLocked recomputes every derived field of the state.
func (s *Session) deriveLocked() {
	st := &s.state
	st.SelectionKind = st.Selection.Kind()
	st.Tabs = VisibleTabs(st.SelectionKind)
	st.ActiveTab = EffectiveTab(s.preferredTab, st.SelectionKind)
	if st.SelectionKind != selection.KindMultiple {
		st.BulkEdit = false
	}
	st.Fields = FilterFields(SelectionFields(st.Selection), st.SearchQuery)
}

func (s *Session) recomputeLocked(trigger string) PanelState {
	s.deriveLocked()
	s.state.Revision++
	s.cfg.metrics.RecordPanelRecompute(s.cfg.ctx, trigger)
	return s.state.clone()
}

func (s *Session) phaseLocked() string {
	switch {
	case !s.state.Open:
		return "closed"
	case s.state.Collapsed:
		return "collapsed"
	default:
		return "expanded"
	}
}

// setOpenLocked moves between Closed and Open, acquiring listeners on the
// way in and releasing them, with the search and any resize drag, on the
// way out. It returns the width to save when closing ends a drag.
func (s *Session) setOpenLocked(open bool, trigger string) prefs.Preferences {
	if s.state.Open == open {
		return prefs.Preferences{}
	}
	var save prefs.Preferences
	from := s.phaseLocked()
	s.state.Open = open
	if open {
		s.attachLocked()
		if s.host != nil {
			s.applyViewportLocked(s.host.ViewportWidth())
		}
	} else {
		s.detachLocked()
		s.search.Cancel()
		s.state.SearchInput = ""
		s.state.SearchQuery = ""
		if s.state.Resizing {
			s.state.Resizing = false
			save = prefs.Width(s.state.Width)
		}
	}
	observability.LogPanelTransition(s.logger, from, s.phaseLocked(), trigger)
	return save
}

func (s *Session) attachLocked() {
	if s.host == nil || len(s.stops) > 0 {
		return
	}
	for _, kind := range listenerKinds {
		var fn func()
		switch kind {
		case ListenResize:
			fn = s.onViewportResize
		case ListenEscape:
			fn = s.onEscape
		case ListenOutsideClick:
			fn = s.onOutsideClick
		}
		s.stops = append(s.stops, s.host.Listen(kind, fn))
	}
}

func (s *Session) detachLocked() {
	for _, stop := range s.stops {
		if stop != nil {
			stop()
		}
	}
	s.stops = nil
}

// applyViewportLocked classifies width and reports whether the layout
// changed.
func (s *Session) applyViewportLocked(width int) bool {
	l := s.cfg.policy.Classify(width)
	if l.Device == s.state.Device && l.Presentation == s.state.Presentation {
		return false
	}
	s.state.Device = l.Device
	s.state.Presentation = l.Presentation
	return true
}

func (s *Session) onViewportResize() {
	if s.host == nil {
		return
	}
	s.SetViewportWidth(s.host.ViewportWidth())
}

func (s *Session) onEscape() {
	s.Close()
}

func (s *Session) onOutsideClick() {
	s.mutate(func() (string, prefs.Preferences) {
		if !s.state.Open || !s.state.Presentation.Overlays() {
			return "", prefs.Preferences{}
		}
		s.dismissed = true
		return TriggerClose, s.setOpenLocked(false, "outside-click")
	})
}

// SetViewportWidth reclassifies the layout for a new viewport width.
func (s *Session) SetViewportWidth(width int) {
	s.mutate(func() (string, prefs.Preferences) {
		if !s.applyViewportLocked(width) {
			return "", prefs.Preferences{}
		}
		return TriggerViewport, prefs.Preferences{}
	})
}

// SetSelection applies a reconciled selection. A selection with the same
// ids as the current one only swaps in the new payload; it returns true
// when that changes the panel's fields and never reopens a closed panel.
func (s *Session) SetSelection(sel selection.State) bool {
	return s.mutate(func() (string, prefs.Preferences) {
		if sel.Equal(s.state.Selection) {
			s.state.Selection = sel
			if slices.Equal(FilterFields(SelectionFields(sel), s.state.SearchQuery), s.state.Fields) {
				return "", prefs.Preferences{}
			}
			return TriggerUpdate, prefs.Preferences{}
		}
		s.state.Selection = sel
		switch {
		case !sel.IsEmpty():
			s.dismissed = false
			s.setOpenLocked(true, TriggerSelection)
		case s.cfg.globalProperties && !s.dismissed:
			s.setOpenLocked(true, TriggerSelection)
		default:
			return TriggerSelection, s.setOpenLocked(false, TriggerSelection)
		}
		return TriggerSelection, prefs.Preferences{}
	})
}

// Select reconciles the given selection sources and applies the result.
func (s *Session) Select(node *diagram.Node, edge *diagram.Edge, extra []diagram.Element) bool {
	return s.SetSelection(selection.Reconcile(node, edge, extra))
}

// Open opens the panel for the current selection.
func (s *Session) Open() {
	s.mutate(func() (string, prefs.Preferences) {
		if s.state.Open {
			return "", prefs.Preferences{}
		}
		s.dismissed = false
		s.setOpenLocked(true, TriggerOpen)
		return TriggerOpen, prefs.Preferences{}
	})
}

// Close closes the panel. It stays closed until the selection changes to
// a different non-empty set or Open is called.
func (s *Session) Close() {
	s.mutate(func() (string, prefs.Preferences) {
		if !s.state.Open {
			return "", prefs.Preferences{}
		}
		s.dismissed = true
		return TriggerClose, s.setOpenLocked(false, TriggerClose)
	})
}

// Collapse hides the panel body, keeping the header.
func (s *Session) Collapse() { s.setCollapsed(true) }

// Expand shows the panel body again.
func (s *Session) Expand() { s.setCollapsed(false) }

// ToggleCollapsed flips between collapsed and expanded.
func (s *Session) ToggleCollapsed() {
	s.mutate(func() (string, prefs.Preferences) {
		return s.collapseLocked(!s.state.Collapsed)
	})
}

func (s *Session) setCollapsed(on bool) {
	s.mutate(func() (string, prefs.Preferences) {
		return s.collapseLocked(on)
	})
}

func (s *Session) collapseLocked(on bool) (string, prefs.Preferences) {
	if !s.state.Open || s.state.Collapsed == on {
		return "", prefs.Preferences{}
	}
	from := s.phaseLocked()
	s.state.Collapsed = on
	observability.LogPanelTransition(s.logger, from, s.phaseLocked(), TriggerCollapse)
	return TriggerCollapse, prefs.Collapsed(on)
}

// SetTab switches to tab. It fails if tab is unknown or hidden for the
// current selection.
func (s *Session) SetTab(tab Tab) error {
	if !tab.Valid() {
		return ErrUnknownTab
	}
	var err error
	s.mutate(func() (string, prefs.Preferences) {
		if !slices.Contains(s.state.Tabs, tab) {
			err = ErrTabUnavailable
			return "", prefs.Preferences{}
		}
		if s.preferredTab == tab && s.state.ActiveTab == tab {
			return "", prefs.Preferences{}
		}
		s.preferredTab = tab
		return TriggerTab, prefs.Tab(string(tab))
	})
	return err
}

// SetCompact turns compact mode on or off.
func (s *Session) SetCompact(on bool) {
	s.mutate(func() (string, prefs.Preferences) {
		if s.state.CompactMode == on {
			return "", prefs.Preferences{}
		}
		s.state.CompactMode = on
		return TriggerCompact, prefs.Compact(on)
	})
}

// SetWidth sets the panel width, clamped, and saves it.
func (s *Session) SetWidth(width int) {
	s.mutate(func() (string, prefs.Preferences) {
		width = prefs.ClampWidth(width)
		if s.state.Width == width {
			return "", prefs.Preferences{}
		}
		s.state.Width = width
		return TriggerResize, prefs.Width(width)
	})
}

// BeginResize starts an interactive resize. Widths set with ResizeTo are
// not saved until EndResize.
func (s *Session) BeginResize() {
	s.mutate(func() (string, prefs.Preferences) {
		if s.state.Resizing {
			return "", prefs.Preferences{}
		}
		s.state.Resizing = true
		return TriggerResize, prefs.Preferences{}
	})
}

// ResizeTo updates the width during an interactive resize. Outside one it
// behaves like SetWidth.
func (s *Session) ResizeTo(width int) {
	s.mutate(func() (string, prefs.Preferences) {
		width = prefs.ClampWidth(width)
		if s.state.Width == width {
			return "", prefs.Preferences{}
		}
		s.state.Width = width
		if s.state.Resizing {
			return TriggerResize, prefs.Preferences{}
		}
		return TriggerResize, prefs.Width(width)
	})
}

// EndResize finishes an interactive resize and saves the settled width.
func (s *Session) EndResize() {
	s.mutate(func() (string, prefs.Preferences) {
		if !s.state.Resizing {
			return "", prefs.Preferences{}
		}
		s.state.Resizing = false
		return TriggerResize, prefs.Width(s.state.Width)
	})
}

// SetSearch echoes text immediately and applies it as the search query
// once input has been quiet for the search delay. Each call supersedes
// the previous one. Ignored while the panel is closed.
func (s *Session) SetSearch(text string) {
	changed := s.mutate(func() (string, prefs.Preferences) {
		if !s.state.Open || s.state.SearchInput == text {
			return "", prefs.Preferences{}
		}
		s.state.SearchInput = text
		return TriggerSearch, prefs.Preferences{}
	})
	if changed {
		s.search.Schedule(func() { s.applySearch(text) })
	}
}

func (s *Session) applySearch(text string) {
	s.mutate(func() (string, prefs.Preferences) {
		// Superseded or cleared since scheduling.
		if !s.state.Open || s.state.SearchInput != text || s.state.SearchQuery == text {
			return "", prefs.Preferences{}
		}
		s.state.SearchQuery = text
		return TriggerSearch, prefs.Preferences{}
	})
}

// ClearSearch empties the search and drops any pending update.
func (s *Session) ClearSearch() {
	s.search.Cancel()
	s.mutate(func() (string, prefs.Preferences) {
		if s.state.SearchInput == "" && s.state.SearchQuery == "" {
			return "", prefs.Preferences{}
		}
		s.state.SearchInput = ""
		s.state.SearchQuery = ""
		return TriggerSearch, prefs.Preferences{}
	})
}

// SearchPending reports whether a search update is waiting to apply.
func (s *Session) SearchPending() bool {
	return s.search.Pending()
}

// SetBulkEdit turns bulk edit on or off. Bulk edit needs a multiple
// selection and is turned off whenever the selection stops being one.
func (s *Session) SetBulkEdit(on bool) error {
	var err error
	s.mutate(func() (string, prefs.Preferences) {
		if on && s.state.SelectionKind != selection.KindMultiple {
			err = ErrBulkEditUnavailable
			return "", prefs.Preferences{}
		}
		if s.state.BulkEdit == on {
			return "", prefs.Preferences{}
		}
		s.state.BulkEdit = on
		return TriggerBulkEdit, prefs.Preferences{}
	})
	return err
}

// SetPreview turns the preview flag on or off.
func (s *Session) SetPreview(on bool) {
	s.mutate(func() (string, prefs.Preferences) {
		if s.state.Preview == on {
			return "", prefs.Preferences{}
		}
		s.state.Preview = on
		return TriggerPreview, prefs.Preferences{}
	})
}

// Dispose releases listeners, pending work and subscribers. A resize drag
// in progress is settled and its width saved. The session ignores every
// call afterwards.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.detachLocked()
	s.subs = nil
	var save prefs.Preferences
	if s.state.Resizing {
		s.state.Resizing = false
		save = prefs.Width(s.state.Width)
	}
	s.mu.Unlock()

	s.search.Cancel()
	if s.store != nil && !save.IsEmpty() {
		s.store.Save(s.cfg.ctx, save)
	}
}

// resolve finds the element an edit targets: the selection decides the
// kind when it holds id, otherwise the graph snapshot does. Either way the
// element must still be in the graph.
func (s *Session) resolve(id string) (diagram.Element, bool) {
	s.mu.Lock()
	el, ok := s.state.Selection.Lookup(id)
	disposed := s.disposed
	s.mu.Unlock()

	if disposed {
		return diagram.Element{}, false
	}
	if ok {
		return el, s.inGraph(el)
	}
	return diagram.Lookup(s.graph, id)
}

// inGraph reports whether the graph still holds el as the same kind.
func (s *Session) inGraph(el diagram.Element) bool {
	switch el.Kind {
	case diagram.KindEdge:
		_, ok := diagram.FindEdge(s.graph, el.ID())
		return ok
	case diagram.KindNode:
		_, ok := diagram.FindNode(s.graph, el.ID())
		return ok
	}
	return false
}

// UpdateItem forwards patch to the node or edge id. Unknown ids are
// ignored, since the element may have been deleted concurrently.
func (s *Session) UpdateItem(id string, patch diagram.Patch) error {
	for _, p := range patch.Properties {
		if strings.TrimSpace(p.Key) == "" {
			return diagram.ErrEmptyPropertyKey
		}
	}
	el, ok := s.resolve(id)
	if !ok {
		observability.LogStaleUpdate(s.logger, id)
		return nil
	}
	s.forward(el, patch)
	s.refresh(id)
	return nil
}

func (s *Session) forward(el diagram.Element, patch diagram.Patch) {
	switch el.Kind {
	case diagram.KindEdge:
		if ep := patch.ForEdge(); !ep.IsEmpty() {
			s.mutator.UpdateEdge(el.Edge.ID, ep)
		}
	case diagram.KindNode:
		if np := patch.ForNode(); !np.IsEmpty() {
			s.mutator.UpdateNode(el.Node.ID, np)
		}
	}
}

// refresh replaces selected elements with their current graph version so
// the fields reflect the edit.
func (s *Session) refresh(ids ...string) {
	fresh := make(map[string]diagram.Element, len(ids))
	for _, id := range ids {
		if el, ok := diagram.Lookup(s.graph, id); ok {
			fresh[id] = el
		}
	}
	if len(fresh) == 0 {
		return
	}

	s.mutate(func() (string, prefs.Preferences) {
		elements := s.state.Selection.Elements()
		touched := false
		for i, el := range elements {
			if f, ok := fresh[el.ID()]; ok {
				elements[i] = f
				touched = true
			}
		}
		if !touched {
			return "", prefs.Preferences{}
		}
		s.state.Selection = selection.Reconcile(nil, nil, elements)
		return TriggerUpdate, prefs.Preferences{}
	})
}

// UpdateSelected forwards patch to every selected element. Bulk edit must
// be on.
func (s *Session) UpdateSelected(patch diagram.Patch) error {
	s.mu.Lock()
	bulk := s.state.BulkEdit
	elements := s.state.Selection.Elements()
	s.mu.Unlock()

	if !bulk {
		return ErrBulkEditDisabled
	}
	for _, p := range patch.Properties {
		if strings.TrimSpace(p.Key) == "" {
			return diagram.ErrEmptyPropertyKey
		}
	}

	ids := make([]string, 0, len(elements))
	for _, el := range elements {
		if !s.inGraph(el) {
			observability.LogStaleUpdate(s.logger, el.ID())
			continue
		}
		s.forward(el, patch)
		ids = append(ids, el.ID())
	}
	s.refresh(ids...)
	return nil
}

// SetPropertyFromInput sets custom property key on node id from raw text
// typed into the panel. See diagram.ParseValue for how text is typed.
func (s *Session) SetPropertyFromInput(id, key, raw string) error {
	return s.UpdateItem(id, diagram.Patch{
		Properties: []diagram.Property{{Key: key, Value: diagram.ParseValue(raw)}},
	})
}

// AddProperty adds a new custom property to node id. The key must be
// non-empty and not already present.
func (s *Session) AddProperty(id, key string, v diagram.Value) error {
	if strings.TrimSpace(key) == "" {
		return diagram.ErrEmptyPropertyKey
	}
	el, ok := s.resolve(id)
	if !ok {
		observability.LogStaleUpdate(s.logger, id)
		return nil
	}
	if el.Kind != diagram.KindNode {
		return ErrNotANode
	}
	n, ok := diagram.FindNode(s.graph, id)
	if !ok {
		observability.LogStaleUpdate(s.logger, id)
		return nil
	}
	if n.Data.Properties.Has(key) {
		return diagram.ErrDuplicatePropertyKey
	}
	return s.UpdateItem(id, diagram.Patch{
		Properties: []diagram.Property{{Key: key, Value: v}},
	})
}

// RemoveProperty deletes custom property key from node id.
func (s *Session) RemoveProperty(id, key string) error {
	return s.UpdateItem(id, diagram.Patch{Remove: []string{key}})
}
