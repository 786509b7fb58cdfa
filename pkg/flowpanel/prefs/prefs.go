// Package prefs persists the panel's durable layout preferences.
//
// Only width, active tab, compact mode and collapsed state are stored.
// Selection and search text are session state and never reach a Backend.
//
// Loads fail soft: a missing, unreachable or corrupt record yields
// (Preferences{}, false) and the caller falls back to defaults. Saves are
// fire-and-forget; failures are logged and counted, never returned.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/observability"
)

// Width bounds for the panel, in pixels.
const (
	MinWidth     = 280
	MaxWidth     = 600
	DefaultWidth = 320
)

// DefaultNamespace prefixes the record key when none is configured.
const DefaultNamespace = "flowpanel"

const recordSuffix = ":panel-preferences"

// ClampWidth bounds w to [MinWidth, MaxWidth].
func ClampWidth(w int) int {
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}

// Preferences are the durable panel settings. A nil field is unset.
type Preferences struct {
	Width       *int    `json:"width,omitempty"`
	ActiveTab   *string `json:"activeTab,omitempty"`
	CompactMode *bool   `json:"compactMode,omitempty"`
	Collapsed   *bool   `json:"collapsed,omitempty"`
}

// IsEmpty reports whether no field is set.
func (p Preferences) IsEmpty() bool {
	return p.Width == nil && p.ActiveTab == nil && p.CompactMode == nil && p.Collapsed == nil
}

// Merge returns p with every field set in patch overriding it.
func (p Preferences) Merge(patch Preferences) Preferences {
	if patch.Width != nil {
		p.Width = ptr(*patch.Width)
	}
	if patch.ActiveTab != nil {
		p.ActiveTab = ptr(*patch.ActiveTab)
	}
	if patch.CompactMode != nil {
		p.CompactMode = ptr(*patch.CompactMode)
	}
	if patch.Collapsed != nil {
		p.Collapsed = ptr(*patch.Collapsed)
	}
	return p
}

// WidthOr returns the stored width or def.
func (p Preferences) WidthOr(def int) int {
	if p.Width == nil {
		return def
	}
	return *p.Width
}

// TabOr returns the stored tab or def.
func (p Preferences) TabOr(def string) string {
	if p.ActiveTab == nil {
		return def
	}
	return *p.ActiveTab
}

// Width returns a Preferences with only the width set.
func Width(w int) Preferences { return Preferences{Width: &w} }

// Tab returns a Preferences with only the active tab set.
func Tab(t string) Preferences { return Preferences{ActiveTab: &t} }

// Compact returns a Preferences with only compact mode set.
func Compact(on bool) Preferences { return Preferences{CompactMode: &on} }

// Collapsed returns a Preferences with only the collapsed flag set.
func Collapsed(on bool) Preferences { return Preferences{Collapsed: &on} }

func ptr[T any](v T) *T { return &v }

// Store reads and writes one namespaced preferences record.
type Store struct {
	backend   Backend
	key       string
	timeout   time.Duration
	knownTabs map[string]bool
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNamespace sets the record namespace. Empty keeps the default.
func WithNamespace(ns string) StoreOption {
	return func(s *Store) {
		if ns != "" {
			s.key = ns + recordSuffix
		}
	}
}

// WithTimeout bounds every backend call. Zero disables the bound.
func WithTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.timeout = d }
}

// WithKnownTabs restricts which active tabs survive a load.
func WithKnownTabs(tabs ...string) StoreOption {
	return func(s *Store) {
		s.knownTabs = make(map[string]bool, len(tabs))
		for _, t := range tabs {
			s.knownTabs[t] = true
		}
	}
}

// WithLogger sets the logger for failures.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the recorder for failures.
func WithMetrics(m observability.MetricsRecorder) StoreOption {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewStore creates a Store over backend.
// Panics if backend is nil.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	if backend == nil {
		panic("prefs: backend cannot be nil")
	}
	s := &Store{
		backend: backend,
		key:     DefaultNamespace + recordSuffix,
		timeout: 2 * time.Second,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the backend key of the preferences record.
func (s *Store) Key() string { return s.key }

// Load returns the stored preferences. The bool is false when nothing
// usable is stored; the failure, if any, has already been logged.
func (s *Store) Load(ctx context.Context) (Preferences, bool) {
	p, err := s.read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.fail(ctx, "load", err)
		}
		return Preferences{}, false
	}
	if p.IsEmpty() {
		return Preferences{}, false
	}
	return p, true
}

// Save merges patch into the stored record. Failures are logged.
func (s *Store) Save(ctx context.Context, patch Preferences) {
	patch = s.sanitize(patch)
	if patch.IsEmpty() {
		return
	}

	current, err := s.read(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// Corrupt or unreachable: overwrite with the patch alone.
		s.fail(ctx, "load", err)
		current = Preferences{}
	}

	data, err := json.Marshal(current.Merge(patch))
	if err != nil {
		s.fail(ctx, "encode", err)
		return
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		s.fail(ctx, "save", err)
	}
}

// Reset removes the stored record.
func (s *Store) Reset(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.fail(ctx, "reset", err)
		return err
	}
	return nil
}

func (s *Store) read(ctx context.Context) (Preferences, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return Preferences{}, err
	}

	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Preferences{}, &CorruptRecordError{Key: s.key, Err: err}
	}
	return s.sanitize(p), nil
}

// sanitize clamps the width and drops tabs outside the known set.
func (s *Store) sanitize(p Preferences) Preferences {
	if p.Width != nil {
		p.Width = ptr(ClampWidth(*p.Width))
	}
	if p.ActiveTab != nil && s.knownTabs != nil && !s.knownTabs[*p.ActiveTab] {
		p.ActiveTab = nil
	}
	return p
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) fail(ctx context.Context, op string, err error) {
	observability.LogPreferencesError(s.logger, op, err)
	s.metrics.RecordPreferencesFailure(ctx, op)
}
