package flowpanel

import (
	"log/slog"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/observability"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/session"
)

// editorConfig holds Editor construction settings.
type editorConfig struct {
	catalog     constraint.Catalog
	selfLoops   bool
	strict      bool
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	store       *prefs.Store
	backend     prefs.Backend
	sessionID   string
	sessionOpts []session.Option
	newEdgeID   func() string
}

func defaultEditorConfig() editorConfig {
	return editorConfig{
		catalog:   constraint.DefaultCatalog(),
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		newEdgeID: NewEdgeID,
	}
}

// Option configures an Editor.
type Option func(*editorConfig)

// WithCatalog sets the connection limits.
// Default: constraint.DefaultCatalog().
func WithCatalog(c constraint.Catalog) Option {
	return func(cfg *editorConfig) { cfg.catalog = c }
}

// WithSelfLoops subjects self-connections to the ordinary capacity rules
// instead of rejecting them.
func WithSelfLoops(allow bool) Option {
	return func(cfg *editorConfig) { cfg.selfLoops = allow }
}

// WithStrict makes Connect panic on malformed proposals.
// Use in development and tests.
func WithStrict(strict bool) Option {
	return func(cfg *editorConfig) { cfg.strict = strict }
}

// WithLogger sets the logger for the editor and its session.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *editorConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
//
// Example:
//
//	editor := flowpanel.New(graph, graph, host,
//	    flowpanel.WithMetrics(observability.NewPrometheusMetrics(registry)))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(cfg *editorConfig) {
		if m != nil {
			cfg.metrics = m
		}
	}
}

// WithSpanManager enables tracing of connection attempts.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(cfg *editorConfig) {
		if sm != nil {
			cfg.spans = sm
		}
	}
}

// WithPreferences sets the preferences store. Without one the panel
// starts from defaults every time.
func WithPreferences(store *prefs.Store) Option {
	return func(cfg *editorConfig) { cfg.store = store }
}

// WithSessionID tags log records. Default: a random 8-character id.
func WithSessionID(id string) Option {
	return func(cfg *editorConfig) { cfg.sessionID = id }
}

// WithSessionOptions passes options through to the panel session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(cfg *editorConfig) {
		cfg.sessionOpts = append(cfg.sessionOpts, opts...)
	}
}

// WithEdgeIDs sets the generator for ids of inserted edges.
// Default: NewEdgeID.
func WithEdgeIDs(fn func() string) Option {
	return func(cfg *editorConfig) {
		if fn != nil {
			cfg.newEdgeID = fn
		}
	}
}

// withOwnedBackend makes Close release backend.
func withOwnedBackend(b prefs.Backend) Option {
	return func(cfg *editorConfig) { cfg.backend = b }
}
