package flowpanel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/config"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/session"
)

// OpenPreferences opens the backend selected by cfg.
func OpenPreferences(ctx context.Context, cfg config.PreferencesConfig) (prefs.Backend, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return prefs.NewMemoryBackend(), nil
	case config.BackendSQLite:
		b, err := prefs.NewSQLiteBackend(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite preferences: %w", err)
		}
		return b, nil
	case config.BackendRedis:
		b, err := prefs.NewRedisBackend(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("open redis preferences: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown preferences backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// NewPreferencesStore wraps backend in a Store configured by cfg.
func NewPreferencesStore(backend prefs.Backend, cfg config.PreferencesConfig, opts ...prefs.StoreOption) *prefs.Store {
	tabs := make([]string, 0, len(session.AllTabs()))
	for _, t := range session.AllTabs() {
		tabs = append(tabs, string(t))
	}
	base := []prefs.StoreOption{
		prefs.WithNamespace(cfg.Namespace),
		prefs.WithKnownTabs(tabs...),
	}
	return prefs.NewStore(backend, append(base, opts...)...)
}

// NewFromConfig validates cfg, opens its preferences backend and creates
// an Editor. opts are applied after the settings taken from cfg. The
// backend is closed by Editor.Close.
func NewFromConfig(ctx context.Context, cfg config.Config, graph diagram.GraphQuery, mutator diagram.GraphMutator, host session.ListenerHost, opts ...Option) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Resolve the logger and metrics the caller asked for so the store
	// reports through them too.
	probe := defaultEditorConfig()
	for _, opt := range opts {
		opt(&probe)
	}

	catalog, err := cfg.BuildCatalog()
	if errors.Is(err, constraint.ErrInvalidLimit) {
		return nil, err
	}
	if err != nil {
		probe.logger.Warn("catalog has ineffective handle limits", slog.String("error", err.Error()))
	}

	backend, err := OpenPreferences(ctx, cfg.Preferences)
	if err != nil {
		return nil, err
	}
	store := NewPreferencesStore(backend, cfg.Preferences,
		prefs.WithLogger(probe.logger),
		prefs.WithMetrics(probe.metrics),
	)

	base := []Option{
		WithCatalog(catalog),
		WithSelfLoops(cfg.Connections.AllowSelfLoops),
		WithStrict(cfg.Connections.Strict),
		WithPreferences(store),
		withOwnedBackend(backend),
		WithSessionOptions(
			session.WithContext(ctx),
			session.WithGlobalProperties(cfg.Panel.ShowGlobalProperties),
			session.WithSearchDelay(cfg.Panel.SearchDelay),
			session.WithLayoutPolicy(cfg.LayoutPolicy()),
			session.WithDefaults(cfg.Panel.Width, session.Tab(cfg.Panel.Tab)),
		),
	}
	return New(graph, mutator, host, append(base, opts...)...), nil
}
