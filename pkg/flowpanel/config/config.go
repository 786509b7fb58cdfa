package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/layout"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/session"
)

// Preference backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the editor configuration.
type Config struct {
	Connections ConnectionsConfig

	// Catalog overrides the default limits per node type. Types not
	// listed keep their default limits.
	Catalog map[string]constraint.NodeLimits

	Panel       PanelConfig
	Layout      LayoutConfig
	Preferences PreferencesConfig
}

// ConnectionsConfig configures the connection validator.
type ConnectionsConfig struct {
	// AllowSelfLoops subjects self-connections to the ordinary capacity
	// rules instead of rejecting them.
	AllowSelfLoops bool

	// Strict panics on malformed connection proposals instead of logging
	// them. Use in development.
	Strict bool
}

// PanelConfig configures the property panel session.
type PanelConfig struct {
	ShowGlobalProperties bool
	SearchDelay          time.Duration

	// Width and Tab are the defaults before preferences are loaded.
	Width int
	Tab   string
}

// LayoutConfig holds the viewport breakpoints.
type LayoutConfig struct {
	TabletMin  int
	DesktopMin int
}

// PreferencesConfig selects where panel preferences are stored.
type PreferencesConfig struct {
	Backend   string
	Path      string
	RedisURL  string
	Namespace string
	TTL       time.Duration
}

// Default returns the built-in configuration: default catalog, self-loops
// rejected, in-memory preferences.
func Default() Config {
	return Config{
		Panel: PanelConfig{
			SearchDelay: session.DefaultSearchDelay,
			Width:       prefs.DefaultWidth,
			Tab:         string(session.TabOverview),
		},
		Layout: LayoutConfig{
			TabletMin:  layout.DefaultTabletMin,
			DesktopMin: layout.DefaultDesktopMin,
		},
		Preferences: PreferencesConfig{
			Backend:   BackendMemory,
			Namespace: prefs.DefaultNamespace,
		},
	}
}

// FromValues builds a Config from a decoded document, starting from
// Default. Unknown keys are ignored. Catalog entries whose bounds are
// not integers, or handles without a max, are reported as
// constraint.ErrInvalidLimit.
func FromValues(v Values) (Config, error) {
	cfg := Default()
	var errs []error

	conn := v.Map("connections")
	cfg.Connections.AllowSelfLoops = conn.Bool("allow_self_loops", cfg.Connections.AllowSelfLoops)
	cfg.Connections.Strict = conn.Bool("strict", cfg.Connections.Strict)

	cat := v.Map("catalog")
	if keys := cat.Keys(); len(keys) > 0 {
		cfg.Catalog = make(map[string]constraint.NodeLimits, len(keys))
		for _, nodeType := range keys {
			limits, err := limitsFromValues(nodeType, cat.Map(nodeType))
			if err != nil {
				errs = append(errs, err)
			}
			cfg.Catalog[nodeType] = limits
		}
	}

	panel := v.Map("panel")
	cfg.Panel.ShowGlobalProperties = panel.Bool("show_global_properties", cfg.Panel.ShowGlobalProperties)
	cfg.Panel.SearchDelay = panel.Duration("search_delay", cfg.Panel.SearchDelay)
	cfg.Panel.Width = panel.Int("width", cfg.Panel.Width)
	cfg.Panel.Tab = panel.String("tab", cfg.Panel.Tab)

	lay := v.Map("layout")
	cfg.Layout.TabletMin = lay.Int("tablet_min", cfg.Layout.TabletMin)
	cfg.Layout.DesktopMin = lay.Int("desktop_min", cfg.Layout.DesktopMin)

	p := v.Map("preferences")
	cfg.Preferences.Backend = p.String("backend", cfg.Preferences.Backend)
	cfg.Preferences.Path = p.String("path", cfg.Preferences.Path)
	cfg.Preferences.RedisURL = p.String("redis_url", cfg.Preferences.RedisURL)
	cfg.Preferences.Namespace = p.String("namespace", cfg.Preferences.Namespace)
	cfg.Preferences.TTL = p.Duration("ttl", cfg.Preferences.TTL)

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("%w: catalog: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func limitsFromValues(nodeType string, v Values) (constraint.NodeLimits, error) {
	var (
		l    constraint.NodeLimits
		errs []error
	)
	bound := func(key string) *int {
		if !v.Has(key) {
			return nil
		}
		n, ok := v.IntOK(key)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s: %s must be an integer, got %v",
				constraint.ErrInvalidLimit, nodeType, key, v.Raw()[key]))
			return nil
		}
		return constraint.Bound(n)
	}
	l.SourceMax = bound("source_max")
	l.TargetMax = bound("target_max")

	handles := v.Map("handles")
	for _, id := range handles.Keys() {
		h := handles.Map(id)
		limit, ok := h.IntOK("max")
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s: handle %q needs an integer max",
				constraint.ErrInvalidLimit, nodeType, id))
			continue
		}
		if l.Handles == nil {
			l.Handles = make(map[string]constraint.HandleLimit)
		}
		l.Handles[id] = constraint.HandleLimit{
			Max:       limit,
			Direction: constraint.Direction(h.String("direction", string(constraint.DirectionSource))),
		}
	}
	return l, errors.Join(errs...)
}

// BuildCatalog returns the default catalog with the configured overrides
// applied. The error is the catalog's Validate result: callers should
// refuse constraint.ErrInvalidLimit and may merely warn about
// constraint.ErrLooseHandleLimit.
func (c Config) BuildCatalog() (constraint.Catalog, error) {
	base := constraint.DefaultCatalog()
	limits := make(map[diagram.NodeType]constraint.NodeLimits, base.Len()+len(c.Catalog))
	for _, t := range base.Types() {
		limits[t] = base.LimitsFor(t)
	}
	for t, l := range c.Catalog {
		limits[diagram.NodeType(t)] = l
	}
	cat := constraint.NewCatalog(limits)
	return cat, cat.Validate()
}

// LayoutPolicy returns the configured breakpoints.
func (c Config) LayoutPolicy() layout.Policy {
	return layout.Policy{TabletMin: c.Layout.TabletMin, DesktopMin: c.Layout.DesktopMin}
}

// Validate reports every problem with the configuration, joined.
// Loose handle limits are not reported; see BuildCatalog.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := c.BuildCatalog(); errors.Is(err, constraint.ErrInvalidLimit) {
		errs = append(errs, fmt.Errorf("%w: catalog: %w", ErrInvalidConfig, err))
	}

	if c.Panel.SearchDelay < 0 {
		add("panel.search_delay must not be negative, got %s", c.Panel.SearchDelay)
	}
	if c.Panel.Width < prefs.MinWidth || c.Panel.Width > prefs.MaxWidth {
		add("panel.width must be within [%d, %d], got %d", prefs.MinWidth, prefs.MaxWidth, c.Panel.Width)
	}
	if !session.Tab(c.Panel.Tab).Valid() {
		add("panel.tab %q is not a known tab", c.Panel.Tab)
	}

	if !c.LayoutPolicy().Valid() {
		add("layout breakpoints must satisfy 0 < tablet_min < desktop_min, got %d and %d",
			c.Layout.TabletMin, c.Layout.DesktopMin)
	}

	switch c.Preferences.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Preferences.Path == "" {
			add("preferences.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Preferences.RedisURL == "" {
			add("preferences.redis_url is required for the redis backend")
		}
	default:
		add("preferences.backend %q must be one of memory, sqlite, redis", c.Preferences.Backend)
	}
	if c.Preferences.TTL < 0 {
		add("preferences.ttl must not be negative, got %s", c.Preferences.TTL)
	}

	return errors.Join(errs...)
}

// CatalogTypes returns the configured override types, sorted.
func (c Config) CatalogTypes() []string {
	types := make([]string, 0, len(c.Catalog))
	for t := range c.Catalog {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
