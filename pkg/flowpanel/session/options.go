package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/debounce"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/layout"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/observability"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
)

// DefaultSearchDelay is the quiescence period before a search is applied.
const DefaultSearchDelay = 300 * time.Millisecond

// DefaultViewportWidth is assumed when no ListenerHost is supplied.
const DefaultViewportWidth = 1280

// config holds Session construction settings.
type config struct {
	ctx              context.Context
	logger           *slog.Logger
	metrics          observability.MetricsRecorder
	scheduler        debounce.Scheduler
	searchDelay      time.Duration
	globalProperties bool
	policy           layout.Policy
	sessionID        string
	defaultWidth     int
	defaultTab       Tab
}

func defaultConfig() config {
	return config{
		ctx:          context.Background(),
		logger:       slog.Default(),
		metrics:      observability.NoopMetrics{},
		scheduler:    debounce.RealScheduler{},
		searchDelay:  DefaultSearchDelay,
		policy:       layout.DefaultPolicy,
		defaultWidth: prefs.DefaultWidth,
		defaultTab:   TabOverview,
	}
}

// Option configures a Session.
type Option func(*config)

// WithContext sets the context used for preference I/O.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithScheduler sets the scheduler for the search debounce.
// Tests pass a debounce.ManualScheduler.
func WithScheduler(s debounce.Scheduler) Option {
	return func(c *config) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithSearchDelay sets the search debounce delay.
// Default: 300ms. Zero applies searches immediately.
func WithSearchDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.searchDelay = d
		}
	}
}

// WithGlobalProperties keeps the panel open on the diagram tab when
// nothing is selected.
func WithGlobalProperties(on bool) Option {
	return func(c *config) { c.globalProperties = on }
}

// WithLayoutPolicy sets the viewport breakpoints.
func WithLayoutPolicy(p layout.Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithSessionID tags the session's log records.
func WithSessionID(id string) Option {
	return func(c *config) { c.sessionID = id }
}

// WithDefaults sets the width and tab used until preferences say
// otherwise. Out-of-range widths are clamped; unknown tabs are ignored.
func WithDefaults(width int, tab Tab) Option {
	return func(c *config) {
		c.defaultWidth = prefs.ClampWidth(width)
		if tab.Valid() {
			c.defaultTab = tab
		}
	}
}
