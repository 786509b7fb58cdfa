package flowpanel_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/config"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/observability"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/selection"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/session"
)

// connectionCall is one RecordConnection invocation.
type connectionCall struct {
	source, target string
	accepted       bool
	reason         string
}

// fakeMetrics records connection outcomes.
type fakeMetrics struct {
	observability.NoopMetrics

	mu    sync.Mutex
	calls []connectionCall
}

func (m *fakeMetrics) RecordConnection(_ context.Context, sourceType, targetType string, accepted bool, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, connectionCall{sourceType, targetType, accepted, reason})
}

func (m *fakeMetrics) recorded() []connectionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]connectionCall(nil), m.calls...)
}

func node(id string, t diagram.NodeType) diagram.Node {
	return diagram.Node{ID: id, Type: t, Data: diagram.NodeData{Label: id}}
}

// workflowGraph has a start, an action, a condition with ten outgoing
// edges and an end with one incoming edge.
func workflowGraph() *diagram.MemoryGraph {
	nodes := []diagram.Node{
		node("start", diagram.TypeStart),
		node("act", diagram.TypeAction),
		node("cond", diagram.TypeCondition),
		node("end", diagram.TypeEnd),
		node("extra", diagram.TypeAction),
	}
	var edges []diagram.Edge
	for i := range 10 {
		id := fmt.Sprintf("t%d", i)
		nodes = append(nodes, node(id, diagram.TypeAction))
		edges = append(edges, diagram.Edge{ID: "c-" + id, Source: "cond", Target: id})
	}
	edges = append(edges, diagram.Edge{ID: "act-end", Source: "act", Target: "end"})
	return diagram.NewMemoryGraph(nodes, edges)
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestNew_PanicsOnNil(t *testing.T) {
	g := workflowGraph()
	assert.Panics(t, func() { flowpanel.New(nil, g, nil) })
	assert.Panics(t, func() { flowpanel.New(g, nil, nil) })
}

func TestConnect_Accepted(t *testing.T) {
	g := workflowGraph()
	metrics := &fakeMetrics{}
	logger, logs := bufferLogger()
	e := flowpanel.New(g, g, nil,
		flowpanel.WithMetrics(metrics),
		flowpanel.WithLogger(logger),
		flowpanel.WithSessionID("sess-1"),
		flowpanel.WithEdgeIDs(func() string { return "edge-new" }),
	)
	defer e.Close()

	edge, decision, err := e.Connect(context.Background(), constraint.Proposal{
		SourceNodeID: "start",
		TargetNodeID: "act",
	})
	require.NoError(t, err)
	assert.True(t, decision.Accepted)
	assert.Equal(t, diagram.Edge{ID: "edge-new", Source: "start", Target: "act"}, edge)

	inserted, ok := diagram.FindEdge(g, "edge-new")
	require.True(t, ok)
	assert.Equal(t, "start", inserted.Source)

	assert.Equal(t, []connectionCall{{"start", "action", true, ""}}, metrics.recorded())
	assert.Contains(t, logs.String(), `"session_id":"sess-1"`)
	assert.Contains(t, logs.String(), "connection accepted")
}

func TestConnect_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		proposal constraint.Proposal
		reason   constraint.Reason
		nodeID   string
	}{
		{
			name:     "eleventh edge from condition",
			proposal: constraint.Proposal{SourceNodeID: "cond", TargetNodeID: "extra"},
			reason:   constraint.ReasonSourceMaxExceeded,
			nodeID:   "cond",
		},
		{
			name:     "second edge into end",
			proposal: constraint.Proposal{SourceNodeID: "extra", TargetNodeID: "end"},
			reason:   constraint.ReasonTargetMaxExceeded,
			nodeID:   "end",
		},
		{
			name:     "self connection",
			proposal: constraint.Proposal{SourceNodeID: "extra", TargetNodeID: "extra"},
			reason:   constraint.ReasonSelfConnection,
			nodeID:   "extra",
		},
		{
			name:     "into start",
			proposal: constraint.Proposal{SourceNodeID: "extra", TargetNodeID: "start"},
			reason:   constraint.ReasonTargetMaxExceeded,
			nodeID:   "start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := workflowGraph()
			before := len(g.Edges())
			metrics := &fakeMetrics{}
			e := flowpanel.New(g, g, nil, flowpanel.WithMetrics(metrics))
			defer e.Close()

			edge, decision, err := e.Connect(context.Background(), tt.proposal)
			require.NoError(t, err)
			assert.False(t, decision.Accepted)
			assert.Equal(t, diagram.Edge{}, edge)
			require.NotNil(t, decision.Rejection)
			assert.Equal(t, tt.reason, decision.Reason())
			assert.Equal(t, tt.nodeID, decision.Rejection.NodeID)
			assert.Len(t, g.Edges(), before, "rejected edge must not be inserted")

			calls := metrics.recorded()
			require.Len(t, calls, 1)
			assert.False(t, calls[0].accepted)
			assert.Equal(t, string(tt.reason), calls[0].reason)
		})
	}
}

func TestConnect_SelfLoopsAllowed(t *testing.T) {
	g := workflowGraph()
	e := flowpanel.New(g, g, nil, flowpanel.WithSelfLoops(true))
	defer e.Close()

	_, decision, err := e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "extra", TargetNodeID: "extra"})
	require.NoError(t, err)
	assert.True(t, decision.Accepted)
}

func TestCheck_DoesNotInsert(t *testing.T) {
	g := workflowGraph()
	e := flowpanel.New(g, g, nil)
	defer e.Close()

	before := len(g.Edges())
	decision, err := e.Check(constraint.Proposal{SourceNodeID: "start", TargetNodeID: "act"})
	require.NoError(t, err)
	assert.True(t, decision.Accepted)
	assert.Len(t, g.Edges(), before)
}

func TestConnect_InvalidProposal(t *testing.T) {
	g := workflowGraph()
	logger, logs := bufferLogger()
	metrics := &fakeMetrics{}
	e := flowpanel.New(g, g, nil, flowpanel.WithLogger(logger), flowpanel.WithMetrics(metrics))
	defer e.Close()

	_, _, err := e.Connect(context.Background(), constraint.Proposal{TargetNodeID: "act"})
	require.Error(t, err)
	assert.ErrorIs(t, err, constraint.ErrInvalidProposal)

	var ipe *constraint.InvalidProposalError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "source", ipe.Field)

	assert.Empty(t, metrics.recorded(), "malformed proposals are not decisions")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
}

func TestConnect_StrictPanics(t *testing.T) {
	g := workflowGraph()
	e := flowpanel.New(g, g, nil, flowpanel.WithStrict(true))
	defer e.Close()

	assert.Panics(t, func() {
		_, _, _ = e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "act"})
	})
}

func TestConnect_UnknownEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		proposal constraint.Proposal
		field    string
		message  string
	}{
		{
			name:     "neither node exists",
			proposal: constraint.Proposal{SourceNodeID: "ghost", TargetNodeID: "nowhere"},
			field:    "source",
			message:  `unknown source node "ghost"`,
		},
		{
			name:     "source missing",
			proposal: constraint.Proposal{SourceNodeID: "ghost", TargetNodeID: "act"},
			field:    "source",
			message:  `unknown source node "ghost"`,
		},
		{
			name:     "target missing",
			proposal: constraint.Proposal{SourceNodeID: "start", TargetNodeID: "nowhere"},
			field:    "target",
			message:  `unknown target node "nowhere"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := workflowGraph()
			metrics := &fakeMetrics{}
			e := flowpanel.New(g, g, nil, flowpanel.WithMetrics(metrics))
			defer e.Close()

			before := len(g.Edges())
			decision, err := e.Check(tt.proposal)
			require.ErrorIs(t, err, constraint.ErrInvalidProposal)
			assert.False(t, decision.Accepted)

			_, decision, err = e.Connect(context.Background(), tt.proposal)
			require.ErrorIs(t, err, constraint.ErrInvalidProposal)
			assert.ErrorContains(t, err, tt.message)
			assert.False(t, decision.Accepted)

			var ipe *constraint.InvalidProposalError
			require.ErrorAs(t, err, &ipe)
			assert.Equal(t, tt.field, ipe.Field)
			assert.True(t, ipe.Unknown)

			assert.Len(t, g.Edges(), before, "no dangling edge is inserted")
			assert.Empty(t, metrics.recorded())
		})
	}
}

func TestConnect_UnknownEndpointStrictPanics(t *testing.T) {
	g := workflowGraph()
	e := flowpanel.New(g, g, nil, flowpanel.WithStrict(true))
	defer e.Close()

	assert.Panics(t, func() {
		_, _, _ = e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "ghost", TargetNodeID: "nowhere"})
	})
	assert.Len(t, g.Edges(), 11)
}

func TestConnect_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	g := workflowGraph()
	e := flowpanel.New(g, g, nil,
		flowpanel.WithSpanManager(observability.NewSpanManagerWithProvider(provider)),
		flowpanel.WithEdgeIDs(func() string { return "edge-x" }),
	)
	defer e.Close()

	_, _, err := e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "start", TargetNodeID: "act"})
	require.NoError(t, err)
	_, _, err = e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "cond", TargetNodeID: "extra"})
	require.NoError(t, err)
	_, _, err = e.Connect(context.Background(), constraint.Proposal{TargetNodeID: "act"})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	accepted := spans[0]
	assert.Equal(t, "flowpanel.connect", accepted.Name())
	assert.Equal(t, codes.Ok, accepted.Status().Code)
	require.Len(t, accepted.Events(), 1)
	assert.Equal(t, "connection.inserted", accepted.Events()[0].Name)
	assert.Contains(t, accepted.Events()[0].Attributes, attribute.String("edge.id", "edge-x"))

	rejected := spans[1]
	assert.Equal(t, codes.Ok, rejected.Status().Code)
	require.Len(t, rejected.Events(), 1)
	assert.Equal(t, "connection.rejected", rejected.Events()[0].Name)
	assert.Contains(t, rejected.Events()[0].Attributes, attribute.String("reason", "source-max-exceeded"))

	assert.Equal(t, codes.Error, spans[2].Status().Code)
}

func TestNewEdgeID(t *testing.T) {
	pattern := regexp.MustCompile(`^edge-[0-9a-f]{8}$`)
	a, b := flowpanel.NewEdgeID(), flowpanel.NewEdgeID()
	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)
}

func TestConnect_DefaultEdgeIDs(t *testing.T) {
	g := workflowGraph()
	e := flowpanel.New(g, g, nil)
	defer e.Close()

	edge, _, err := e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "start", TargetNodeID: "act"})
	require.NoError(t, err)
	assert.Regexp(t, `^edge-[0-9a-f]{8}$`, edge.ID)
}

func TestSelectionEvents(t *testing.T) {
	g := workflowGraph()
	e := flowpanel.New(g, g, nil)
	defer e.Close()

	act, _ := diagram.FindNode(g, "act")
	cond, _ := diagram.FindNode(g, "cond")
	edge, _ := diagram.FindEdge(g, "act-end")

	assert.True(t, e.NodeSelected(act))
	state := e.Session().Snapshot()
	assert.True(t, state.Open)
	assert.Equal(t, selection.KindSingle, state.SelectionKind)
	assert.Equal(t, []string{"act"}, state.Selection.IDs())

	assert.False(t, e.NodeSelected(act), "same selection is not a change")

	assert.True(t, e.SelectionChanged([]diagram.Element{diagram.NodeElement(cond), diagram.EdgeElement(edge)}))
	state = e.Session().Snapshot()
	assert.Equal(t, selection.KindMultiple, state.SelectionKind)
	assert.Equal(t, []string{"act", "act-end", "cond"}, state.Selection.IDs())

	assert.True(t, e.EdgeSelected(edge))
	state = e.Session().Snapshot()
	assert.Equal(t, []string{"act-end"}, state.Selection.IDs())

	assert.True(t, e.PaneCleared())
	state = e.Session().Snapshot()
	assert.False(t, state.Open)
	assert.Equal(t, selection.KindNone, state.SelectionKind)
}

func TestClose_Idempotent(t *testing.T) {
	g := workflowGraph()
	host := session.NewManualHost(1280)
	e := flowpanel.New(g, g, host)

	act, _ := diagram.FindNode(g, "act")
	e.NodeSelected(act)
	assert.Positive(t, host.ActiveTotal())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Zero(t, host.ActiveTotal())
	assert.False(t, e.NodeSelected(act), "events after Close are ignored")
}

func TestNewFromConfig_SQLitePersistsPreferences(t *testing.T) {
	cfg := config.Default()
	cfg.Preferences.Backend = config.BackendSQLite
	cfg.Preferences.Path = filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	g := workflowGraph()
	e, err := flowpanel.NewFromConfig(ctx, cfg, g, g, nil)
	require.NoError(t, err)
	act, _ := diagram.FindNode(g, "act")
	e.NodeSelected(act)
	e.Session().SetWidth(420)
	require.NoError(t, e.Session().SetTab(session.TabStyle))
	require.NoError(t, e.Close())

	e, err = flowpanel.NewFromConfig(ctx, cfg, g, g, nil)
	require.NoError(t, err)
	defer e.Close()

	state := e.Session().Snapshot()
	assert.Equal(t, 420, state.Width)
	assert.False(t, state.Open)

	e.NodeSelected(act)
	assert.Equal(t, session.TabStyle, e.Session().Snapshot().ActiveTab)
}

func TestNewFromConfig_AppliesSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Connections.AllowSelfLoops = true
	cfg.Panel.ShowGlobalProperties = true
	cfg.Panel.Width = 360
	cfg.Catalog = map[string]constraint.NodeLimits{
		"action": {SourceMax: constraint.Bound(2)},
	}

	g := workflowGraph()
	e, err := flowpanel.NewFromConfig(context.Background(), cfg, g, g, nil)
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.Validator().AllowsSelfLoops())
	assert.Equal(t, constraint.Bound(2), e.Validator().Catalog().LimitsFor(diagram.TypeAction).SourceMax)
	assert.Equal(t, 360, e.Session().Snapshot().Width)

	// act already feeds end; the override allows a second outgoing edge.
	_, decision, err := e.Connect(context.Background(), constraint.Proposal{SourceNodeID: "act", TargetNodeID: "extra"})
	require.NoError(t, err)
	assert.True(t, decision.Accepted)

	act, _ := diagram.FindNode(g, "act")
	e.NodeSelected(act)
	e.PaneCleared()
	state := e.Session().Snapshot()
	assert.True(t, state.Open, "global properties keep the panel open with no selection")
	assert.Equal(t, session.TabDiagram, state.ActiveTab)
}

func TestNewFromConfig_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		target error
	}{
		{
			name:   "width out of range",
			modify: func(c *config.Config) { c.Panel.Width = 10 },
			target: config.ErrInvalidConfig,
		},
		{
			name: "negative limit",
			modify: func(c *config.Config) {
				c.Catalog = map[string]constraint.NodeLimits{"action": {SourceMax: constraint.Bound(-1)}}
			},
			target: constraint.ErrInvalidLimit,
		},
		{
			name:   "unknown backend",
			modify: func(c *config.Config) { c.Preferences.Backend = "etcd" },
			target: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(&cfg)
			g := workflowGraph()
			e, err := flowpanel.NewFromConfig(context.Background(), cfg, g, g, nil)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestNewFromConfig_LooseHandleLimitWarns(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog = map[string]constraint.NodeLimits{
		"condition": {
			SourceMax: constraint.Bound(1),
			Handles:   map[string]constraint.HandleLimit{"true": {Max: 3, Direction: constraint.DirectionSource}},
		},
	}
	logger, logs := bufferLogger()

	g := workflowGraph()
	e, err := flowpanel.NewFromConfig(context.Background(), cfg, g, g, nil, flowpanel.WithLogger(logger))
	require.NoError(t, err)
	defer e.Close()

	assert.Contains(t, logs.String(), "catalog has ineffective handle limits")
	assert.Contains(t, logs.String(), `"level":"WARN"`)
}

func TestOpenPreferences(t *testing.T) {
	ctx := context.Background()

	b, err := flowpanel.OpenPreferences(ctx, config.PreferencesConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = flowpanel.OpenPreferences(ctx, config.PreferencesConfig{})
	require.NoError(t, err, "empty backend means memory")
	require.NoError(t, b.Close())

	_, err = flowpanel.OpenPreferences(ctx, config.PreferencesConfig{Backend: "etcd"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = flowpanel.OpenPreferences(ctx, config.PreferencesConfig{Backend: config.BackendRedis, RedisURL: "not a url"})
	assert.Error(t, err)
}

func TestNewPreferencesStore_DropsUnknownTabs(t *testing.T) {
	ctx := context.Background()
	b, err := flowpanel.OpenPreferences(ctx, config.PreferencesConfig{})
	require.NoError(t, err)
	defer b.Close()

	store := flowpanel.NewPreferencesStore(b, config.PreferencesConfig{Namespace: "t"})
	assert.Equal(t, "t:panel-preferences", store.Key())

	store.Save(ctx, prefs.Tab("bogus"))
	_, ok := store.Load(ctx)
	assert.False(t, ok)

	store.Save(ctx, prefs.Tab(string(session.TabAdvanced)))
	p, ok := store.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "advanced", p.TabOr(""))
}
