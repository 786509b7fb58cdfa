package session_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/debounce"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/session"
)

// recordingGraph wraps a MemoryGraph and records mutator calls.
type recordingGraph struct {
	*diagram.MemoryGraph

	mu    sync.Mutex
	nodes []string
	edges []string
}

func (g *recordingGraph) UpdateNode(id string, patch diagram.NodePatch) {
	g.mu.Lock()
	g.nodes = append(g.nodes, id)
	g.mu.Unlock()
	g.MemoryGraph.UpdateNode(id, patch)
}

func (g *recordingGraph) UpdateEdge(id string, patch diagram.EdgePatch) {
	g.mu.Lock()
	g.edges = append(g.edges, id)
	g.mu.Unlock()
	g.MemoryGraph.UpdateEdge(id, patch)
}

func (g *recordingGraph) nodeUpdates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.nodes...)
}

func (g *recordingGraph) edgeUpdates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.edges...)
}

func mustBag(t *testing.T, props ...diagram.Property) diagram.PropertyBag {
	t.Helper()
	bag, err := diagram.NewPropertyBag(props...)
	require.NoError(t, err)
	return bag
}

func newGraph(t *testing.T) *recordingGraph {
	t.Helper()
	return &recordingGraph{MemoryGraph: diagram.NewMemoryGraph(
		[]diagram.Node{
			{ID: "n1", Type: diagram.TypeAction, Data: diagram.NodeData{
				Label: "Fetch",
				Properties: mustBag(t,
					diagram.Property{Key: "retries", Value: diagram.NumberValue(3)},
					diagram.Property{Key: "owner", Value: diagram.StringValue("ops")},
				),
			}},
			{ID: "n2", Type: diagram.TypeCondition, Data: diagram.NodeData{
				Label:      "Check",
				Properties: mustBag(t, diagram.Property{Key: "retries", Value: diagram.NumberValue(1)}),
			}},
			{ID: "n3", Type: diagram.TypeEnd, Data: diagram.NodeData{Label: "Done"}},
		},
		[]diagram.Edge{
			{ID: "e1", Source: "n1", Target: "n2"},
			{ID: "e2", Source: "n2", SourceHandle: "true", Target: "n3"},
		},
	)}
}

type fixture struct {
	graph   *recordingGraph
	host    *session.ManualHost
	backend *prefs.MemoryBackend
	store   *prefs.Store
	clock   *debounce.ManualScheduler
	logs    *bytes.Buffer
	session *session.Session
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	t.Helper()
	f := &fixture{
		graph:   newGraph(t),
		host:    session.NewManualHost(1280),
		backend: prefs.NewMemoryBackend(),
		clock:   debounce.NewManualScheduler(),
		logs:    &bytes.Buffer{},
	}
	f.store = prefs.NewStore(f.backend, prefs.WithLogger(f.logger()))
	f.session = f.open(opts...)
	return f
}

// open starts a new session over the fixture's graph, host and store.
func (f *fixture) open(opts ...session.Option) *session.Session {
	base := []session.Option{
		session.WithScheduler(f.clock),
		session.WithLogger(f.logger()),
	}
	return session.New(f.graph, f.graph, f.store, f.host, append(base, opts...)...)
}

func (f *fixture) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (f *fixture) node(t *testing.T, id string) diagram.Node {
	t.Helper()
	n, ok := diagram.FindNode(f.graph, id)
	require.True(t, ok, "node %s", id)
	return n
}

func (f *fixture) edge(t *testing.T, id string) diagram.Edge {
	t.Helper()
	e, ok := diagram.FindEdge(f.graph, id)
	require.True(t, ok, "edge %s", id)
	return e
}

func (f *fixture) selectNode(t *testing.T, id string) bool {
	t.Helper()
	n := f.node(t, id)
	return f.session.Select(&n, nil, nil)
}

func (f *fixture) selectEdge(t *testing.T, id string) bool {
	t.Helper()
	e := f.edge(t, id)
	return f.session.Select(nil, &e, nil)
}

func (f *fixture) selectMany(t *testing.T, ids ...string) bool {
	t.Helper()
	var extra []diagram.Element
	for _, id := range ids {
		el, ok := diagram.Lookup(f.graph, id)
		require.True(t, ok, "element %s", id)
		extra = append(extra, el)
	}
	return f.session.Select(nil, nil, extra)
}

func (f *fixture) saved(t *testing.T) prefs.Preferences {
	t.Helper()
	p, _ := f.store.Load(context.Background())
	return p
}

const searchDelay = session.DefaultSearchDelay

