package flowpanel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/observability"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/selection"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/session"
)

// NewEdgeID returns an id of the form "edge-1a2b3c4d".
func NewEdgeID() string {
	return "edge-" + uuid.NewString()[:8]
}

// Editor connects the canvas surfaces to the connection validator and the
// property panel session.
//
// Editor is safe for concurrent use.
type Editor struct {
	graph     diagram.GraphQuery
	mutator   diagram.GraphMutator
	validator *constraint.Validator
	session   *session.Session
	backend   prefs.Backend

	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	strict    bool
	newEdgeID func() string

	mu           sync.Mutex
	selectedNode *diagram.Node
	selectedEdge *diagram.Edge
	extra        []diagram.Element
	closed       bool
}

// New creates an Editor over the canvas surfaces. host may be nil.
//
// Panics if graph or mutator is nil.
func New(graph diagram.GraphQuery, mutator diagram.GraphMutator, host session.ListenerHost, opts ...Option) *Editor {
	if graph == nil {
		panic("flowpanel: graph cannot be nil")
	}
	if mutator == nil {
		panic("flowpanel: mutator cannot be nil")
	}

	cfg := defaultEditorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sessionID == "" {
		cfg.sessionID = uuid.NewString()[:8]
	}

	logger := observability.EnrichLogger(cfg.logger, cfg.sessionID)

	sessionOpts := append([]session.Option{
		session.WithLogger(cfg.logger),
		session.WithMetrics(cfg.metrics),
		session.WithSessionID(cfg.sessionID),
	}, cfg.sessionOpts...)

	return &Editor{
		graph:     graph,
		mutator:   mutator,
		validator: constraint.NewValidator(cfg.catalog, constraint.WithSelfLoops(cfg.selfLoops)),
		session:   session.New(graph, mutator, cfg.store, host, sessionOpts...),
		backend:   cfg.backend,
		logger:    logger,
		metrics:   cfg.metrics,
		spans:     cfg.spans,
		strict:    cfg.strict,
		newEdgeID: cfg.newEdgeID,
	}
}

// Session returns the property panel session.
func (e *Editor) Session() *session.Session {
	return e.session
}

// Validator returns the connection validator.
func (e *Editor) Validator() *constraint.Validator {
	return e.validator
}

// Check decides p against the current edges without inserting anything.
// Use it for hover feedback while the user drags a connection. An endpoint
// id that names no node in the graph is an invalid proposal.
func (e *Editor) Check(p constraint.Proposal) (constraint.Decision, error) {
	decision, err := e.validator.CanConnect(e.graph.Edges(), p, e.graph.NodeTypeOf)
	if err != nil {
		return decision, err
	}
	if _, ok := diagram.FindNode(e.graph, p.SourceNodeID); !ok {
		return constraint.Decision{}, &constraint.InvalidProposalError{Field: "source", Proposal: p, Unknown: true}
	}
	if _, ok := diagram.FindNode(e.graph, p.TargetNodeID); !ok {
		return constraint.Decision{}, &constraint.InvalidProposalError{Field: "target", Proposal: p, Unknown: true}
	}
	return decision, nil
}

// Connect decides p and, if accepted, inserts the new edge through the
// graph mutator and returns it.
//
// A refused proposal returns the Decision with a nil error. A malformed
// proposal returns *constraint.InvalidProposalError, or panics in strict
// mode.
func (e *Editor) Connect(ctx context.Context, p constraint.Proposal) (diagram.Edge, constraint.Decision, error) {
	ctx, span := e.spans.StartConnectSpan(ctx, p.SourceNodeID, p.TargetNodeID)

	decision, err := e.Check(p)
	if err != nil {
		e.spans.EndSpanWithError(span, err)
		observability.LogInvalidProposal(e.logger, err)
		if e.strict {
			panic(err)
		}
		return diagram.Edge{}, constraint.Decision{}, err
	}

	sourceType, _ := e.graph.NodeTypeOf(p.SourceNodeID)
	targetType, _ := e.graph.NodeTypeOf(p.TargetNodeID)
	e.metrics.RecordConnection(ctx, string(sourceType), string(targetType), decision.Accepted, string(decision.Reason()))
	observability.LogConnectionDecision(e.logger, p.SourceNodeID, p.TargetNodeID, decision.Accepted, string(decision.Reason()))

	if !decision.Accepted {
		e.spans.AddSpanEvent(ctx, "connection.rejected",
			attribute.String("reason", string(decision.Reason())),
			attribute.String("node", decision.Rejection.NodeID),
		)
		e.spans.EndSpanWithError(span, nil)
		return diagram.Edge{}, decision, nil
	}

	edge := diagram.Edge{
		ID:           e.newEdgeID(),
		Source:       p.SourceNodeID,
		SourceHandle: p.SourceHandleID,
		Target:       p.TargetNodeID,
		TargetHandle: p.TargetHandleID,
	}
	e.mutator.InsertEdge(edge)
	e.spans.AddSpanEvent(ctx, "connection.inserted", attribute.String("edge.id", edge.ID))
	e.spans.EndSpanWithError(span, nil)
	return edge, decision, nil
}

// NodeSelected handles a node-selected event from the canvas. It replaces
// the single-element selection and clears any extra selection.
func (e *Editor) NodeSelected(n diagram.Node) bool {
	return e.updateSelection(func() {
		e.selectedNode = &n
		e.selectedEdge = nil
		e.extra = nil
	})
}

// EdgeSelected handles an edge-selected event from the canvas.
func (e *Editor) EdgeSelected(edge diagram.Edge) bool {
	return e.updateSelection(func() {
		e.selectedEdge = &edge
		e.selectedNode = nil
		e.extra = nil
	})
}

// SelectionChanged replaces the extra selection, for example from a
// box select or shift-click, keeping the selected node or edge.
func (e *Editor) SelectionChanged(elements []diagram.Element) bool {
	return e.updateSelection(func() {
		e.extra = append([]diagram.Element(nil), elements...)
	})
}

// PaneCleared handles a click on the empty canvas.
func (e *Editor) PaneCleared() bool {
	return e.updateSelection(func() {
		e.selectedNode = nil
		e.selectedEdge = nil
		e.extra = nil
	})
}

// updateSelection applies fn to the selection sources and reports whether
// the reconciled selection changed.
func (e *Editor) updateSelection(fn func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	fn()
	sel := selection.Reconcile(e.selectedNode, e.selectedEdge, e.extra)
	e.mu.Unlock()

	return e.session.SetSelection(sel)
}

// Close disposes the session and closes a preferences backend the editor
// opened itself. Close is idempotent.
func (e *Editor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.session.Dispose()
	if e.backend != nil {
		return e.backend.Close()
	}
	return nil
}
