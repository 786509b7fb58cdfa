/*
Package flowpanel is the editing core of a visual workflow-diagram editor.

# Overview

The canvas (rendering, hit testing, pan/zoom, drag and drop) lives outside
this module and talks to it through small interfaces:

  - diagram.GraphQuery and diagram.GraphMutator for reading and changing
    the graph
  - session.ListenerHost for viewport and keyboard/pointer listeners
  - prefs.Backend for persisting panel preferences

An Editor wires those surfaces to the connection validator and the
property panel session.

# Basic Usage

	graph := diagram.NewMemoryGraph(nodes, edges)
	host := session.NewManualHost(1280)

	editor := flowpanel.New(graph, graph, host)
	defer editor.Close()

	// A drag from a condition's "true" handle to an action node:
	edge, decision, err := editor.Connect(ctx, constraint.Proposal{
	    SourceNodeID:   "check",
	    SourceHandleID: "true",
	    TargetNodeID:   "notify",
	})
	switch {
	case err != nil:
	    // malformed proposal: an integration bug
	case !decision.Accepted:
	    fmt.Println("refused:", decision.Reason())
	default:
	    fmt.Println("inserted", edge.ID)
	}

	// Selection events drive the panel.
	editor.NodeSelected(node)
	state := editor.Session().Snapshot()

# Configuration

NewFromConfig builds an Editor from a config.Config, opening the
configured preferences backend (memory, SQLite or Redis):

	cfg, err := config.Load("flowpanel.yaml", ".env")
	editor, err := flowpanel.NewFromConfig(ctx, cfg, graph, graph, host)

# Error Handling

A refused connection is a Decision, never an error. A malformed proposal
(missing source or target) returns *constraint.InvalidProposalError; in
strict mode it panics instead, so integration bugs surface during
development. Preference failures are logged and never returned.

# Observability

Pass WithLogger, WithMetrics (observability.NewMetricsRecorder or
observability.NewPrometheusMetrics) and WithSpanManager to enable
structured logs, metrics and traces. All default to no-ops except the
logger, which defaults to slog.Default().
*/
package flowpanel
