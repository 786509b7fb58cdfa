package constraint_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// types builds a resolver from a fixed id -> type table.
func types(m map[string]diagram.NodeType) constraint.TypeResolver {
	return func(id string) (diagram.NodeType, bool) {
		t, ok := m[id]
		return t, ok
	}
}

func fanOut(source string, n int) []diagram.Edge {
	edges := make([]diagram.Edge, n)
	for i := range edges {
		edges[i] = diagram.Edge{
			ID:     fmt.Sprintf("e%d", i),
			Source: source,
			Target: fmt.Sprintf("t%d", i),
		}
	}
	return edges
}

func TestCanConnect_SourceMaxBoundary(t *testing.T) {
	for _, k := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			cat := constraint.NewCatalog(map[diagram.NodeType]constraint.NodeLimits{
				"limited": {SourceMax: constraint.Bound(k)},
			})
			v := constraint.NewValidator(cat)
			resolve := types(map[string]diagram.NodeType{"n": "limited"})

			if k > 0 {
				d, err := v.CanConnect(fanOut("n", k-1), constraint.Proposal{SourceNodeID: "n", TargetNodeID: "x"}, resolve)
				require.NoError(t, err)
				assert.True(t, d.Accepted, "k-th edge must be accepted")
			}

			d, err := v.CanConnect(fanOut("n", k), constraint.Proposal{SourceNodeID: "n", TargetNodeID: "x"}, resolve)
			require.NoError(t, err)
			assert.False(t, d.Accepted)
			assert.Equal(t, constraint.ReasonSourceMaxExceeded, d.Reason())
			assert.Equal(t, k, d.Rejection.Limit)
			assert.Equal(t, k, d.Rejection.Count)
		})
	}
}

func TestCanConnect_ConditionAllowsTenOutgoing(t *testing.T) {
	g := diagram.NewMemoryGraph([]diagram.Node{{ID: "cond", Type: diagram.TypeCondition}}, nil)
	for i := 0; i < 11; i++ {
		g.AddNode(diagram.Node{ID: fmt.Sprintf("a%d", i), Type: diagram.TypeAction})
	}
	v := constraint.NewValidator(constraint.DefaultCatalog())

	for i := 0; i < 10; i++ {
		p := constraint.Proposal{SourceNodeID: "cond", TargetNodeID: fmt.Sprintf("a%d", i)}
		d, err := v.CanConnect(g.Edges(), p, g.NodeTypeOf)
		require.NoError(t, err)
		require.True(t, d.Accepted, "edge %d", i+1)
		g.InsertEdge(diagram.Edge{ID: fmt.Sprintf("e%d", i), Source: p.SourceNodeID, Target: p.TargetNodeID})
	}

	d, err := v.CanConnect(g.Edges(), constraint.Proposal{SourceNodeID: "cond", TargetNodeID: "a10"}, g.NodeTypeOf)
	require.NoError(t, err)
	assert.False(t, d.Accepted)
	assert.Equal(t, constraint.ReasonSourceMaxExceeded, d.Reason())
	assert.Equal(t, "cond", d.Rejection.NodeID)
}

func TestCanConnect_EndAcceptsOneIncoming(t *testing.T) {
	g := diagram.NewMemoryGraph([]diagram.Node{
		{ID: "a", Type: diagram.TypeAction},
		{ID: "b", Type: diagram.TypeAction},
		{ID: "end", Type: diagram.TypeEnd},
	}, nil)
	v := constraint.NewValidator(constraint.DefaultCatalog())

	d, err := v.CanConnect(g.Edges(), constraint.Proposal{SourceNodeID: "a", TargetNodeID: "end"}, g.NodeTypeOf)
	require.NoError(t, err)
	require.True(t, d.Accepted)
	g.InsertEdge(diagram.Edge{ID: "e1", Source: "a", Target: "end"})

	d, err = v.CanConnect(g.Edges(), constraint.Proposal{SourceNodeID: "b", TargetNodeID: "end"}, g.NodeTypeOf)
	require.NoError(t, err)
	assert.False(t, d.Accepted)
	assert.Equal(t, constraint.ReasonTargetMaxExceeded, d.Reason())
	assert.Equal(t, "end", d.Rejection.NodeID)
	assert.Equal(t, 1, d.Rejection.Limit)
}

func TestCanConnect_HandleLimitTighterThanNode(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())
	resolve := types(map[string]diagram.NodeType{"cond": diagram.TypeCondition})
	existing := []diagram.Edge{
		{ID: "e1", Source: "cond", SourceHandle: "true", Target: "x"},
	}

	d, err := v.CanConnect(existing, constraint.Proposal{
		SourceNodeID: "cond", SourceHandleID: "true", TargetNodeID: "y",
	}, resolve)
	require.NoError(t, err)
	assert.False(t, d.Accepted, "node allows 10 but the handle allows 1")
	assert.Equal(t, constraint.ReasonHandleMaxExceeded, d.Reason())
	assert.Equal(t, "true", d.Rejection.HandleID)

	d, err = v.CanConnect(existing, constraint.Proposal{
		SourceNodeID: "cond", SourceHandleID: "false", TargetNodeID: "y",
	}, resolve)
	require.NoError(t, err)
	assert.True(t, d.Accepted, "other handle is still free")
}

func TestCanConnect_NodeLimitTighterThanHandle(t *testing.T) {
	cat := constraint.NewCatalog(map[diagram.NodeType]constraint.NodeLimits{
		"split": {
			SourceMax: constraint.Bound(1),
			Handles: map[string]constraint.HandleLimit{
				"out": {Max: 5, Direction: constraint.DirectionSource},
			},
		},
	})
	v := constraint.NewValidator(cat)
	resolve := types(map[string]diagram.NodeType{"s": "split"})
	existing := []diagram.Edge{{ID: "e1", Source: "s", SourceHandle: "out", Target: "x"}}

	d, err := v.CanConnect(existing, constraint.Proposal{
		SourceNodeID: "s", SourceHandleID: "out", TargetNodeID: "y",
	}, resolve)
	require.NoError(t, err)
	assert.Equal(t, constraint.ReasonSourceMaxExceeded, d.Reason())
}

func TestCanConnect_TargetHandle(t *testing.T) {
	cat := constraint.NewCatalog(map[diagram.NodeType]constraint.NodeLimits{
		"merge": {
			Handles: map[string]constraint.HandleLimit{
				"primary": {Max: 1, Direction: constraint.DirectionTarget},
			},
		},
	})
	v := constraint.NewValidator(cat)
	resolve := types(map[string]diagram.NodeType{"m": "merge"})
	existing := []diagram.Edge{{ID: "e1", Source: "a", Target: "m", TargetHandle: "primary"}}

	d, err := v.CanConnect(existing, constraint.Proposal{
		SourceNodeID: "b", TargetNodeID: "m", TargetHandleID: "primary",
	}, resolve)
	require.NoError(t, err)
	assert.Equal(t, constraint.ReasonHandleMaxExceeded, d.Reason())
	assert.Equal(t, "m", d.Rejection.NodeID)

	d, err = v.CanConnect(existing, constraint.Proposal{
		SourceNodeID: "b", TargetNodeID: "m", TargetHandleID: "secondary",
	}, resolve)
	require.NoError(t, err)
	assert.True(t, d.Accepted)
}

func TestCanConnect_SelfLoopRejectedByDefault(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())
	assert.False(t, v.AllowsSelfLoops())

	d, err := v.CanConnect(nil, constraint.Proposal{SourceNodeID: "n", TargetNodeID: "n"}, types(nil))
	require.NoError(t, err)
	assert.False(t, d.Accepted)
	assert.Equal(t, constraint.ReasonSelfConnection, d.Reason())
}

func TestCanConnect_SelfLoopAllowedUsesCapacity(t *testing.T) {
	cat := constraint.NewCatalog(map[diagram.NodeType]constraint.NodeLimits{
		"loop": {TargetMax: constraint.Bound(1)},
	})
	v := constraint.NewValidator(cat, constraint.WithSelfLoops(true))
	resolve := types(map[string]diagram.NodeType{"n": "loop"})

	d, err := v.CanConnect(nil, constraint.Proposal{SourceNodeID: "n", TargetNodeID: "n"}, resolve)
	require.NoError(t, err)
	assert.True(t, d.Accepted)

	existing := []diagram.Edge{{ID: "e1", Source: "n", Target: "n"}}
	d, err = v.CanConnect(existing, constraint.Proposal{SourceNodeID: "n", TargetNodeID: "n"}, resolve)
	require.NoError(t, err)
	assert.Equal(t, constraint.ReasonTargetMaxExceeded, d.Reason())
}

func TestCanConnect_UnknownNodesAreUnlimited(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())
	d, err := v.CanConnect(fanOut("ghost", 50), constraint.Proposal{SourceNodeID: "ghost", TargetNodeID: "x"}, types(nil))
	require.NoError(t, err)
	assert.True(t, d.Accepted)
}

func TestCanConnect_InvalidProposal(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())

	tests := []struct {
		name  string
		p     constraint.Proposal
		field string
	}{
		{"missing source", constraint.Proposal{TargetNodeID: "b"}, "source"},
		{"missing target", constraint.Proposal{SourceNodeID: "a"}, "target"},
		{"missing both", constraint.Proposal{}, "source"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := v.CanConnect(nil, tc.p, types(nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, constraint.ErrInvalidProposal)

			var ipe *constraint.InvalidProposalError
			require.ErrorAs(t, err, &ipe)
			assert.Equal(t, tc.field, ipe.Field)

			assert.False(t, d.Accepted)
			assert.Nil(t, d.Rejection, "invalid input is not a policy rejection")
		})
	}
}

func TestCanConnect_NilResolver(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())
	_, err := v.CanConnect(nil, constraint.Proposal{SourceNodeID: "a", TargetNodeID: "b"}, nil)
	assert.ErrorIs(t, err, constraint.ErrNilResolver)
}

func TestCanConnect_Pure(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())
	resolve := types(map[string]diagram.NodeType{"end": diagram.TypeEnd})
	existing := []diagram.Edge{{ID: "e1", Source: "a", Target: "end"}}
	snapshot := append([]diagram.Edge(nil), existing...)

	first, err := v.CanConnect(existing, constraint.Proposal{SourceNodeID: "b", TargetNodeID: "end"}, resolve)
	require.NoError(t, err)
	second, err := v.CanConnect(existing, constraint.Proposal{SourceNodeID: "b", TargetNodeID: "end"}, resolve)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, existing)
}

func TestCanConnect_Concurrent(t *testing.T) {
	v := constraint.NewValidator(constraint.DefaultCatalog())
	resolve := types(map[string]diagram.NodeType{"cond": diagram.TypeCondition})
	existing := fanOut("cond", 9)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := v.CanConnect(existing, constraint.Proposal{SourceNodeID: "cond", TargetNodeID: "z"}, resolve)
			assert.NoError(t, err)
			assert.True(t, d.Accepted)
		}()
	}
	wg.Wait()
}

func TestRejection_Error(t *testing.T) {
	r := &constraint.Rejection{Reason: constraint.ReasonHandleMaxExceeded, NodeID: "c", HandleID: "true", Limit: 1, Count: 1}
	assert.Equal(t, "handle-max-exceeded: node c handle true allows 1 (has 1)", r.Error())

	r = &constraint.Rejection{Reason: constraint.ReasonSelfConnection, NodeID: "n"}
	assert.Contains(t, r.Error(), "cannot connect to itself")
}

func TestProposalFor(t *testing.T) {
	p := constraint.ProposalFor(diagram.Edge{Source: "a", SourceHandle: "h1", Target: "b", TargetHandle: "h2"})
	assert.Equal(t, constraint.Proposal{SourceNodeID: "a", SourceHandleID: "h1", TargetNodeID: "b", TargetHandleID: "h2"}, p)
}
