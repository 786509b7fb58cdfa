// Package diagram defines the workflow-diagram data model shared by the
// editing core: typed nodes, directed edges, the node/edge tagged union used
// by selection, ordered custom property bags, and the query and mutation
// surfaces implemented by the external canvas.
//
// The canvas owns nodes and edges. The core only reads snapshots through
// GraphQuery and writes partial updates through GraphMutator.
package diagram
