package storage

import (
	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
)

// Edge kinds. Plain edges carry attributes; typing edges relate a node
// to the node that types it in another graph and carry none.
const (
	KindEdge   = "edge"
	KindTyping = "typing"
)

// Node is a vertex row. ID is the backend row identifier; Identity is
// the node's stable string identity, unique within its graph at any
// committed point. The identity collision counter lives beside the row
// (see Store.IdentitySeq), never in the attribute view.
type Node struct {
	ID       uint64
	Graph    string
	Identity string
	Attrs    attrs.Dict
}

// Clone creates a deep copy of a node.
func (n *Node) Clone() *Node {
	return &Node{
		ID:       n.ID,
		Graph:    n.Graph,
		Identity: n.Identity,
		Attrs:    attrs.CloneDict(n.Attrs),
	}
}

// Edge is a directed relationship row. Multi-edges between the same
// ordered pair are structurally allowed.
type Edge struct {
	ID    uint64
	From  uint64
	To    uint64
	Kind  string
	Attrs attrs.Dict
}

// Clone creates a deep copy of an edge.
func (e *Edge) Clone() *Edge {
	return &Edge{
		ID:    e.ID,
		From:  e.From,
		To:    e.To,
		Kind:  e.Kind,
		Attrs: attrs.CloneDict(e.Attrs),
	}
}
