package rewrite

import (
	"fmt"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
)

// PatternNode is one vertex of a pattern. Attrs holds required
// attributes: a host node matches only if, for every key, its own
// attribute set contains every value listed here.
type PatternNode struct {
	ID    string
	Attrs attrs.Dict
}

// PatternEdge is one required directed edge between two pattern nodes.
type PatternEdge struct {
	From string
	To   string
}

// Pattern is a small graph used only for matching, never persisted.
type Pattern struct {
	Nodes []PatternNode
	Edges []PatternEdge
}

// NewPattern creates an empty pattern.
func NewPattern() *Pattern {
	return &Pattern{}
}

// AddNode appends a pattern node; d may be nil for an unconstrained
// node. Returns the pattern for chaining.
func (p *Pattern) AddNode(id string, d attrs.Dict) *Pattern {
	p.Nodes = append(p.Nodes, PatternNode{ID: id, Attrs: attrs.CloneDict(d)})
	return p
}

// AddEdge appends a required directed edge between two pattern nodes.
func (p *Pattern) AddEdge(from, to string) *Pattern {
	p.Edges = append(p.Edges, PatternEdge{From: from, To: to})
	return p
}

// validate checks node ids are unique and edges reference declared
// nodes.
func (p *Pattern) validate() error {
	ids := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicatePatternNode, n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range p.Edges {
		if !ids[e.From] {
			return fmt.Errorf("%w: %q", ErrUnknownPatternNode, e.From)
		}
		if !ids[e.To] {
			return fmt.Errorf("%w: %q", ErrUnknownPatternNode, e.To)
		}
	}
	return nil
}

// Instance binds each pattern node id to a host node identity.
type Instance map[string]string
