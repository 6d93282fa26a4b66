package storage

import (
	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
)

// CreateNode creates a node with the given identity in a graph. The
// identity must be free; callers wanting automatic disambiguation go
// through the rewriting layer instead.
func (s *Store) CreateNode(graph, identity string, d attrs.Dict) (*Node, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	if err := attrs.ValidateDict(d); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.byIdentity[graph]
	if !ok {
		return nil, GraphNotFoundError(graph)
	}
	if _, taken := index[identity]; taken {
		return nil, IdentityConflictError(graph, identity)
	}

	node := &Node{
		ID:       s.nextNodeID,
		Graph:    graph,
		Identity: identity,
		Attrs:    attrs.CloneDict(d),
	}
	s.nextNodeID++

	s.insertNodeLocked(node)
	return node.Clone(), nil
}

// DeleteNode deletes a node and every edge incident to it.
func (s *Store) DeleteNode(nodeID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[nodeID]; !ok {
		return ErrNodeNotFound
	}
	s.deleteNodeLocked(nodeID)
	return nil
}

// AddNodeAttrs adds attribute values to a node (union semantics).
func (s *Store) AddNodeAttrs(nodeID uint64, d attrs.Dict) error {
	if err := attrs.ValidateDict(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return ErrNodeNotFound
	}
	if node.Attrs == nil {
		node.Attrs = make(attrs.Dict, len(d))
	}
	for name, set := range d {
		if err := attrs.ApplyAdd(node.Attrs, name, set); err != nil {
			return err
		}
	}
	return nil
}

// RemoveNodeAttrs removes attribute values from a node. Attributes
// that end up empty are dropped entirely.
func (s *Store) RemoveNodeAttrs(nodeID uint64, d attrs.Dict) error {
	if err := attrs.ValidateDict(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return ErrNodeNotFound
	}
	for name, set := range d {
		if err := attrs.ApplyRemove(node.Attrs, name, set); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertNodeLocked(node *Node) {
	s.nodes[node.ID] = node
	s.byIdentity[node.Graph][node.Identity] = node.ID
	s.outgoing[node.ID] = make([]uint64, 0)
	s.incoming[node.ID] = make([]uint64, 0)
}

func (s *Store) deleteNodeLocked(nodeID uint64) {
	node := s.nodes[nodeID]

	for _, edgeID := range append([]uint64{}, s.outgoing[nodeID]...) {
		s.deleteEdgeLocked(edgeID)
	}
	for _, edgeID := range append([]uint64{}, s.incoming[nodeID]...) {
		s.deleteEdgeLocked(edgeID)
	}

	if index, ok := s.byIdentity[node.Graph]; ok {
		delete(index, node.Identity)
	}
	delete(s.outgoing, nodeID)
	delete(s.incoming, nodeID)
	delete(s.identitySeq, nodeID)
	delete(s.nodes, nodeID)
}
