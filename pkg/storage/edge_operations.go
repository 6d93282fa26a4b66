package storage

import (
	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
)

// CreateEdge creates a directed edge between two existing nodes.
func (s *Store) CreateEdge(from, to uint64, kind string, d attrs.Dict) (*Edge, error) {
	if err := attrs.ValidateDict(d); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[from]; !ok {
		return nil, ErrNodeNotFound
	}
	if _, ok := s.nodes[to]; !ok {
		return nil, ErrNodeNotFound
	}

	edge := &Edge{
		ID:    s.allocEdgeIDLocked(),
		From:  from,
		To:    to,
		Kind:  kind,
		Attrs: attrs.CloneDict(d),
	}
	s.insertEdgeLocked(edge)
	return edge.Clone(), nil
}

// DeleteEdge deletes an edge by row id.
func (s *Store) DeleteEdge(edgeID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[edgeID]; !ok {
		return ErrEdgeNotFound
	}
	s.deleteEdgeLocked(edgeID)
	return nil
}

// AddEdgeAttrs adds attribute values to an edge (union semantics).
func (s *Store) AddEdgeAttrs(edgeID uint64, d attrs.Dict) error {
	if err := attrs.ValidateDict(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edge, ok := s.edges[edgeID]
	if !ok {
		return ErrEdgeNotFound
	}
	if edge.Attrs == nil {
		edge.Attrs = make(attrs.Dict, len(d))
	}
	for name, set := range d {
		if err := attrs.ApplyAdd(edge.Attrs, name, set); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEdgeAttrs removes attribute values from an edge, compacting
// attributes that end up empty.
func (s *Store) RemoveEdgeAttrs(edgeID uint64, d attrs.Dict) error {
	if err := attrs.ValidateDict(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edge, ok := s.edges[edgeID]
	if !ok {
		return ErrEdgeNotFound
	}
	for name, set := range d {
		if err := attrs.ApplyRemove(edge.Attrs, name, set); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertEdgeLocked(edge *Edge) {
	s.edges[edge.ID] = edge
	s.outgoing[edge.From] = append(s.outgoing[edge.From], edge.ID)
	s.incoming[edge.To] = append(s.incoming[edge.To], edge.ID)
}

func (s *Store) deleteEdgeLocked(edgeID uint64) {
	edge, ok := s.edges[edgeID]
	if !ok {
		// self-loops show up in both adjacency lists
		return
	}
	delete(s.edges, edgeID)
	s.outgoing[edge.From] = removeID(s.outgoing[edge.From], edgeID)
	s.incoming[edge.To] = removeID(s.incoming[edge.To], edgeID)
}

func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
