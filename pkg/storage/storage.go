package storage

import (
	"sort"
	"sync"
)

// Store is an in-memory transactional property-graph backend. It holds
// several named graphs; typing edges may cross graphs. Rewriting
// operations mutate it through Tx so that every operation is applied
// all-or-nothing; concurrent callers are serialized by the store's own
// lock.
type Store struct {
	mu sync.RWMutex

	nodes map[uint64]*Node
	edges map[uint64]*Edge

	// graph name -> identity -> node row
	byIdentity map[string]map[string]uint64

	// adjacency, in edge arrival order
	outgoing map[uint64][]uint64
	incoming map[uint64][]uint64

	// node row -> identity collision counter, owned by the
	// identity resolver
	identitySeq map[uint64]uint64

	nextNodeID uint64
	nextEdgeID uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes:       make(map[uint64]*Node),
		edges:       make(map[uint64]*Edge),
		byIdentity:  make(map[string]map[string]uint64),
		outgoing:    make(map[uint64][]uint64),
		incoming:    make(map[uint64][]uint64),
		identitySeq: make(map[uint64]uint64),
		nextNodeID:  1,
		nextEdgeID:  1,
	}
}

// AddGraph registers a named graph.
func (s *Store) AddGraph(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byIdentity[name]; exists {
		return ErrGraphExists
	}
	s.byIdentity[name] = make(map[string]uint64)
	return nil
}

// HasGraph reports whether the named graph exists.
func (s *Store) HasGraph(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byIdentity[name]
	return ok
}

// RemoveGraph drops a graph with all its nodes and their edges.
func (s *Store) RemoveGraph(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.byIdentity[name]
	if !ok {
		return GraphNotFoundError(name)
	}
	for _, id := range index {
		s.deleteNodeLocked(id)
	}
	delete(s.byIdentity, name)
	return nil
}

// Graphs returns the registered graph names, sorted.
func (s *Store) Graphs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.byIdentity))
	for name := range s.byIdentity {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetNode retrieves a node by row id.
func (s *Store) GetNode(id uint64) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node.Clone(), nil
}

// GetNodeByIdentity retrieves a node by its identity within a graph.
func (s *Store) GetNodeByIdentity(graph, identity string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getNodeByIdentityLocked(graph, identity)
}

func (s *Store) getNodeByIdentityLocked(graph, identity string) (*Node, error) {
	index, ok := s.byIdentity[graph]
	if !ok {
		return nil, GraphNotFoundError(graph)
	}
	id, ok := index[identity]
	if !ok {
		return nil, NodeNotFoundError(graph, identity)
	}
	return s.nodes[id].Clone(), nil
}

// Nodes returns every node of a graph, ordered by row id.
func (s *Store) Nodes(graph string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, ok := s.byIdentity[graph]
	if !ok {
		return nil, GraphNotFoundError(graph)
	}
	ids := make([]uint64, 0, len(index))
	for _, id := range index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = s.nodes[id].Clone()
	}
	return out, nil
}

// GetEdge retrieves an edge by row id.
func (s *Store) GetEdge(id uint64) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, ok := s.edges[id]
	if !ok {
		return nil, ErrEdgeNotFound
	}
	return edge.Clone(), nil
}

// OutEdges returns a node's outgoing edges of the given kind, in
// arrival order.
func (s *Store) OutEdges(nodeID uint64, kind string) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[nodeID]; !ok {
		return nil, ErrNodeNotFound
	}
	return s.collectEdgesLocked(s.outgoing[nodeID], kind), nil
}

// InEdges returns a node's incoming edges of the given kind, in
// arrival order.
func (s *Store) InEdges(nodeID uint64, kind string) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[nodeID]; !ok {
		return nil, ErrNodeNotFound
	}
	return s.collectEdgesLocked(s.incoming[nodeID], kind), nil
}

func (s *Store) collectEdgesLocked(ids []uint64, kind string) []*Edge {
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		e := s.edges[id]
		if e.Kind == kind {
			out = append(out, e.Clone())
		}
	}
	return out
}

// EdgesBetween returns the edges of a kind from one node to another,
// in arrival order.
func (s *Store) EdgesBetween(from, to uint64, kind string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Edge, 0, 1)
	for _, id := range s.outgoing[from] {
		e := s.edges[id]
		if e.To == to && e.Kind == kind {
			out = append(out, e.Clone())
		}
	}
	return out
}

// HasEdge reports whether at least one edge of the kind exists from
// one node to another.
func (s *Store) HasEdge(from, to uint64, kind string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.outgoing[from] {
		e := s.edges[id]
		if e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

// IdentitySeq returns the identity collision counter of a node row.
// Rows that never collided report zero.
func (s *Store) IdentitySeq(nodeID uint64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.identitySeq[nodeID]
}

// NodeCount returns the number of nodes across all graphs.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}

// EdgeCount returns the number of edges of all kinds.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.edges)
}

func (s *Store) allocNodeID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextNodeID
	s.nextNodeID++
	return id
}

func (s *Store) allocEdgeIDLocked() uint64 {
	id := s.nextEdgeID
	s.nextEdgeID++
	return id
}
