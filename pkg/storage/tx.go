package storage

import (
	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
)

type identKey struct {
	graph    string
	identity string
}

type identClaim struct {
	key identKey
	row uint64
}

// Tx is a buffered write set applied to the store all-or-nothing. A
// rewriting operation does all its reads against the committed state,
// stages every write on the Tx, and commits once; nothing partial is
// ever observable. A Tx is used by a single goroutine.
type Tx struct {
	st *Store

	createdNodes []*Node
	createdEdges []*Edge
	stagedNodes  map[uint64]*Node

	deletedNodes map[uint64]bool
	deletedEdges map[uint64]bool

	renames  map[uint64]string
	attrSets map[uint64]attrs.Dict

	seq        map[uint64]uint64
	seqCleared map[uint64]bool

	claims []identClaim

	closed bool
}

// Begin starts a transaction against the store.
func (s *Store) Begin() *Tx {
	return &Tx{
		st:           s,
		stagedNodes:  make(map[uint64]*Node),
		deletedNodes: make(map[uint64]bool),
		deletedEdges: make(map[uint64]bool),
		renames:      make(map[uint64]string),
		attrSets:     make(map[uint64]attrs.Dict),
		seq:          make(map[uint64]uint64),
		seqCleared:   make(map[uint64]bool),
	}
}

// NewNode stages the creation of a node. The row id is allocated
// immediately so the node can be referenced by staged edges and by
// ignore-naming identity assignment; identity may still be empty here
// but must be set before commit.
func (tx *Tx) NewNode(graph, identity string, d attrs.Dict) (*Node, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	if !tx.st.HasGraph(graph) {
		return nil, GraphNotFoundError(graph)
	}
	if err := attrs.ValidateDict(d); err != nil {
		return nil, err
	}

	node := &Node{
		ID:       tx.st.allocNodeID(),
		Graph:    graph,
		Identity: identity,
		Attrs:    attrs.CloneDict(d),
	}
	tx.createdNodes = append(tx.createdNodes, node)
	tx.stagedNodes[node.ID] = node
	if identity != "" {
		tx.claims = append(tx.claims, identClaim{identKey{graph, identity}, node.ID})
	}
	return node, nil
}

// SetIdentity stages an identity assignment: either naming a staged
// node or renaming an existing row.
func (tx *Tx) SetIdentity(nodeID uint64, identity string) error {
	if tx.closed {
		return ErrTxClosed
	}
	if identity == "" {
		return ErrEmptyIdentity
	}

	if staged, ok := tx.stagedNodes[nodeID]; ok {
		tx.dropClaims(nodeID)
		staged.Identity = identity
		tx.claims = append(tx.claims, identClaim{identKey{staged.Graph, identity}, nodeID})
		return nil
	}

	node, err := tx.st.GetNode(nodeID)
	if err != nil {
		return err
	}
	tx.dropClaims(nodeID)
	tx.renames[nodeID] = identity
	tx.claims = append(tx.claims, identClaim{identKey{node.Graph, identity}, nodeID})
	return nil
}

func (tx *Tx) dropClaims(nodeID uint64) {
	kept := tx.claims[:0]
	for _, c := range tx.claims {
		if c.row != nodeID {
			kept = append(kept, c)
		}
	}
	tx.claims = kept
}

// LookupIdentity resolves an identity within a graph against the
// transaction's view: staged claims shadow the store, staged deletions
// and renames free the identities they leave behind. Rows listed in
// exclude are invisible, which lets a merge resolve its survivor's
// identity as if the consumed sources were already gone.
func (tx *Tx) LookupIdentity(graph, identity string, exclude ...uint64) (*Node, bool) {
	excluded := func(row uint64) bool {
		for _, e := range exclude {
			if e == row {
				return true
			}
		}
		return false
	}

	for _, c := range tx.claims {
		if c.key.graph == graph && c.key.identity == identity && !excluded(c.row) {
			if staged, ok := tx.stagedNodes[c.row]; ok {
				return staged.Clone(), true
			}
			node, err := tx.st.GetNode(c.row)
			if err != nil {
				continue
			}
			node.Identity = identity
			return node, true
		}
	}

	node, err := tx.st.GetNodeByIdentity(graph, identity)
	if err != nil {
		return nil, false
	}
	if tx.deletedNodes[node.ID] || excluded(node.ID) {
		return nil, false
	}
	if _, renamed := tx.renames[node.ID]; renamed {
		return nil, false
	}
	return node, true
}

// BumpSeq advances the identity collision counter of a node row within
// the transaction and returns the new value. The committed counter
// only moves if the transaction commits.
func (tx *Tx) BumpSeq(nodeID uint64) uint64 {
	v, ok := tx.seq[nodeID]
	if !ok && !tx.seqCleared[nodeID] {
		if _, staged := tx.stagedNodes[nodeID]; !staged {
			v = tx.st.IdentitySeq(nodeID)
		}
	}
	v++
	tx.seq[nodeID] = v
	delete(tx.seqCleared, nodeID)
	return v
}

// ClearSeq stages removal of a node's collision counter, as done for a
// fresh clone or a renamed merge survivor.
func (tx *Tx) ClearSeq(nodeID uint64) {
	delete(tx.seq, nodeID)
	tx.seqCleared[nodeID] = true
}

// SetNodeAttrs stages a full replacement of a node's attribute view.
func (tx *Tx) SetNodeAttrs(nodeID uint64, d attrs.Dict) error {
	if tx.closed {
		return ErrTxClosed
	}
	if err := attrs.ValidateDict(d); err != nil {
		return err
	}
	if staged, ok := tx.stagedNodes[nodeID]; ok {
		staged.Attrs = attrs.CloneDict(d)
		return nil
	}
	tx.attrSets[nodeID] = attrs.CloneDict(d)
	return nil
}

// NewEdge stages creation of an edge; endpoints may be staged rows.
// The edge row id is assigned at commit.
func (tx *Tx) NewEdge(from, to uint64, kind string, d attrs.Dict) (*Edge, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	if err := attrs.ValidateDict(d); err != nil {
		return nil, err
	}
	edge := &Edge{
		From:  from,
		To:    to,
		Kind:  kind,
		Attrs: attrs.CloneDict(d),
	}
	tx.createdEdges = append(tx.createdEdges, edge)
	return edge, nil
}

// EnsureEdge stages creation of an edge unless one of the same kind
// already exists between the endpoints, either staged in this
// transaction or live in the store. Reports whether a new edge was
// staged.
func (tx *Tx) EnsureEdge(from, to uint64, kind string, d attrs.Dict) (*Edge, bool, error) {
	for _, e := range tx.createdEdges {
		if e.From == from && e.To == to && e.Kind == kind {
			return e, false, nil
		}
	}
	for _, e := range tx.st.EdgesBetween(from, to, kind) {
		if !tx.deletedEdges[e.ID] {
			return e, false, nil
		}
	}
	edge, err := tx.NewEdge(from, to, kind, d)
	if err != nil {
		return nil, false, err
	}
	return edge, true, nil
}

// DeleteNode stages deletion of an existing row; its incident edges go
// with it at commit.
func (tx *Tx) DeleteNode(nodeID uint64) {
	tx.deletedNodes[nodeID] = true
}

// DeleteEdge stages deletion of an existing edge row.
func (tx *Tx) DeleteEdge(edgeID uint64) {
	tx.deletedEdges[edgeID] = true
}

// Rollback discards every staged write.
func (tx *Tx) Rollback() {
	tx.closed = true
}

// Commit validates the staged write set and applies it under one store
// lock. On any validation error nothing is applied.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true

	s := tx.st
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := tx.validateLocked(); err != nil {
		return err
	}

	for edgeID := range tx.deletedEdges {
		s.deleteEdgeLocked(edgeID)
	}
	for nodeID := range tx.deletedNodes {
		if _, ok := s.nodes[nodeID]; ok {
			s.deleteNodeLocked(nodeID)
		}
	}
	// two phases so renames that swap or chain identities do not
	// clobber each other's index entries
	for nodeID := range tx.renames {
		if node, ok := s.nodes[nodeID]; ok {
			delete(s.byIdentity[node.Graph], node.Identity)
		}
	}
	for nodeID, identity := range tx.renames {
		node, ok := s.nodes[nodeID]
		if !ok {
			continue
		}
		node.Identity = identity
		s.byIdentity[node.Graph][identity] = nodeID
	}
	for nodeID, d := range tx.attrSets {
		if node, ok := s.nodes[nodeID]; ok {
			node.Attrs = d
		}
	}
	for _, node := range tx.createdNodes {
		s.insertNodeLocked(node)
	}
	for _, edge := range tx.createdEdges {
		edge.ID = s.allocEdgeIDLocked()
		s.insertEdgeLocked(edge)
	}
	for nodeID, v := range tx.seq {
		if _, ok := s.nodes[nodeID]; ok {
			s.identitySeq[nodeID] = v
		}
	}
	for nodeID := range tx.seqCleared {
		delete(s.identitySeq, nodeID)
	}
	return nil
}

func (tx *Tx) validateLocked() error {
	s := tx.st

	for nodeID := range tx.deletedNodes {
		if _, ok := s.nodes[nodeID]; !ok {
			return ErrNodeNotFound
		}
	}
	for edgeID := range tx.deletedEdges {
		if _, ok := s.edges[edgeID]; !ok {
			return ErrEdgeNotFound
		}
	}

	for _, node := range tx.createdNodes {
		if node.Identity == "" {
			return ErrEmptyIdentity
		}
		if _, ok := s.byIdentity[node.Graph]; !ok {
			return GraphNotFoundError(node.Graph)
		}
	}

	// Identity uniqueness against the post-commit state: deletions
	// and renames free the identities they leave behind.
	seen := make(map[identKey]uint64, len(tx.claims))
	for _, c := range tx.claims {
		if prev, dup := seen[c.key]; dup && prev != c.row {
			return IdentityConflictError(c.key.graph, c.key.identity)
		}
		seen[c.key] = c.row

		index, ok := s.byIdentity[c.key.graph]
		if !ok {
			return GraphNotFoundError(c.key.graph)
		}
		if row, taken := index[c.key.identity]; taken && row != c.row {
			if !tx.deletedNodes[row] {
				if _, renamed := tx.renames[row]; !renamed {
					return IdentityConflictError(c.key.graph, c.key.identity)
				}
			}
		}
	}

	nodeAlive := func(id uint64) bool {
		if _, staged := tx.stagedNodes[id]; staged {
			return true
		}
		if _, ok := s.nodes[id]; ok {
			return !tx.deletedNodes[id]
		}
		return false
	}
	for _, edge := range tx.createdEdges {
		if !nodeAlive(edge.From) || !nodeAlive(edge.To) {
			return ErrNodeNotFound
		}
	}
	return nil
}
