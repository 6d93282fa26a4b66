package rewrite

import (
	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
)

type direction uint8

const (
	dirOut direction = iota
	dirIn
)

// capturedEdge is one incident edge of a node about to be cloned or
// merged away, recorded before any mutation so that replay sees
// pre-operation state.
type capturedEdge struct {
	edgeID           uint64
	dir              direction
	neighborRow      uint64
	neighborIdentity string
	self             bool
	attrs            attrs.Dict
}

// captureEdges records a node's incident edges of the given kind in
// arrival order, outgoing first, skipping neighbors named by the
// ignore lists. A self-loop sits in both adjacency lists of its node;
// it is captured once, as outgoing.
func captureEdges(st *storage.Store, node *storage.Node, kind string, ignoreSucc, ignorePred []string) ([]capturedEdge, error) {
	ignoreOut := toSet(ignoreSucc)
	ignoreIn := toSet(ignorePred)

	var captured []capturedEdge
	seen := make(map[uint64]bool)

	out, err := st.OutEdges(node.ID, kind)
	if err != nil {
		return nil, err
	}
	for _, e := range out {
		ident, err := neighborIdentity(st, node, e.To)
		if err != nil {
			return nil, err
		}
		if ignoreOut[ident] {
			continue
		}
		seen[e.ID] = true
		captured = append(captured, capturedEdge{
			edgeID:           e.ID,
			dir:              dirOut,
			neighborRow:      e.To,
			neighborIdentity: ident,
			self:             e.To == node.ID,
			attrs:            e.Attrs,
		})
	}

	in, err := st.InEdges(node.ID, kind)
	if err != nil {
		return nil, err
	}
	for _, e := range in {
		if seen[e.ID] {
			continue
		}
		ident, err := neighborIdentity(st, node, e.From)
		if err != nil {
			return nil, err
		}
		if ignoreIn[ident] {
			continue
		}
		captured = append(captured, capturedEdge{
			edgeID:           e.ID,
			dir:              dirIn,
			neighborRow:      e.From,
			neighborIdentity: ident,
			self:             e.From == node.ID,
			attrs:            e.Attrs,
		})
	}
	return captured, nil
}

func neighborIdentity(st *storage.Store, node *storage.Node, row uint64) (string, error) {
	if row == node.ID {
		return node.Identity, nil
	}
	n, err := st.GetNode(row)
	if err != nil {
		return "", err
	}
	return n.Identity, nil
}

// replayOnClone recreates every captured edge between a clone and the
// original neighbor. A captured self-loop folds to a self-loop on the
// clone; a clone never gains an edge back to its source otherwise. In
// batch mode fanout maps a co-cloned neighbor's identity to the rows
// the edge must fan out across (its clones plus the original), and
// replay ensures rather than blindly creates, since a co-cloned pair
// replays the shared edge from both sides.
func replayOnClone(tx *storage.Tx, cloneRow uint64, captured []capturedEdge, fanout map[string][]uint64) error {
	for _, ce := range captured {
		if ce.self {
			if err := stage(tx, cloneRow, cloneRow, ce.attrs, fanout != nil); err != nil {
				return err
			}
			continue
		}
		targets := []uint64{ce.neighborRow}
		if fanout != nil {
			if rows, ok := fanout[ce.neighborIdentity]; ok {
				targets = rows
			}
		}
		for _, target := range targets {
			var err error
			if ce.dir == dirOut {
				err = stage(tx, cloneRow, target, ce.attrs, fanout != nil)
			} else {
				err = stage(tx, target, cloneRow, ce.attrs, fanout != nil)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// stage creates an edge, idempotently when ensure is set.
func stage(tx *storage.Tx, from, to uint64, d attrs.Dict, ensure bool) error {
	if ensure {
		_, _, err := tx.EnsureEdge(from, to, storage.KindEdge, d)
		return err
	}
	_, err := tx.NewEdge(from, to, storage.KindEdge, d)
	return err
}

// replayTyping re-attaches a node's typing edges to a derived row.
// Typing edges carry no attributes and are always ensured, never
// duplicated.
func replayTyping(tx *storage.Tx, st *storage.Store, source *storage.Node, derivedRow uint64) error {
	out, err := st.OutEdges(source.ID, storage.KindTyping)
	if err != nil {
		return err
	}
	for _, e := range out {
		if _, _, err := tx.EnsureEdge(derivedRow, e.To, storage.KindTyping, nil); err != nil {
			return err
		}
	}
	in, err := st.InEdges(source.ID, storage.KindTyping)
	if err != nil {
		return err
	}
	for _, e := range in {
		if e.From == source.ID {
			continue
		}
		if _, _, err := tx.EnsureEdge(e.From, derivedRow, storage.KindTyping, nil); err != nil {
			return err
		}
	}
	return nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}
