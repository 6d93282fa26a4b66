package rewrite

import (
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/dd0wney/cluso-rewrite/pkg/validation"
)

// MergeRequest collapses an ordered node list into one survivor, the
// first element. Name is the requested merged identity; it defaults to
// the sources joined with underscores. A single-element list is a
// degenerate identity rename.
type MergeRequest struct {
	Graph string   `validate:"required,identity"`
	Nodes []string `validate:"min=1,dive,identity"`
	Name  string   `validate:"omitempty,identity"`

	MergeTyping  bool
	IgnoreNaming bool
}

// MergeResult reports the identity the survivor ended up with.
type MergeResult struct {
	Identity string
}

// Merge collapses the nodes into the first one: attributes unioned,
// incident edges regrouped per (direction, neighbor) into simple
// edges, edges among the sources folded into one survivor self-loop,
// the other sources deleted.
func (e *Engine) Merge(req MergeRequest) (*MergeResult, error) {
	start := time.Now()
	log, _ := e.opLogger("merge")

	res, err := e.merge(req)
	e.observe("merge", start, err)
	if err != nil {
		log.Error("merge failed",
			logging.String("graph", req.Graph),
			logging.Strings("nodes", req.Nodes),
			logging.Error(err))
		return nil, err
	}
	log.Info("merge applied",
		logging.String("graph", req.Graph),
		logging.Strings("nodes", req.Nodes),
		logging.String("identity", res.Identity))
	return res, nil
}

func (e *Engine) merge(req MergeRequest) (*MergeResult, error) {
	if len(req.Nodes) == 0 {
		return nil, ErrEmptyMergeList
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	group, err := e.loadMergeGroup(req.Graph, req.Nodes, req.Name, nil)
	if err != nil {
		return nil, err
	}

	tx := e.store.Begin()
	defer tx.Rollback()

	if err := e.applyMerge(tx, []*mergeGroup{group}, req.MergeTyping, req.IgnoreNaming); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.NodesMergedTotal.Add(float64(len(group.sources)))
	}
	return &MergeResult{Identity: group.identity}, nil
}

// mergeGroup is one survivor with its ordered sources; shared between
// the single and batch merge paths.
type mergeGroup struct {
	sources []*storage.Node
	rows    []uint64
	name    string

	// filled while the merge is staged
	identity string
}

func (g *mergeGroup) survivor() *storage.Node { return g.sources[0] }

// loadMergeGroup fetches the sources and checks them against the
// identities already consumed elsewhere in the same batch.
func (e *Engine) loadMergeGroup(graph string, nodes []string, name string, consumed map[string]bool) (*mergeGroup, error) {
	g := &mergeGroup{name: name}
	local := make(map[string]bool, len(nodes))
	for _, identity := range nodes {
		if local[identity] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMergeNode, identity)
		}
		local[identity] = true
		if consumed != nil {
			if consumed[identity] {
				return nil, OverlappingMergeGroupsError(identity)
			}
			consumed[identity] = true
		}

		node, err := e.store.GetNodeByIdentity(graph, identity)
		if err != nil {
			return nil, err
		}
		g.sources = append(g.sources, node)
		g.rows = append(g.rows, node.ID)
	}
	if g.name == "" {
		g.name = strings.Join(nodes, "_")
	}
	return g, nil
}

// groupedEdge is one materialized edge of a merged node: all captured
// parallel edges of a (direction, neighbor) group collapsed together.
type groupedEdge struct {
	row   uint64
	attrs attrs.Dict
}

// applyMerge stages every group of a merge batch on one transaction.
// The pre-merge identity of every source maps to its group's survivor,
// and every neighbor lookup during capture goes through that map, so
// an edge between two groups lands between the two survivors. Capture
// runs before any write and sees pre-operation state only.
func (e *Engine) applyMerge(tx *storage.Tx, groups []*mergeGroup, mergeTyping, ignoreNaming bool) error {
	groupOf := make(map[string]*mergeGroup)
	for _, g := range groups {
		for _, src := range g.sources {
			groupOf[src.Identity] = g
		}
	}

	// Resolve survivor identities first so later groups of the batch
	// see earlier claims.
	for _, g := range groups {
		surv := g.survivor()
		if ignoreNaming {
			g.identity = rowIdentity(surv.ID)
		} else {
			g.identity = resolveIdentity(tx, surv.Graph, g.name, g.rows...)
		}
		if g.identity != surv.Identity {
			if err := tx.SetIdentity(surv.ID, g.identity); err != nil {
				return err
			}
			// a fresh identity has no collision history
			tx.ClearSeq(surv.ID)
		}

		union := attrs.CloneDict(surv.Attrs)
		for _, src := range g.sources[1:] {
			var err error
			union, err = attrs.UnionDicts(union, src.Attrs)
			if err != nil {
				return err
			}
		}
		if err := tx.SetNodeAttrs(surv.ID, union); err != nil {
			return err
		}
	}

	// Capture every incident edge exactly once across the whole batch;
	// an edge between two merged nodes would otherwise be seen from
	// both ends and double-counted.
	captured := make(map[uint64]bool)
	for _, g := range groups {
		var selfAttrs attrs.Dict
		hasSelf := false
		var outOrder, inOrder []string
		outGroups := make(map[string]*groupedEdge)
		inGroups := make(map[string]*groupedEdge)

		for _, src := range g.sources {
			edges, err := captureEdges(e.store, src, storage.KindEdge, nil, nil)
			if err != nil {
				return err
			}
			for _, ce := range edges {
				if captured[ce.edgeID] {
					continue
				}
				captured[ce.edgeID] = true
				tx.DeleteEdge(ce.edgeID)

				neighborGroup := groupOf[ce.neighborIdentity]
				if neighborGroup == g {
					// folds to a self-loop on the survivor
					selfAttrs, err = unionInto(selfAttrs, ce.attrs)
					if err != nil {
						return err
					}
					hasSelf = true
					continue
				}

				key := ce.neighborIdentity
				row := ce.neighborRow
				if neighborGroup != nil {
					key = neighborGroup.survivor().Identity
					row = neighborGroup.survivor().ID
				}
				bucket, order := outGroups, &outOrder
				if ce.dir == dirIn {
					bucket, order = inGroups, &inOrder
				}
				ge, ok := bucket[key]
				if !ok {
					bucket[key] = &groupedEdge{row: row, attrs: attrs.CloneDict(ce.attrs)}
					*order = append(*order, key)
					continue
				}
				ge.attrs, err = unionInto(ge.attrs, ce.attrs)
				if err != nil {
					return err
				}
			}
		}

		surv := g.survivor()
		if hasSelf {
			if _, err := tx.NewEdge(surv.ID, surv.ID, storage.KindEdge, selfAttrs); err != nil {
				return err
			}
		}
		for _, key := range outOrder {
			ge := outGroups[key]
			if _, err := tx.NewEdge(surv.ID, ge.row, storage.KindEdge, ge.attrs); err != nil {
				return err
			}
		}
		for _, key := range inOrder {
			ge := inGroups[key]
			if _, err := tx.NewEdge(ge.row, surv.ID, storage.KindEdge, ge.attrs); err != nil {
				return err
			}
		}

		if mergeTyping {
			for _, src := range g.sources {
				if err := replayTyping(tx, e.store, src, surv.ID); err != nil {
					return err
				}
			}
		}

		for _, src := range g.sources[1:] {
			tx.DeleteNode(src.ID)
		}
	}
	return nil
}

func unionInto(dst, d attrs.Dict) (attrs.Dict, error) {
	if dst == nil {
		return attrs.CloneDict(d), nil
	}
	return attrs.UnionDicts(dst, d)
}
