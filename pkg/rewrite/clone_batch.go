package rewrite

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/dd0wney/cluso-rewrite/pkg/validation"
)

// CloneItem is one node of a clone batch.
type CloneItem struct {
	Node  string `validate:"required,identity"`
	Name  string `validate:"omitempty,identity"`
	Count int    `validate:"min=0"`

	IgnoreSuccessors   []string
	IgnorePredecessors []string
}

// BatchCloneRequest clones several nodes in one atomic pass. Edges
// between two co-cloned nodes fan out across every clone combination
// instead of dangling on stale neighbors.
type BatchCloneRequest struct {
	Graph string      `validate:"required,identity"`
	Items []CloneItem `validate:"min=1,dive"`

	PreserveTyping bool
	IgnoreNaming   bool
}

// BatchCloneResult maps each cloned node's identity to the identities
// of its clones, in creation order.
type BatchCloneResult struct {
	Clones map[string][]string
}

// BatchClone clones every item in one transaction. The whole batch
// first stages its clone rows, building the map from each co-cloned
// identity to its clone rows plus the original; edge replay then
// resolves every neighbor through that map, so an edge between two
// batch members lands on the full cross product of their clones.
func (e *Engine) BatchClone(req BatchCloneRequest) (*BatchCloneResult, error) {
	start := time.Now()
	log, _ := e.opLogger("batch_clone")

	res, err := e.batchClone(req)
	e.observe("batch_clone", start, err)
	if err != nil {
		log.Error("batch clone failed",
			logging.String("graph", req.Graph),
			logging.Int("items", len(req.Items)),
			logging.Error(err))
		return nil, err
	}
	log.Info("batch clone applied",
		logging.String("graph", req.Graph),
		logging.Int("items", len(req.Items)))
	return res, nil
}

func (e *Engine) batchClone(req BatchCloneRequest) (*BatchCloneResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if len(req.Items) > e.cfg.MaxBatchSize {
		return nil, BatchLimitError(len(req.Items), e.cfg.MaxBatchSize)
	}

	seen := make(map[string]bool, len(req.Items))
	sources := make([]*storage.Node, len(req.Items))
	captured := make([][]capturedEdge, len(req.Items))
	for i, item := range req.Items {
		if err := validation.ValidateIdentities(item.IgnoreSuccessors); err != nil {
			return nil, err
		}
		if err := validation.ValidateIdentities(item.IgnorePredecessors); err != nil {
			return nil, err
		}
		if item.Count > e.cfg.MaxCloneCount {
			return nil, CloneLimitError(item.Count, e.cfg.MaxCloneCount)
		}
		if seen[item.Node] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCloneNode, item.Node)
		}
		seen[item.Node] = true

		node, err := e.store.GetNodeByIdentity(req.Graph, item.Node)
		if err != nil {
			return nil, err
		}
		sources[i] = node

		captured[i], err = captureEdges(e.store, node, storage.KindEdge,
			item.IgnoreSuccessors, item.IgnorePredecessors)
		if err != nil {
			return nil, err
		}
	}

	tx := e.store.Begin()
	defer tx.Rollback()

	// First pass: stage every clone row so the fan-out map covers the
	// whole batch before any edge is replayed.
	fanout := make(map[string][]uint64)
	cloneRows := make([][]uint64, len(req.Items))
	result := make(map[string][]string, len(req.Items))
	total := 0
	for i, item := range req.Items {
		names := make([]string, 0, item.Count)
		rows := make([]uint64, 0, item.Count)
		for k := 0; k < item.Count; k++ {
			clone, err := e.stageClone(tx, sources[i], item.Name, req.IgnoreNaming)
			if err != nil {
				return nil, err
			}
			names = append(names, clone.Identity)
			rows = append(rows, clone.ID)
		}
		cloneRows[i] = rows
		result[item.Node] = names
		total += item.Count
		if len(rows) > 0 {
			fanout[item.Node] = append(append([]uint64{}, rows...), sources[i].ID)
		}
	}

	// Second pass: replay edges through the fan-out map.
	for i := range req.Items {
		for _, row := range cloneRows[i] {
			if err := replayOnClone(tx, row, captured[i], fanout); err != nil {
				return nil, err
			}
			if req.PreserveTyping {
				if err := replayTyping(tx, e.store, sources[i], row); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.NodesClonedTotal.Add(float64(total))
	}
	return &BatchCloneResult{Clones: result}, nil
}
