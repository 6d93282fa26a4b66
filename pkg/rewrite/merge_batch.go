package rewrite

import (
	"time"

	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/validation"
)

// MergeGroup is one merge of a batch: an ordered source list with an
// optional requested identity, same meaning as MergeRequest.
type MergeGroup struct {
	Nodes []string `validate:"min=1,dive,identity"`
	Name  string   `validate:"omitempty,identity"`
}

// BatchMergeRequest merges several disjoint groups in one atomic pass.
// A node appearing in two groups is rejected with
// ErrOverlappingMergeGroups.
type BatchMergeRequest struct {
	Graph  string       `validate:"required,identity"`
	Groups []MergeGroup `validate:"min=1,dive"`

	MergeTyping  bool
	IgnoreNaming bool
}

// BatchMergeResult maps every pre-merge identity to the identity of
// its group's survivor.
type BatchMergeResult struct {
	Merged map[string]string
}

// BatchMerge merges every group in one transaction. Before any edge is
// captured, the batch builds the global map from each pre-merge
// identity to its group's survivor; neighbor lookups go through it, so
// an edge between two groups of the same batch is redirected between
// the two survivors instead of a stale identity.
func (e *Engine) BatchMerge(req BatchMergeRequest) (*BatchMergeResult, error) {
	start := time.Now()
	log, _ := e.opLogger("batch_merge")

	res, err := e.batchMerge(req)
	e.observe("batch_merge", start, err)
	if err != nil {
		log.Error("batch merge failed",
			logging.String("graph", req.Graph),
			logging.Int("groups", len(req.Groups)),
			logging.Error(err))
		return nil, err
	}
	log.Info("batch merge applied",
		logging.String("graph", req.Graph),
		logging.Int("groups", len(req.Groups)))
	return res, nil
}

func (e *Engine) batchMerge(req BatchMergeRequest) (*BatchMergeResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if len(req.Groups) > e.cfg.MaxBatchSize {
		return nil, BatchLimitError(len(req.Groups), e.cfg.MaxBatchSize)
	}

	consumed := make(map[string]bool)
	groups := make([]*mergeGroup, 0, len(req.Groups))
	total := 0
	for _, mg := range req.Groups {
		g, err := e.loadMergeGroup(req.Graph, mg.Nodes, mg.Name, consumed)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
		total += len(g.sources)
	}

	tx := e.store.Begin()
	defer tx.Rollback()

	if err := e.applyMerge(tx, groups, req.MergeTyping, req.IgnoreNaming); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.NodesMergedTotal.Add(float64(total))
	}

	merged := make(map[string]string, total)
	for _, g := range groups {
		for _, src := range g.sources {
			merged[src.Identity] = g.identity
		}
	}
	return &BatchMergeResult{Merged: merged}, nil
}
