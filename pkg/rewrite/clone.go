package rewrite

import (
	"time"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/dd0wney/cluso-rewrite/pkg/validation"
)

// CloneRequest asks for Count copies of one node. Name is the
// requested clone identity, resolved independently per clone; it
// defaults to the source identity. Ignore lists name neighbors whose
// edges must not be replayed. Count zero is a no-op and never touches
// the source's collision counter.
type CloneRequest struct {
	Graph string `validate:"required,identity"`
	Node  string `validate:"required,identity"`
	Name  string `validate:"omitempty,identity"`
	Count int    `validate:"min=0"`

	IgnoreSuccessors   []string
	IgnorePredecessors []string
	PreserveTyping     bool
	IgnoreNaming       bool
}

// CloneResult reports the identities assigned to the clones, in
// creation order.
type CloneResult struct {
	Clones []string
}

// Clone duplicates a node Count times: attributes deep-copied, every
// incident edge replayed onto each clone, self-loops folded onto the
// clone itself. The source is untouched.
func (e *Engine) Clone(req CloneRequest) (*CloneResult, error) {
	start := time.Now()
	log, _ := e.opLogger("clone")

	res, err := e.clone(req)
	e.observe("clone", start, err)
	if err != nil {
		log.Error("clone failed",
			logging.String("graph", req.Graph),
			logging.String("node", req.Node),
			logging.Error(err))
		return nil, err
	}
	log.Info("clone applied",
		logging.String("graph", req.Graph),
		logging.String("node", req.Node),
		logging.Strings("clones", res.Clones))
	return res, nil
}

func (e *Engine) clone(req CloneRequest) (*CloneResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateIdentities(req.IgnoreSuccessors); err != nil {
		return nil, err
	}
	if err := validation.ValidateIdentities(req.IgnorePredecessors); err != nil {
		return nil, err
	}
	if req.Count > e.cfg.MaxCloneCount {
		return nil, CloneLimitError(req.Count, e.cfg.MaxCloneCount)
	}
	if req.Count == 0 {
		return &CloneResult{}, nil
	}

	source, err := e.store.GetNodeByIdentity(req.Graph, req.Node)
	if err != nil {
		return nil, err
	}
	captured, err := captureEdges(e.store, source, storage.KindEdge,
		req.IgnoreSuccessors, req.IgnorePredecessors)
	if err != nil {
		return nil, err
	}

	tx := e.store.Begin()
	defer tx.Rollback()

	clones := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		clone, err := e.stageClone(tx, source, req.Name, req.IgnoreNaming)
		if err != nil {
			return nil, err
		}
		if err := replayOnClone(tx, clone.ID, captured, nil); err != nil {
			return nil, err
		}
		if req.PreserveTyping {
			if err := replayTyping(tx, e.store, source, clone.ID); err != nil {
				return nil, err
			}
		}
		clones = append(clones, clone.Identity)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.NodesClonedTotal.Add(float64(req.Count))
	}
	return &CloneResult{Clones: clones}, nil
}

// stageClone creates one clone row with a deep attribute copy and a
// resolved identity.
func (e *Engine) stageClone(tx *storage.Tx, source *storage.Node, name string, ignoreNaming bool) (*storage.Node, error) {
	copied := attrs.CloneDict(source.Attrs)

	if ignoreNaming {
		clone, err := tx.NewNode(source.Graph, "", copied)
		if err != nil {
			return nil, err
		}
		if err := tx.SetIdentity(clone.ID, rowIdentity(clone.ID)); err != nil {
			return nil, err
		}
		return clone, nil
	}

	want := name
	if want == "" {
		want = source.Identity
	}
	identity := resolveIdentity(tx, source.Graph, want)
	return tx.NewNode(source.Graph, identity, copied)
}
