package rewrite

import (
	"time"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
)

// MatchOptions restricts a pattern match search. Nodes, when non-nil,
// is the only set of host identities candidates may come from. Typing
// maps a typing graph name to required typings: pattern node id to the
// identity its binding must have a typing edge to in that graph.
type MatchOptions struct {
	Nodes  []string
	Typing map[string]map[string]string
}

// Match finds every binding of the pattern in the host graph. The
// result is a lazy, finite, non-restartable stream; re-running the
// match re-executes against live state. A binding is accepted when the
// whole conjunction holds for it: injective assignment, one host edge
// per pattern edge, required attribute values contained in the bound
// node's sets, identity-subset membership, and every typing
// constraint. Constraints are evaluated per candidate binding, not
// propagated incrementally.
func (e *Engine) Match(graph string, p *Pattern, opts MatchOptions) (*InstanceStream, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	hosts, err := e.store.Nodes(graph)
	if err != nil {
		return nil, err
	}
	if opts.Nodes != nil {
		allowed := toSet(opts.Nodes)
		filtered := hosts[:0]
		for _, h := range hosts {
			if allowed[h.Identity] {
				filtered = append(filtered, h)
			}
		}
		hosts = filtered
	}

	log, _ := e.opLogger("match")
	if e.metrics != nil {
		e.metrics.MatchesTotal.Inc()
	}

	stream := NewInstanceStream(e.cfg.MatchBuffer)
	go func() {
		start := time.Now()
		defer stream.finish()

		search := &matchSearch{
			engine:  e,
			pattern: p,
			opts:    opts,
			hosts:   hosts,
			binding: make(map[string]*storage.Node, len(p.Nodes)),
			used:    make(map[uint64]bool, len(p.Nodes)),
		}
		produced := search.run(stream)

		if e.metrics != nil {
			e.metrics.MatchDurationSeconds.Observe(time.Since(start).Seconds())
		}
		log.Debug("match finished",
			logging.String("graph", graph),
			logging.Int("instances", produced),
			logging.Duration("elapsed", time.Since(start)))
	}()
	return stream, nil
}

type matchSearch struct {
	engine  *Engine
	pattern *Pattern
	opts    MatchOptions
	hosts   []*storage.Node

	binding  map[string]*storage.Node
	used     map[uint64]bool
	produced int
}

func (s *matchSearch) run(stream *InstanceStream) int {
	s.assign(0, stream)
	return s.produced
}

// assign enumerates injective assignments of pattern nodes to host
// nodes; every complete candidate binding is checked against the full
// constraint conjunction.
func (s *matchSearch) assign(i int, stream *InstanceStream) bool {
	if i == len(s.pattern.Nodes) {
		if !s.satisfied() {
			return true
		}
		inst := make(Instance, len(s.binding))
		for id, node := range s.binding {
			inst[id] = node.Identity
		}
		s.produced++
		if s.engine.metrics != nil {
			s.engine.metrics.MatchInstancesTotal.Inc()
		}
		return stream.Send(inst)
	}

	pn := s.pattern.Nodes[i]
	for _, h := range s.hosts {
		if s.used[h.ID] {
			continue
		}
		s.binding[pn.ID] = h
		s.used[h.ID] = true
		ok := s.assign(i+1, stream)
		delete(s.binding, pn.ID)
		delete(s.used, h.ID)
		if !ok {
			return false
		}
	}
	return true
}

// satisfied evaluates the whole conjunction for the current complete
// binding.
func (s *matchSearch) satisfied() bool {
	for _, pn := range s.pattern.Nodes {
		host := s.binding[pn.ID]
		for name, want := range pn.Attrs {
			have, ok := host.Attrs[name]
			if !ok || !setContains(have, want) {
				return false
			}
		}
	}
	for _, pe := range s.pattern.Edges {
		from := s.binding[pe.From]
		to := s.binding[pe.To]
		if !s.engine.store.HasEdge(from.ID, to.ID, storage.KindEdge) {
			return false
		}
	}
	for typingGraph, required := range s.opts.Typing {
		for patternNode, typeIdentity := range required {
			host, ok := s.binding[patternNode]
			if !ok {
				return false
			}
			if !s.typedBy(host, typingGraph, typeIdentity) {
				return false
			}
		}
	}
	return true
}

func (s *matchSearch) typedBy(host *storage.Node, typingGraph, typeIdentity string) bool {
	edges, err := s.engine.store.OutEdges(host.ID, storage.KindTyping)
	if err != nil {
		return false
	}
	for _, e := range edges {
		target, err := s.engine.store.GetNode(e.To)
		if err != nil {
			continue
		}
		if target.Graph == typingGraph && target.Identity == typeIdentity {
			return true
		}
	}
	return false
}

// setContains reports whether every value required by pat belongs to
// the host set.
func setContains(host, pat attrs.Set) bool {
	switch h := host.(type) {
	case *attrs.FiniteSet:
		pf, ok := pat.(*attrs.FiniteSet)
		return ok && h.ContainsAll(pf)
	case *attrs.IntegerSet:
		if !h.Universal() {
			return false
		}
		if pat.Universal() {
			return pat.Kind() == attrs.KindInteger
		}
		pf, ok := pat.(*attrs.FiniteSet)
		if !ok {
			return false
		}
		for _, v := range pf.Values() {
			if _, err := v.AsInt(); err != nil {
				return false
			}
		}
		return true
	case *attrs.RegexSet:
		if !h.Universal() {
			return false
		}
		if pat.Universal() {
			return pat.Kind() == attrs.KindRegex
		}
		pf, ok := pat.(*attrs.FiniteSet)
		if !ok {
			return false
		}
		for _, v := range pf.Values() {
			if _, err := v.AsString(); err != nil {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// BoundInstance is an instance restated structurally: the bound host
// nodes and one concrete edge per pattern edge.
type BoundInstance struct {
	Nodes map[string]*storage.Node
	Edges []*storage.Edge
}

// MatchInstance restates an already-known instance back into
// structural form so it can feed a further mutation. It performs no
// search: every pattern node must be bound, and every pattern edge
// must exist between the bound rows in the live graph.
func (e *Engine) MatchInstance(graph string, p *Pattern, inst Instance) (*BoundInstance, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	bound := &BoundInstance{Nodes: make(map[string]*storage.Node, len(p.Nodes))}
	for _, pn := range p.Nodes {
		identity, ok := inst[pn.ID]
		if !ok {
			return nil, ErrIncompleteInstance
		}
		node, err := e.store.GetNodeByIdentity(graph, identity)
		if err != nil {
			return nil, err
		}
		bound.Nodes[pn.ID] = node
	}
	for _, pe := range p.Edges {
		from := bound.Nodes[pe.From]
		to := bound.Nodes[pe.To]
		edges := e.store.EdgesBetween(from.ID, to.ID, storage.KindEdge)
		if len(edges) == 0 {
			return nil, InstanceMismatchError(
				"no edge from " + from.Identity + " to " + to.Identity)
		}
		bound.Edges = append(bound.Edges, edges[0])
	}
	return bound, nil
}
