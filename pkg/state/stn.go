package state

import (
	"math"

	"github.com/aretw0/bramble/pkg/model"
)

// Bound is a possibly strict numeric bound on a timepoint difference.
type Bound struct {
	Value  float64
	Strict bool
}

// Closed is the inclusive bound <= v.
func Closed(v float64) Bound { return Bound{Value: v} }

// Open is the exclusive bound < v.
func Open(v float64) Bound { return Bound{Value: v, Strict: true} }

// Unbounded is the absent bound (+inf).
func Unbounded() Bound { return Bound{Value: math.Inf(1)} }

// tighter reports whether b is a strictly tighter upper bound than o.
func (b Bound) tighter(o Bound) bool {
	if b.Value != o.Value {
		return b.Value < o.Value
	}
	return b.Strict && !o.Strict
}

// negated turns the lower bound v <= x into the upper bound -x <= -v,
// preserving strictness.
func (b Bound) negated() Bound { return Bound{Value: -b.Value, Strict: b.Strict} }

// potential is a node label during relaxation. Strictness accumulates as an
// epsilon count rather than a single bit: each strict arc on a path shaves
// another infinitesimal off the bound, so a zero-weight cycle containing a
// strict arc keeps descending until the negative-cycle counter trips.
type potential struct {
	value float64
	eps   int
}

func (p potential) add(w Bound) potential {
	q := potential{value: p.value + w.Value, eps: p.eps}
	if w.Strict {
		q.eps++
	}
	return q
}

// tighter reports whether p is a strictly smaller value than o in the
// lexicographic (value, -eps) order.
func (p potential) tighter(o potential) bool {
	if p.value != o.value {
		return p.value < o.value
	}
	return p.eps > o.eps
}

type arc struct {
	to     *model.TemporalEvent
	weight Bound
}

// DeltaSTN is a persistent simple temporal network over applied temporal
// events. Constraints are difference bounds t_b - t_a <= w; consistency is
// maintained incrementally with a Bellman-Ford style relaxation over node
// potentials.
//
// MakeChild layers a fresh delta over the receiver: updates touch only the
// newest layer, so thousands of branching simulation states can share most
// of their timing history. Constraints must only be added to a layer that
// has not been shared yet (the Temporal Simulator creates one layer per
// state transition).
type DeltaSTN struct {
	parent *DeltaSTN
	// out holds, per timepoint written at this layer, the full outgoing arc
	// slice (copy-on-write from the ancestor view).
	out map[*model.TemporalEvent][]arc
	// dist holds potentials updated at this layer.
	dist map[*model.TemporalEvent]potential
	// count of distinct timepoints known up to this layer.
	count      int
	consistent bool
}

// NewSTN creates an empty, consistent network.
func NewSTN() *DeltaSTN {
	return &DeltaSTN{
		out:        make(map[*model.TemporalEvent][]arc),
		dist:       make(map[*model.TemporalEvent]potential),
		consistent: true,
	}
}

// MakeChild layers a new delta over s. The parent is never modified through
// the child.
func (s *DeltaSTN) MakeChild() *DeltaSTN {
	return &DeltaSTN{
		parent:     s,
		out:        make(map[*model.TemporalEvent][]arc),
		dist:       make(map[*model.TemporalEvent]potential),
		count:      s.count,
		consistent: s.consistent,
	}
}

// Consistent reports whether every added constraint is jointly satisfiable.
// Once inconsistent, a network (and all its children) stays inconsistent.
func (s *DeltaSTN) Consistent() bool { return s.consistent }

// Timepoints returns the number of distinct timepoints in the network.
func (s *DeltaSTN) Timepoints() int { return s.count }

// potentialOf walks the delta chain for the timepoint's potential.
func (s *DeltaSTN) potentialOf(tp *model.TemporalEvent) (potential, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.dist[tp]; ok {
			return d, true
		}
	}
	return potential{}, false
}

// outArcs walks the delta chain for the timepoint's outgoing arcs. The
// nearest layer that wrote the timepoint holds its complete slice.
func (s *DeltaSTN) outArcs(tp *model.TemporalEvent) []arc {
	for cur := s; cur != nil; cur = cur.parent {
		if a, ok := cur.out[tp]; ok {
			return a
		}
	}
	return nil
}

// register ensures the timepoint exists with potential 0.
func (s *DeltaSTN) register(tp *model.TemporalEvent) {
	if _, ok := s.potentialOf(tp); !ok {
		s.dist[tp] = potential{}
		s.count++
	}
}

// AddMax adds the constraint t_b - t_a <= max and repropagates. Adding to an
// already inconsistent network is a no-op.
func (s *DeltaSTN) AddMax(a, b *model.TemporalEvent, max Bound) {
	if !s.consistent || math.IsInf(max.Value, 1) {
		return
	}
	s.register(a)
	s.register(b)

	// Copy-on-write the arc list of a into this layer, keeping only the
	// tightest arc per target.
	arcs := s.outArcs(a)
	local := make([]arc, len(arcs), len(arcs)+1)
	copy(local, arcs)
	found := false
	for i := range local {
		if local[i].to == b {
			found = true
			if !max.tighter(local[i].weight) {
				// Existing constraint is at least as tight; nothing to do.
				return
			}
			local[i].weight = max
			break
		}
	}
	if !found {
		local = append(local, arc{to: b, weight: max})
	}
	s.out[a] = local

	s.propagate(a)
}

// AddConstraint adds lower <= t_b - t_a <= upper. Pass Unbounded() (or its
// negation for lower) to leave a side open.
func (s *DeltaSTN) AddConstraint(a, b *model.TemporalEvent, lower, upper Bound) {
	s.AddMax(a, b, upper)
	if !math.IsInf(lower.Value, -1) {
		s.AddMax(b, a, lower.negated())
	}
}

// propagate relaxes potentials starting from the source of the new arc.
// A node popped more often than there are timepoints witnesses a negative
// cycle, i.e. an unsatisfiable constraint set.
func (s *DeltaSTN) propagate(src *model.TemporalEvent) {
	queue := []*model.TemporalEvent{src}
	pops := make(map[*model.TemporalEvent]int)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		pops[u]++
		if pops[u] > s.count {
			s.consistent = false
			return
		}
		du, _ := s.potentialOf(u)
		for _, e := range s.outArcs(u) {
			cand := du.add(e.weight)
			dv, _ := s.potentialOf(e.to)
			if cand.tighter(dv) {
				s.dist[e.to] = cand
				queue = append(queue, e.to)
			}
		}
	}
}
