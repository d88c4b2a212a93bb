package state

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/aretw0/bramble/pkg/model"
)

// ErrValueNotFound is returned when a ground fluent was never assigned on
// the state or any of its ancestors.
var ErrValueNotFound = errors.New("no value for fluent")

// Reader is the read surface of a state: the constant value of a ground
// fluent expression.
type Reader interface {
	Value(fluent *model.Node) (*model.Node, error)
}

// DefaultMaxAncestors bounds the parent chain of sequential states. Once a
// state's depth reaches the bound, creating a child first condenses the
// chain into one map, trading a one-time O(depth) cost for O(1) amortized
// lookups afterwards.
const DefaultMaxAncestors = 20

// State is a persistent snapshot of the world: a local map of ground fluent
// expressions to constant values plus an optional parent. Lookup walks the
// chain; MakeChild shares all ancestor structure.
//
// Keys and values are canonical *model.Node pointers, so map access is
// structural lookup.
type State struct {
	values       map[*model.Node]*model.Node
	parent       *State
	depth        int
	maxAncestors int // <0 disables condensation
}

// Option configures a root state.
type Option func(*State)

// WithMaxAncestors overrides the condensation threshold. n < 0 disables
// condensation entirely (the chain grows unbounded).
func WithMaxAncestors(n int) Option {
	return func(s *State) { s.maxAncestors = n }
}

// New creates a root state holding the given valuation. The map is owned by
// the state afterwards; callers must not modify it.
func New(values map[*model.Node]*model.Node, opts ...Option) *State {
	if values == nil {
		values = make(map[*model.Node]*model.Node)
	}
	s := &State{values: values, maxAncestors: DefaultMaxAncestors}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Value walks self, then parents, until the fluent is found.
func (s *State) Value(fluent *model.Node) (*model.Node, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.values[fluent]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrValueNotFound, fluent)
}

// Depth returns the current ancestor-chain length.
func (s *State) Depth() int { return s.depth }

// MakeChild returns a new state layering updates over s. When the chain has
// reached the condensation threshold, s is condensed first; condensation
// only reorganizes the lookup path and is observably pure.
func (s *State) MakeChild(updates map[*model.Node]*model.Node) *State {
	if s.maxAncestors >= 0 && s.depth >= s.maxAncestors {
		s.condense()
	}
	if updates == nil {
		updates = make(map[*model.Node]*model.Node)
	}
	return &State{
		values:       updates,
		parent:       s,
		depth:        s.depth + 1,
		maxAncestors: s.maxAncestors,
	}
}

// condense flattens the ancestor chain into s's local map, closest ancestor
// winning on conflicts, and detaches the parent.
func (s *State) condense() {
	if s.parent == nil {
		return
	}
	flat := s.flatten()
	s.values = flat
	s.parent = nil
	s.depth = 0
}

// flatten returns the full condensed valuation as a fresh map.
func (s *State) flatten() map[*model.Node]*model.Node {
	var chain []*State
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	flat := make(map[*model.Node]*model.Node)
	// Oldest first so that more recent assignments overwrite.
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].values {
			flat[k] = v
		}
	}
	return flat
}

// Flattened returns a copy of the condensed valuation, for serialization
// and equality checks. The receiver is not modified.
func (s *State) Flattened() map[*model.Node]*model.Node {
	return s.flatten()
}

// Equal reports whether two states denote the same condensed valuation,
// regardless of how their chains are laid out.
func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	a, b := s.flatten(), o.flatten()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Hash computes an order-independent hash of the condensed valuation.
// States that are Equal hash identically.
func (s *State) Hash() uint64 {
	var acc uint64
	for k, v := range s.flatten() {
		h := fnv.New64a()
		h.Write([]byte(k.String()))
		h.Write([]byte{0})
		h.Write([]byte(v.String()))
		acc ^= h.Sum64()
	}
	return acc
}
