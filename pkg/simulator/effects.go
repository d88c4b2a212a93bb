package simulator

import (
	"fmt"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
)

// accumulator collects the fluent updates of one application (one action, or
// one group of temporal events) and enforces the conflict rules: a ground
// fluent may be written by at most one assignment, an assignment excludes
// increase/decrease, and increase/decrease accumulate against the value
// already updated in this application.
type accumulator struct {
	eval    *Evaluator
	st      state.Reader
	hooks   LifecycleHooks
	updates map[*model.Node]*model.Node
	// write provenance within this application
	assigned map[*model.Node]struct{}
	bumped   map[*model.Node]struct{}
}

func newAccumulator(eval *Evaluator, st state.Reader, hooks LifecycleHooks) *accumulator {
	return &accumulator{
		eval:     eval,
		st:       st,
		hooks:    hooks,
		updates:  make(map[*model.Node]*model.Node),
		assigned: make(map[*model.Node]struct{}),
		bumped:   make(map[*model.Node]struct{}),
	}
}

// current reads the already-updated-this-application value, falling back to
// the pre-application state.
func (acc *accumulator) current(fluent *model.Node) (*model.Node, error) {
	if v, ok := acc.updates[fluent]; ok {
		return v, nil
	}
	return acc.st.Value(fluent)
}

func (acc *accumulator) assign(fluent, value *model.Node) error {
	if _, dup := acc.assigned[fluent]; dup {
		acc.hooks.conflict(fluent)
		return fmt.Errorf("%w: fluent %s modified by two assignments in the same event",
			ErrConflictingEffects, fluent)
	}
	if _, mixed := acc.bumped[fluent]; mixed {
		acc.hooks.conflict(fluent)
		return fmt.Errorf("%w: fluent %s modified by both assignment and increase/decrease",
			ErrConflictingEffects, fluent)
	}
	acc.assigned[fluent] = struct{}{}
	acc.updates[fluent] = value
	return nil
}

func (acc *accumulator) bump(fluent, delta *model.Node, sign int64) error {
	if _, mixed := acc.assigned[fluent]; mixed {
		acc.hooks.conflict(fluent)
		return fmt.Errorf("%w: fluent %s modified by both assignment and increase/decrease",
			ErrConflictingEffects, fluent)
	}
	cur, err := acc.current(fluent)
	if err != nil {
		return err
	}
	next, err := acc.eval.addConstant(cur, delta, sign)
	if err != nil {
		return err
	}
	acc.bumped[fluent] = struct{}{}
	acc.updates[fluent] = next
	return nil
}

// applyEffect applies one parameter-ground effect, expanding its forall
// variables over the problem's objects. Conditions and values are evaluated
// in the pre-application state.
func (acc *accumulator) applyEffect(eff *model.Effect) error {
	if len(eff.Forall()) == 0 {
		return acc.applyGroundEffect(eff)
	}
	for binding := range acc.eval.bindings(eff.Forall()) {
		ground, err := model.SubstituteEffect(eff, nil, binding)
		if err != nil {
			return err
		}
		if err := acc.applyGroundEffect(ground); err != nil {
			return err
		}
	}
	return nil
}

func (acc *accumulator) applyGroundEffect(eff *model.Effect) error {
	if eff.IsConditional() {
		ok, err := acc.eval.evalBool(eff.Condition(), acc.st)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	fluent, err := acc.eval.groundFluent(eff.Fluent(), acc.st)
	if err != nil {
		return err
	}
	value, err := acc.eval.Evaluate(eff.Value(), acc.st)
	if err != nil {
		return err
	}
	switch eff.Kind() {
	case model.Assign:
		return acc.assign(fluent, value)
	case model.Increase:
		return acc.bump(fluent, value, 1)
	case model.Decrease:
		return acc.bump(fluent, value, -1)
	}
	return fmt.Errorf("%w: effect kind %d", ErrUnsupportedAction, eff.Kind())
}

// applySimulated applies a black-box effect. Target fluents must be ground
// after parameter substitution; the produced values join the same conflict
// scope as regular effects.
func (acc *accumulator) applySimulated(se *model.SimulatedEffect,
	params map[*model.Parameter]*model.Node, rawParams []*model.Node) error {
	if se == nil {
		return nil
	}
	values, err := se.Fn(acc.st, rawParams)
	if err != nil {
		return err
	}
	if len(values) != len(se.Fluents) {
		return fmt.Errorf("%w: simulated effect produced %d values for %d fluents",
			ErrUsage, len(values), len(se.Fluents))
	}
	for i, target := range se.Fluents {
		bound, err := model.Substitute(target, params, nil)
		if err != nil {
			return err
		}
		fluent, err := acc.eval.groundFluent(bound, acc.st)
		if err != nil {
			return err
		}
		if err := acc.assign(fluent, values[i]); err != nil {
			return err
		}
	}
	return nil
}
