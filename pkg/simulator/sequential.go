package simulator

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
)

// SequentialSimulator applies whole instantaneous actions atomically over
// persistent states. Durative actions are rejected with
// ErrUnsupportedAction; decompose them through the TemporalSimulator.
type SequentialSimulator struct {
	problem  *model.Problem
	eval     *Evaluator
	grounder Grounder
	logger   *slog.Logger
	hooks    LifecycleHooks
	maxAnc   int
}

// NewSequentialSimulator builds a simulator for the problem. The problem is
// treated as frozen; mutating it afterwards is undefined.
func NewSequentialSimulator(p *model.Problem, opts ...Option) (*SequentialSimulator, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil problem", ErrUsage)
	}
	cfg := newConfig(opts)
	if cfg.grounder == nil {
		cfg.grounder = NewNaiveGrounder(p)
	}
	return &SequentialSimulator{
		problem:  p,
		eval:     NewEvaluator(p),
		grounder: cfg.grounder,
		logger:   cfg.logger,
		hooks:    cfg.hooks,
		maxAnc:   cfg.maxAncestors,
	}, nil
}

// InitialState materializes the problem's complete initial assignment.
func (s *SequentialSimulator) InitialState() (*state.State, error) {
	values, err := s.problem.InitialValues()
	if err != nil {
		return nil, err
	}
	return state.New(values, state.WithMaxAncestors(s.maxAnc)), nil
}

// bindParams validates the binding and returns the parameter substitution
// map. Only usage problems are reported here.
func (s *SequentialSimulator) bindParams(a *model.Action, params []*model.Node) (map[*model.Parameter]*model.Node, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil action", ErrUsage)
	}
	if a.Kind() != model.InstantaneousKind {
		return nil, fmt.Errorf("%w: %s is %s, sequential simulation handles instantaneous actions only",
			ErrUnsupportedAction, a.Name(), a.Kind())
	}
	if _, _, err := s.grounder.Ground(a, params); err != nil {
		return nil, err
	}
	bind := make(map[*model.Parameter]*model.Node, len(params))
	for i, formal := range a.Parameters() {
		bind[formal] = params[i]
	}
	return bind, nil
}

// IsApplicable reports whether all preconditions of the ground action hold
// in st. Usage errors (bad arity, unground parameters, durative action) are
// returned as errors; a plain false means some condition is unsatisfied.
func (s *SequentialSimulator) IsApplicable(st *state.State, a *model.Action, params ...*model.Node) (bool, error) {
	unsat, err := s.UnsatisfiedConditions(st, a, params, true)
	if err != nil {
		return false, err
	}
	return len(unsat) == 0, nil
}

// UnsatisfiedConditions evaluates the ground preconditions in st and returns
// the ones that do not hold. With early true it stops at the first failure.
// Evaluation errors (missing fluent values, unground expressions) count the
// condition as unsatisfied rather than aborting.
func (s *SequentialSimulator) UnsatisfiedConditions(st *state.State, a *model.Action,
	params []*model.Node, early bool) ([]*model.Node, error) {
	bind, err := s.bindParams(a, params)
	if err != nil {
		return nil, err
	}
	var unsat []*model.Node
	for _, pre := range a.Preconditions() {
		ground, err := model.Substitute(pre, bind, nil)
		if err != nil {
			return nil, err
		}
		ok, err := s.eval.evalBool(ground, st)
		if err != nil {
			s.logger.Debug("precondition evaluation failed",
				"action", a.Name(), "condition", ground.String(), "error", err)
			ok = false
		}
		if !ok {
			unsat = append(unsat, ground)
			if early {
				return unsat, nil
			}
		}
	}
	return unsat, nil
}

// Apply checks applicability and produces the successor state. A ground
// action whose preconditions do not hold yields (nil, nil): not applicable
// is an answer, not an error.
func (s *SequentialSimulator) Apply(st *state.State, a *model.Action, params ...*model.Node) (*state.State, error) {
	ok, err := s.IsApplicable(st, a, params...)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.hooks.notApplicable(a)
		return nil, nil
	}
	return s.ApplyUnsafe(st, a, params...)
}

// ApplyUnsafe produces the successor state without checking preconditions.
// Effects still go through conflict detection, and conditional effects are
// still gated on their own conditions.
func (s *SequentialSimulator) ApplyUnsafe(st *state.State, a *model.Action, params ...*model.Node) (*state.State, error) {
	bind, err := s.bindParams(a, params)
	if err != nil {
		return nil, err
	}
	acc := newAccumulator(s.eval, st, s.hooks)
	for _, eff := range a.Effects() {
		ground, err := model.SubstituteEffect(eff, bind, nil)
		if err != nil {
			return nil, err
		}
		if err := acc.applyEffect(ground); err != nil {
			return nil, err
		}
	}
	if err := acc.applySimulated(a.SimulatedEffect(), bind, params); err != nil {
		return nil, err
	}
	s.hooks.actionApplied(a, params)
	s.logger.Debug("action applied", "action", a.Name(), "updates", len(acc.updates))
	return st.MakeChild(acc.updates), nil
}

// ApplicableActions lazily enumerates every ground action instance that is
// applicable in st. The sequence is restartable; each range starts a fresh
// enumeration. Bindings whose evaluation errors are logged and skipped.
func (s *SequentialSimulator) ApplicableActions(st *state.State) iter.Seq[model.ActionInstance] {
	return func(yield func(model.ActionInstance) bool) {
		for _, a := range s.problem.Actions() {
			if a.Kind() != model.InstantaneousKind {
				continue
			}
			for params := range s.grounder.Instances(a) {
				ok, err := s.IsApplicable(st, a, params...)
				if err != nil {
					s.logger.Debug("skipping binding",
						"action", a.Name(), "error", err)
					continue
				}
				if !ok {
					continue
				}
				if !yield(model.ActionInstance{Action: a, Params: params}) {
					return
				}
			}
		}
	}
}

// IsGoal reports whether every goal of the problem holds in st.
func (s *SequentialSimulator) IsGoal(st *state.State) (bool, error) {
	unsat, err := s.UnsatisfiedGoals(st, true)
	if err != nil {
		return false, err
	}
	return len(unsat) == 0, nil
}

// UnsatisfiedGoals returns the goals that do not hold in st. With early
// true it stops at the first failure.
func (s *SequentialSimulator) UnsatisfiedGoals(st *state.State, early bool) ([]*model.Node, error) {
	var unsat []*model.Node
	for _, g := range s.problem.Goals() {
		ok, err := s.eval.evalBool(g, st)
		if err != nil {
			return nil, err
		}
		if !ok {
			unsat = append(unsat, g)
			if early {
				return unsat, nil
			}
		}
	}
	return unsat, nil
}
