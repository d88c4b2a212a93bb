package simulator

import (
	"fmt"
	"iter"

	"github.com/aretw0/bramble/pkg/model"
)

// Grounder binds lifted actions to concrete parameter tuples. The simulators
// only depend on this interface; a compilation-based grounder can be plugged
// in through WithGrounder.
type Grounder interface {
	// Ground validates a binding and returns the action instance, or
	// ok=false when the binding is infeasible. Arity and type mismatches
	// are usage errors.
	Ground(a *model.Action, params []*model.Node) (model.ActionInstance, bool, error)

	// Instances lazily enumerates all ground parameter tuples of the
	// action. Each call returns a fresh, restartable sequence.
	Instances(a *model.Action) iter.Seq[[]*model.Node]
}

// NaiveGrounder enumerates the cartesian product of the typed object
// domains, with no feasibility pruning.
type NaiveGrounder struct {
	problem *model.Problem
}

// NewNaiveGrounder creates the default grounder for a problem.
func NewNaiveGrounder(p *model.Problem) *NaiveGrounder {
	return &NaiveGrounder{problem: p}
}

// Ground validates arity and parameter types.
func (g *NaiveGrounder) Ground(a *model.Action, params []*model.Node) (model.ActionInstance, bool, error) {
	formal := a.Parameters()
	if len(params) != len(formal) {
		return model.ActionInstance{}, false, fmt.Errorf(
			"%w: action %s expects %d parameters, got %d", ErrUsage, a.Name(), len(formal), len(params))
	}
	for i, p := range params {
		if p.Kind() != model.KindObjectExp && !p.IsConstant() {
			return model.ActionInstance{}, false, fmt.Errorf(
				"%w: parameter %d of %s is not ground: %s", ErrUsage, i, a.Name(), p)
		}
		want := formal[i].Type()
		got := p.Type()
		if got != want && !(got.IsNumeric() && want.IsNumeric()) {
			return model.ActionInstance{}, false, fmt.Errorf(
				"%w: parameter %d of %s: want %s, got %s", ErrUsage, i, a.Name(), want, got)
		}
	}
	return model.ActionInstance{Action: a, Params: params}, true, nil
}

// Instances enumerates object tuples for the action's parameters.
// Parameters of numeric type have no enumerable domain and yield nothing.
func (g *NaiveGrounder) Instances(a *model.Action) iter.Seq[[]*model.Node] {
	return func(yield func([]*model.Node) bool) {
		formal := a.Parameters()
		factory := g.problem.Environment().Factory()
		domains := make([][]*model.Object, len(formal))
		for i, p := range formal {
			if p.Type().Kind() != model.UserKind {
				return
			}
			domains[i] = g.problem.ObjectsOfType(p.Type())
			if len(domains[i]) == 0 {
				return
			}
		}
		idx := make([]int, len(formal))
		for {
			tuple := make([]*model.Node, len(formal))
			for i := range formal {
				exp, err := factory.ObjectExp(domains[i][idx[i]])
				if err != nil {
					return
				}
				tuple[i] = exp
			}
			if !yield(tuple) {
				return
			}
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(domains[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}
