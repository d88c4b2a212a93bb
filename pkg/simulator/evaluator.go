package simulator

import (
	"fmt"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
)

// Evaluator reduces ground expressions to constant nodes against a state.
// It is stateless given a state: the same (expression, state) pair always
// evaluates to the same constant.
type Evaluator struct {
	problem *model.Problem
	factory *model.Factory
}

// NewEvaluator creates an evaluator for the problem's environment.
// Quantifiers range over the problem's declared objects.
func NewEvaluator(p *model.Problem) *Evaluator {
	return &Evaluator{problem: p, factory: p.Environment().Factory()}
}

// Evaluate reduces n to a constant (or object) node in st. A fully-ground,
// side-effect-free expression always reduces; reaching a free parameter or
// variable yields ErrNotGround.
func (ev *Evaluator) Evaluate(n *model.Node, st state.Reader) (*model.Node, error) {
	f := ev.factory
	switch n.Kind() {
	case model.KindBoolConst, model.KindIntConst, model.KindRealConst, model.KindObjectExp:
		return n, nil
	case model.KindParamExp, model.KindVariableExp, model.KindTimingExp:
		return nil, fmt.Errorf("%w: %s", ErrNotGround, n)

	case model.KindFluentExp:
		key, err := ev.groundFluent(n, st)
		if err != nil {
			return nil, err
		}
		return st.Value(key)

	case model.KindAnd:
		for _, a := range n.Args() {
			v, err := ev.evalBool(a, st)
			if err != nil {
				return nil, err
			}
			if !v {
				return f.FALSE(), nil
			}
		}
		return f.TRUE(), nil
	case model.KindOr:
		for _, a := range n.Args() {
			v, err := ev.evalBool(a, st)
			if err != nil {
				return nil, err
			}
			if v {
				return f.TRUE(), nil
			}
		}
		return f.FALSE(), nil
	case model.KindNot:
		v, err := ev.evalBool(n.Arg(0), st)
		if err != nil {
			return nil, err
		}
		return f.Bool(!v), nil
	case model.KindImplies:
		a, err := ev.evalBool(n.Arg(0), st)
		if err != nil {
			return nil, err
		}
		if !a {
			return f.TRUE(), nil
		}
		b, err := ev.evalBool(n.Arg(1), st)
		if err != nil {
			return nil, err
		}
		return f.Bool(b), nil
	case model.KindIff:
		a, err := ev.evalBool(n.Arg(0), st)
		if err != nil {
			return nil, err
		}
		b, err := ev.evalBool(n.Arg(1), st)
		if err != nil {
			return nil, err
		}
		return f.Bool(a == b), nil

	case model.KindEquals:
		a, err := ev.Evaluate(n.Arg(0), st)
		if err != nil {
			return nil, err
		}
		b, err := ev.Evaluate(n.Arg(1), st)
		if err != nil {
			return nil, err
		}
		if a == b {
			return f.TRUE(), nil
		}
		// Distinct canonical numerics can still denote the same value
		// (int 1 vs real 1.0).
		if a.Type().IsNumeric() && b.Type().IsNumeric() {
			return f.Bool(a.Real() == b.Real()), nil
		}
		return f.FALSE(), nil
	case model.KindLE, model.KindLT:
		a, err := ev.Evaluate(n.Arg(0), st)
		if err != nil {
			return nil, err
		}
		b, err := ev.Evaluate(n.Arg(1), st)
		if err != nil {
			return nil, err
		}
		if n.Kind() == model.KindLE {
			return f.Bool(a.Real() <= b.Real()), nil
		}
		return f.Bool(a.Real() < b.Real()), nil

	case model.KindPlus, model.KindTimes:
		return ev.evalNary(n, st)
	case model.KindMinus:
		a, b, err := ev.evalNumericPair(n, st)
		if err != nil {
			return nil, err
		}
		return ev.subtract(a, b)
	case model.KindDiv:
		a, b, err := ev.evalNumericPair(n, st)
		if err != nil {
			return nil, err
		}
		if b.Real() == 0 {
			return nil, fmt.Errorf("division by zero in %s", n)
		}
		return f.Real(a.Real() / b.Real()), nil

	case model.KindExists, model.KindForall:
		return ev.evalQuantifier(n, st)
	}
	return nil, fmt.Errorf("cannot evaluate node kind %d (%s)", n.Kind(), n)
}

// groundFluent evaluates the arguments of a fluent expression and returns
// the canonical ground key for state lookup.
func (ev *Evaluator) groundFluent(n *model.Node, st state.Reader) (*model.Node, error) {
	args := n.Args()
	ground := make([]any, len(args))
	changed := false
	for i, a := range args {
		v, err := ev.Evaluate(a, st)
		if err != nil {
			return nil, err
		}
		ground[i] = v
		changed = changed || v != a
	}
	if !changed {
		return n, nil
	}
	return ev.factory.FluentExp(n.Fluent(), ground...)
}

func (ev *Evaluator) evalBool(n *model.Node, st state.Reader) (bool, error) {
	v, err := ev.Evaluate(n, st)
	if err != nil {
		return false, err
	}
	if v.Kind() != model.KindBoolConst {
		return false, fmt.Errorf("%w: %s evaluated to non-boolean %s", ErrNotGround, n, v)
	}
	return v.Bool(), nil
}

func (ev *Evaluator) evalNumericPair(n *model.Node, st state.Reader) (*model.Node, *model.Node, error) {
	a, err := ev.Evaluate(n.Arg(0), st)
	if err != nil {
		return nil, nil, err
	}
	b, err := ev.Evaluate(n.Arg(1), st)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (ev *Evaluator) evalNary(n *model.Node, st state.Reader) (*model.Node, error) {
	f := ev.factory
	allInt := true
	var intAcc int64
	var realAcc float64
	if n.Kind() == model.KindTimes {
		intAcc, realAcc = 1, 1
	}
	for _, a := range n.Args() {
		v, err := ev.Evaluate(a, st)
		if err != nil {
			return nil, err
		}
		if v.Kind() != model.KindIntConst {
			allInt = false
		}
		if n.Kind() == model.KindPlus {
			realAcc += v.Real()
			if v.Kind() == model.KindIntConst {
				intAcc += v.Int()
			}
		} else {
			realAcc *= v.Real()
			if v.Kind() == model.KindIntConst {
				intAcc *= v.Int()
			}
		}
	}
	if allInt {
		return f.Int(intAcc), nil
	}
	return f.Real(realAcc), nil
}

func (ev *Evaluator) subtract(a, b *model.Node) (*model.Node, error) {
	f := ev.factory
	if a.Kind() == model.KindIntConst && b.Kind() == model.KindIntConst {
		return f.Int(a.Int() - b.Int()), nil
	}
	return f.Real(a.Real() - b.Real()), nil
}

// addConstant computes a + sign*b over constant nodes, preserving intness.
func (ev *Evaluator) addConstant(a, b *model.Node, sign int64) (*model.Node, error) {
	if !a.Type().IsNumeric() || !b.Type().IsNumeric() {
		return nil, fmt.Errorf("%w: arithmetic over non-numeric constants %s, %s",
			model.ErrTypeMismatch, a, b)
	}
	f := ev.factory
	if a.Kind() == model.KindIntConst && b.Kind() == model.KindIntConst {
		return f.Int(a.Int() + int64(sign)*b.Int()), nil
	}
	return f.Real(a.Real() + float64(sign)*b.Real()), nil
}

// evalQuantifier expands the bound variables over the problem's objects.
func (ev *Evaluator) evalQuantifier(n *model.Node, st state.Reader) (*model.Node, error) {
	f := ev.factory
	forall := n.Kind() == model.KindForall
	for binding := range ev.bindings(n.Vars()) {
		ground, err := model.Substitute(n.Arg(0), nil, binding)
		if err != nil {
			return nil, err
		}
		v, err := ev.evalBool(ground, st)
		if err != nil {
			return nil, err
		}
		if forall && !v {
			return f.FALSE(), nil
		}
		if !forall && v {
			return f.TRUE(), nil
		}
	}
	return f.Bool(forall), nil
}

// bindings lazily enumerates all assignments of vars to objects of their
// types.
func (ev *Evaluator) bindings(vars []*model.Variable) func(yield func(map[*model.Variable]*model.Node) bool) {
	return func(yield func(map[*model.Variable]*model.Node) bool) {
		domains := make([][]*model.Object, len(vars))
		for i, v := range vars {
			domains[i] = ev.problem.ObjectsOfType(v.Type())
			if len(domains[i]) == 0 {
				return
			}
		}
		idx := make([]int, len(vars))
		for {
			binding := make(map[*model.Variable]*model.Node, len(vars))
			for i, v := range vars {
				exp, err := ev.factory.ObjectExp(domains[i][idx[i]])
				if err != nil {
					return
				}
				binding[v] = exp
			}
			if !yield(binding) {
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
