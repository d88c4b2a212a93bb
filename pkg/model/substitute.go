package model

import "fmt"

// Substitute rebuilds n with parameters and variables replaced by the given
// ground expressions. The result goes through the Factory, so it is
// canonical and picks up the usual construction-time simplifications
// (a substitution can collapse Not(Not(x)) and friends).
//
// Leaves absent from the maps are kept as-is; quantifiers shadow their own
// bound variables.
func Substitute(n *Node, params map[*Parameter]*Node, vars map[*Variable]*Node) (*Node, error) {
	f := n.env.factory

	switch n.kind {
	case KindBoolConst, KindIntConst, KindRealConst, KindObjectExp, KindTimingExp:
		return n, nil
	case KindParamExp:
		if r, ok := params[n.Parameter()]; ok {
			return r, nil
		}
		return n, nil
	case KindVariableExp:
		if r, ok := vars[n.Variable()]; ok {
			return r, nil
		}
		return n, nil
	case KindExists, KindForall:
		inner := vars
		if len(vars) > 0 {
			inner = make(map[*Variable]*Node, len(vars))
			for k, v := range vars {
				inner[k] = v
			}
			for _, bv := range n.Vars() {
				delete(inner, bv)
			}
		}
		body, err := Substitute(n.args[0], params, inner)
		if err != nil {
			return nil, err
		}
		if body == n.args[0] {
			return n, nil
		}
		return f.quantifier(n.kind, body, n.Vars())
	}

	args := make([]any, len(n.args))
	changed := false
	for i, a := range n.args {
		r, err := Substitute(a, params, vars)
		if err != nil {
			return nil, err
		}
		args[i] = r
		changed = changed || r != a
	}
	if !changed {
		return n, nil
	}

	switch n.kind {
	case KindAnd:
		return f.And(args...)
	case KindOr:
		return f.Or(args...)
	case KindNot:
		return f.Not(args[0])
	case KindImplies:
		return f.Implies(args[0], args[1])
	case KindIff:
		return f.Iff(args[0], args[1])
	case KindEquals:
		return f.Equals(args[0], args[1])
	case KindLE:
		return f.LE(args[0], args[1])
	case KindLT:
		return f.LT(args[0], args[1])
	case KindPlus:
		return f.Plus(args...)
	case KindMinus:
		return f.Minus(args[0], args[1])
	case KindTimes:
		return f.Times(args...)
	case KindDiv:
		return f.Div(args[0], args[1])
	case KindFluentExp:
		return f.FluentExp(n.Fluent(), args...)
	}
	return nil, fmt.Errorf("%w: cannot substitute into node kind %d", ErrDefinition, n.kind)
}

// SubstituteEffect rebuilds an effect with ground parameters and variables.
func SubstituteEffect(e *Effect, params map[*Parameter]*Node, vars map[*Variable]*Node) (*Effect, error) {
	fl, err := Substitute(e.fluent, params, vars)
	if err != nil {
		return nil, err
	}
	val, err := Substitute(e.value, params, vars)
	if err != nil {
		return nil, err
	}
	cond, err := Substitute(e.condition, params, vars)
	if err != nil {
		return nil, err
	}
	if fl == e.fluent && val == e.value && cond == e.condition {
		return e, nil
	}
	// Forall variables bound by the effect itself survive substitution.
	forall := e.forall
	if len(vars) > 0 && len(forall) > 0 {
		kept := make([]*Variable, 0, len(forall))
		for _, v := range forall {
			if _, bound := vars[v]; !bound {
				kept = append(kept, v)
			}
		}
		forall = kept
	}
	return NewEffect(e.kind, fl, val, cond, forall...)
}
