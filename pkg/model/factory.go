package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Factory builds hash-consed expression nodes. Each Environment owns exactly
// one Factory; all nodes it returns live for the lifetime of the factory.
//
// Construction is idempotent: structurally equal inputs yield the identical
// *Node. Cheap local simplifications (n-ary identities, double negation) are
// applied eagerly, and type checking runs once per newly interned node.
//
// A Factory is not safe for concurrent writers; the reference design assumes
// single-writer access per simulator instance.
type Factory struct {
	env   *Environment
	table map[string]*Node
}

func newFactory(env *Environment) *Factory {
	return &Factory{env: env, table: make(map[string]*Node)}
}

// Environment returns the owning environment.
func (f *Factory) Environment() *Environment { return f.env }

// Size returns the number of interned nodes, for introspection and tests.
func (f *Factory) Size() int { return len(f.table) }

// nodeKey builds the structural memoization key. Children are canonical, so
// their pointers identify them; payload entities are likewise keyed by
// pointer, constants by literal value.
func nodeKey(kind Kind, args []*Node, payload any) string {
	var b strings.Builder
	b.WriteByte(byte(kind))
	for _, a := range args {
		fmt.Fprintf(&b, "|%p", a)
	}
	switch p := payload.(type) {
	case nil:
	case bool:
		b.WriteString("#")
		b.WriteString(strconv.FormatBool(p))
	case int64:
		b.WriteString("#")
		b.WriteString(strconv.FormatInt(p, 10))
	case float64:
		b.WriteString("#")
		b.WriteString(strconv.FormatFloat(p, 'g', -1, 64))
	case Timing:
		b.WriteString("#")
		b.WriteString(p.String())
	case []*Variable:
		for _, v := range p {
			fmt.Fprintf(&b, "#%p", v)
		}
	default:
		fmt.Fprintf(&b, "#%p", p)
	}
	return b.String()
}

// intern returns the canonical node for (kind, args, payload), creating and
// type-checking it on first sight.
func (f *Factory) intern(kind Kind, args []*Node, payload any) (*Node, error) {
	for _, a := range args {
		if a.env != f.env {
			return nil, fmt.Errorf("%w: argument %s", ErrEnvironmentMismatch, a)
		}
	}
	key := nodeKey(kind, args, payload)
	if n, ok := f.table[key]; ok {
		return n, nil
	}
	typ, err := f.typeOf(kind, args, payload)
	if err != nil {
		return nil, err
	}
	n := &Node{kind: kind, args: args, payload: payload, typ: typ, env: f.env, key: key}
	f.table[key] = n
	return n, nil
}

// typeOf computes the result type of a new node, failing on operand types
// incompatible with the operator. Runs only on memoization misses.
func (f *Factory) typeOf(kind Kind, args []*Node, payload any) (*Type, error) {
	env := f.env
	switch kind {
	case KindBoolConst:
		return env.boolType, nil
	case KindIntConst:
		return env.intType, nil
	case KindRealConst:
		return env.realType, nil
	case KindParamExp:
		return payload.(*Parameter).typ, nil
	case KindVariableExp:
		return payload.(*Variable).typ, nil
	case KindObjectExp:
		return payload.(*Object).typ, nil
	case KindTimingExp:
		return env.realType, nil
	case KindFluentExp:
		fl := payload.(*Fluent)
		if fl.env != env {
			return nil, fmt.Errorf("%w: fluent %s", ErrEnvironmentMismatch, fl.name)
		}
		if len(args) != len(fl.params) {
			return nil, fmt.Errorf("%w: fluent %s expects %d arguments, got %d",
				ErrDefinition, fl.name, len(fl.params), len(args))
		}
		for i, a := range args {
			if !compatible(a.typ, fl.params[i].typ) {
				return nil, fmt.Errorf("%w: fluent %s argument %d: want %s, got %s",
					ErrTypeMismatch, fl.name, i, fl.params[i].typ, a.typ)
			}
		}
		return fl.typ, nil
	case KindAnd, KindOr, KindNot, KindImplies, KindIff:
		for _, a := range args {
			if a.typ.kind != BoolKind {
				return nil, fmt.Errorf("%w: %s expects boolean operands, got %s (%s)",
					ErrTypeMismatch, kindNames[kind], a.typ, a)
			}
		}
		return env.boolType, nil
	case KindExists, KindForall:
		if args[0].typ.kind != BoolKind {
			return nil, fmt.Errorf("%w: quantifier body must be boolean, got %s",
				ErrTypeMismatch, args[0].typ)
		}
		return env.boolType, nil
	case KindEquals:
		a, b := args[0].typ, args[1].typ
		if a.IsNumeric() && b.IsNumeric() {
			return env.boolType, nil
		}
		if a != b {
			return nil, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, a, b)
		}
		return env.boolType, nil
	case KindLE, KindLT:
		for _, a := range args {
			if !a.typ.IsNumeric() {
				return nil, fmt.Errorf("%w: ordering expects numeric operands, got %s",
					ErrTypeMismatch, a.typ)
			}
		}
		return env.boolType, nil
	case KindPlus, KindMinus, KindTimes, KindDiv:
		result := env.intType
		if kind == KindDiv {
			result = env.realType
		}
		for _, a := range args {
			if !a.typ.IsNumeric() {
				return nil, fmt.Errorf("%w: arithmetic expects numeric operands, got %s (%s)",
					ErrTypeMismatch, a.typ, a)
			}
			if a.typ.kind == RealKind {
				result = env.realType
			}
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: unknown node kind %d", ErrDefinition, kind)
}

// Bool returns the canonical boolean constant.
func (f *Factory) Bool(b bool) *Node {
	n, _ := f.intern(KindBoolConst, nil, b)
	return n
}

// TRUE returns the canonical true constant.
func (f *Factory) TRUE() *Node { return f.Bool(true) }

// FALSE returns the canonical false constant.
func (f *Factory) FALSE() *Node { return f.Bool(false) }

// Int returns the canonical integer constant.
func (f *Factory) Int(i int64) *Node {
	n, _ := f.intern(KindIntConst, nil, i)
	return n
}

// Real returns the canonical real constant.
func (f *Factory) Real(r float64) *Node {
	n, _ := f.intern(KindRealConst, nil, r)
	return n
}

// ParamExp wraps an action or fluent parameter as an expression.
func (f *Factory) ParamExp(p *Parameter) *Node {
	n, _ := f.intern(KindParamExp, nil, p)
	return n
}

// VarExp wraps a quantified variable as an expression.
func (f *Factory) VarExp(v *Variable) *Node {
	n, _ := f.intern(KindVariableExp, nil, v)
	return n
}

// ObjectExp wraps a domain object as an expression.
func (f *Factory) ObjectExp(o *Object) (*Node, error) {
	if o.env != f.env {
		return nil, fmt.Errorf("%w: object %s", ErrEnvironmentMismatch, o.name)
	}
	return f.intern(KindObjectExp, nil, o)
}

// TimingExp wraps a timing as a (real-valued) expression.
func (f *Factory) TimingExp(t Timing) *Node {
	n, _ := f.intern(KindTimingExp, nil, t)
	return n
}

// FluentExp applies a fluent to arguments, which are auto-promoted.
func (f *Factory) FluentExp(fl *Fluent, args ...any) (*Node, error) {
	nodes, err := f.autoAll(args)
	if err != nil {
		return nil, err
	}
	return f.intern(KindFluentExp, nodes, fl)
}

// Auto lifts a raw Go value into a canonical expression node.
// *Node values pass through untouched (after an environment check).
func (f *Factory) Auto(v any) (*Node, error) {
	switch x := v.(type) {
	case *Node:
		if x.env != f.env {
			return nil, fmt.Errorf("%w: %s", ErrEnvironmentMismatch, x)
		}
		return x, nil
	case bool:
		return f.Bool(x), nil
	case int:
		return f.Int(int64(x)), nil
	case int64:
		return f.Int(x), nil
	case float64:
		return f.Real(x), nil
	case *Fluent:
		return f.FluentExp(x)
	case *Parameter:
		return f.ParamExp(x), nil
	case *Variable:
		return f.VarExp(x), nil
	case *Object:
		return f.ObjectExp(x)
	case Timing:
		return f.TimingExp(x), nil
	default:
		return nil, fmt.Errorf("%w: cannot promote %T to an expression", ErrDefinition, v)
	}
}

func (f *Factory) autoAll(args []any) ([]*Node, error) {
	nodes := make([]*Node, len(args))
	for i, a := range args {
		n, err := f.Auto(a)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

// And builds a conjunction. And() is TRUE, And(x) is x.
func (f *Factory) And(args ...any) (*Node, error) {
	nodes, err := f.autoAll(args)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return f.TRUE(), nil
	case 1:
		return nodes[0], nil
	}
	return f.intern(KindAnd, nodes, nil)
}

// Or builds a disjunction. Or() is FALSE, Or(x) is x.
func (f *Factory) Or(args ...any) (*Node, error) {
	nodes, err := f.autoAll(args)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return f.FALSE(), nil
	case 1:
		return nodes[0], nil
	}
	return f.intern(KindOr, nodes, nil)
}

// Not negates a boolean expression. Not(Not(x)) returns x itself.
func (f *Factory) Not(arg any) (*Node, error) {
	n, err := f.Auto(arg)
	if err != nil {
		return nil, err
	}
	if n.kind == KindNot {
		return n.args[0], nil
	}
	return f.intern(KindNot, []*Node{n}, nil)
}

// Implies builds a material implication.
func (f *Factory) Implies(a, b any) (*Node, error) {
	return f.binary(KindImplies, a, b)
}

// Iff builds a biconditional.
func (f *Factory) Iff(a, b any) (*Node, error) {
	return f.binary(KindIff, a, b)
}

// Equals builds an equality test.
func (f *Factory) Equals(a, b any) (*Node, error) {
	return f.binary(KindEquals, a, b)
}

// LE builds a <= b.
func (f *Factory) LE(a, b any) (*Node, error) { return f.binary(KindLE, a, b) }

// LT builds a < b.
func (f *Factory) LT(a, b any) (*Node, error) { return f.binary(KindLT, a, b) }

// GE builds a >= b, canonicalized as b <= a.
func (f *Factory) GE(a, b any) (*Node, error) { return f.binary(KindLE, b, a) }

// GT builds a > b, canonicalized as b < a.
func (f *Factory) GT(a, b any) (*Node, error) { return f.binary(KindLT, b, a) }

func (f *Factory) binary(kind Kind, a, b any) (*Node, error) {
	na, err := f.Auto(a)
	if err != nil {
		return nil, err
	}
	nb, err := f.Auto(b)
	if err != nil {
		return nil, err
	}
	return f.intern(kind, []*Node{na, nb}, nil)
}

// Plus builds a sum. Plus() is 0, Plus(x) is x.
func (f *Factory) Plus(args ...any) (*Node, error) {
	nodes, err := f.autoAll(args)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return f.Int(0), nil
	case 1:
		return nodes[0], nil
	}
	return f.intern(KindPlus, nodes, nil)
}

// Times builds a product. Times() is 1, Times(x) is x.
func (f *Factory) Times(args ...any) (*Node, error) {
	nodes, err := f.autoAll(args)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return f.Int(1), nil
	case 1:
		return nodes[0], nil
	}
	return f.intern(KindTimes, nodes, nil)
}

// Minus builds a - b.
func (f *Factory) Minus(a, b any) (*Node, error) { return f.binary(KindMinus, a, b) }

// Div builds a / b (real-valued).
func (f *Factory) Div(a, b any) (*Node, error) { return f.binary(KindDiv, a, b) }

// Exists builds an existential quantifier over at least one variable.
func (f *Factory) Exists(body any, vars ...*Variable) (*Node, error) {
	return f.quantifier(KindExists, body, vars)
}

// Forall builds a universal quantifier over at least one variable.
func (f *Factory) Forall(body any, vars ...*Variable) (*Node, error) {
	return f.quantifier(KindForall, body, vars)
}

func (f *Factory) quantifier(kind Kind, body any, vars []*Variable) (*Node, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: quantifier with no bound variables", ErrDefinition)
	}
	n, err := f.Auto(body)
	if err != nil {
		return nil, err
	}
	return f.intern(kind, []*Node{n}, vars)
}
