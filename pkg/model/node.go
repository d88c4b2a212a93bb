package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the operator tag of an expression node.
type Kind uint8

const (
	KindAnd Kind = iota + 1
	KindOr
	KindNot
	KindImplies
	KindIff
	KindExists
	KindForall
	KindEquals
	KindLE
	KindLT
	KindPlus
	KindMinus
	KindTimes
	KindDiv
	KindFluentExp
	KindParamExp
	KindVariableExp
	KindObjectExp
	KindTimingExp
	KindBoolConst
	KindIntConst
	KindRealConst
)

var kindNames = map[Kind]string{
	KindAnd: "and", KindOr: "or", KindNot: "not", KindImplies: "implies",
	KindIff: "iff", KindExists: "exists", KindForall: "forall",
	KindEquals: "==", KindLE: "<=", KindLT: "<",
	KindPlus: "+", KindMinus: "-", KindTimes: "*", KindDiv: "/",
}

// Node is an immutable, hash-consed expression. Two nodes built through the
// same Factory with structurally equal content are the same pointer, so ==
// on *Node is structural equality. Nodes are never mutated after creation.
type Node struct {
	kind    Kind
	args    []*Node
	payload any
	typ     *Type
	env     *Environment
	key     string
}

// Kind returns the operator tag.
func (n *Node) Kind() Kind { return n.kind }

// Args returns the child expressions. Callers must not modify the slice.
func (n *Node) Args() []*Node { return n.args }

// Arg returns the i-th child expression.
func (n *Node) Arg(i int) *Node { return n.args[i] }

// Type returns the expression type.
func (n *Node) Type() *Type { return n.typ }

// Environment returns the owning environment.
func (n *Node) Environment() *Environment { return n.env }

// IsConstant reports whether the node is a boolean, int or real constant.
func (n *Node) IsConstant() bool {
	return n.kind == KindBoolConst || n.kind == KindIntConst || n.kind == KindRealConst
}

// IsTrue reports whether the node is the boolean constant true.
func (n *Node) IsTrue() bool { return n.kind == KindBoolConst && n.payload.(bool) }

// IsFalse reports whether the node is the boolean constant false.
func (n *Node) IsFalse() bool { return n.kind == KindBoolConst && !n.payload.(bool) }

// IsFluentExp reports whether the node applies a fluent to arguments.
func (n *Node) IsFluentExp() bool { return n.kind == KindFluentExp }

// Bool returns the payload of a boolean constant.
func (n *Node) Bool() bool { return n.payload.(bool) }

// Int returns the payload of an integer constant.
func (n *Node) Int() int64 { return n.payload.(int64) }

// Real returns the payload of a real constant. Integer constants are
// promoted, so Real is safe on any numeric constant.
func (n *Node) Real() float64 {
	if n.kind == KindIntConst {
		return float64(n.payload.(int64))
	}
	return n.payload.(float64)
}

// Fluent returns the payload of a fluent expression.
func (n *Node) Fluent() *Fluent { return n.payload.(*Fluent) }

// Parameter returns the payload of a parameter expression.
func (n *Node) Parameter() *Parameter { return n.payload.(*Parameter) }

// Variable returns the payload of a variable expression.
func (n *Node) Variable() *Variable { return n.payload.(*Variable) }

// Object returns the payload of an object expression.
func (n *Node) Object() *Object { return n.payload.(*Object) }

// Timing returns the payload of a timing expression.
func (n *Node) Timing() Timing { return n.payload.(Timing) }

// Vars returns the bound variables of a quantifier node.
func (n *Node) Vars() []*Variable { return n.payload.([]*Variable) }

// String renders a canonical textual form: constants and leaves by value,
// fluent applications as name(arg, ...), compounds in prefix form.
func (n *Node) String() string {
	switch n.kind {
	case KindBoolConst:
		return strconv.FormatBool(n.payload.(bool))
	case KindIntConst:
		return strconv.FormatInt(n.payload.(int64), 10)
	case KindRealConst:
		return strconv.FormatFloat(n.payload.(float64), 'g', -1, 64)
	case KindParamExp:
		return n.Parameter().Name()
	case KindVariableExp:
		return n.Variable().Name()
	case KindObjectExp:
		return n.Object().Name()
	case KindTimingExp:
		return n.Timing().String()
	case KindFluentExp:
		if len(n.args) == 0 {
			return n.Fluent().Name()
		}
		parts := make([]string, len(n.args))
		for i, a := range n.args {
			parts[i] = a.String()
		}
		return n.Fluent().Name() + "(" + strings.Join(parts, ", ") + ")"
	case KindExists, KindForall:
		var b strings.Builder
		b.WriteString("(")
		if n.kind == KindExists {
			b.WriteString("exists")
		} else {
			b.WriteString("forall")
		}
		for _, v := range n.Vars() {
			fmt.Fprintf(&b, " %s:%s", v.Name(), v.Type().Name())
		}
		b.WriteString(" . ")
		b.WriteString(n.args[0].String())
		b.WriteString(")")
		return b.String()
	default:
		parts := make([]string, len(n.args))
		for i, a := range n.args {
			parts[i] = a.String()
		}
		return "(" + kindNames[n.kind] + " " + strings.Join(parts, " ") + ")"
	}
}
