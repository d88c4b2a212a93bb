package model

import (
	"fmt"
	"slices"
	"strings"
)

// EffectKind is the state-mutation rule of an effect.
type EffectKind uint8

const (
	// Assign overwrites the target fluent with the value.
	Assign EffectKind = iota + 1
	// Increase adds the value to the target fluent.
	Increase
	// Decrease subtracts the value from the target fluent.
	Decrease
)

func (k EffectKind) String() string {
	switch k {
	case Assign:
		return "assign"
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	}
	return "unknown"
}

// Effect is a single immutable state-mutation rule: when condition holds,
// apply kind(fluent, value), once per binding of the forall variables.
type Effect struct {
	fluent    *Node
	value     *Node
	condition *Node
	kind      EffectKind
	forall    []*Variable
}

// NewEffect builds and validates an effect. A nil condition means
// unconditional. The target must be a fluent expression; increase/decrease
// require a numeric fluent and value.
func NewEffect(kind EffectKind, fluent, value, condition *Node, forall ...*Variable) (*Effect, error) {
	if !fluent.IsFluentExp() {
		return nil, fmt.Errorf("%w: effect target must be a fluent expression, got %s",
			ErrDefinition, fluent)
	}
	env := fluent.Environment()
	if value.Environment() != env {
		return nil, fmt.Errorf("%w: effect value %s", ErrEnvironmentMismatch, value)
	}
	if condition == nil {
		condition = env.Factory().TRUE()
	} else if condition.Environment() != env {
		return nil, fmt.Errorf("%w: effect condition %s", ErrEnvironmentMismatch, condition)
	}
	if condition.Type().Kind() != BoolKind {
		return nil, fmt.Errorf("%w: effect condition must be boolean, got %s",
			ErrTypeMismatch, condition.Type())
	}
	switch kind {
	case Assign:
		if !compatible(value.Type(), fluent.Type()) {
			return nil, fmt.Errorf("%w: cannot assign %s to fluent of type %s",
				ErrTypeMismatch, value.Type(), fluent.Type())
		}
	case Increase, Decrease:
		if !fluent.Type().IsNumeric() || !value.Type().IsNumeric() {
			return nil, fmt.Errorf("%w: %s requires numeric fluent and value",
				ErrTypeMismatch, kind)
		}
	default:
		return nil, fmt.Errorf("%w: unknown effect kind %d", ErrDefinition, kind)
	}
	return &Effect{fluent: fluent, value: value, condition: condition, kind: kind, forall: forall}, nil
}

// Fluent returns the target fluent expression.
func (e *Effect) Fluent() *Node { return e.fluent }

// Value returns the value expression.
func (e *Effect) Value() *Node { return e.value }

// Condition returns the guard (TRUE when unconditional).
func (e *Effect) Condition() *Node { return e.condition }

// Kind returns the mutation rule.
func (e *Effect) Kind() EffectKind { return e.kind }

// Forall returns the universally quantified variables, if any.
func (e *Effect) Forall() []*Variable { return e.forall }

// IsConditional reports whether the guard is not the constant TRUE.
func (e *Effect) IsConditional() bool { return !e.condition.IsTrue() }

// Equal compares effects structurally. Expression fields are canonical, so
// pointer comparison suffices for them.
func (e *Effect) Equal(o *Effect) bool {
	return e.kind == o.kind && e.fluent == o.fluent && e.value == o.value &&
		e.condition == o.condition && slices.Equal(e.forall, o.forall)
}

func (e *Effect) String() string {
	var b strings.Builder
	if len(e.forall) > 0 {
		b.WriteString("forall")
		for _, v := range e.forall {
			fmt.Fprintf(&b, " %s:%s", v.Name(), v.Type().Name())
		}
		b.WriteString(" . ")
	}
	if e.IsConditional() {
		fmt.Fprintf(&b, "if %s then ", e.condition)
	}
	switch e.kind {
	case Assign:
		fmt.Fprintf(&b, "%s := %s", e.fluent, e.value)
	case Increase:
		fmt.Fprintf(&b, "%s += %s", e.fluent, e.value)
	case Decrease:
		fmt.Fprintf(&b, "%s -= %s", e.fluent, e.value)
	}
	return b.String()
}

// StateReader is the minimal read surface a SimulatedEffect sees: the value
// of a ground fluent expression in some state.
type StateReader interface {
	Value(fluent *Node) (*Node, error)
}

// SimulatedEffect computes new values for a fixed list of fluents as a
// black-box function of the current state. It is applied alongside regular
// effects and participates in the same conflict detection.
type SimulatedEffect struct {
	// Fluents lists the target fluent expressions, in the order Fn yields
	// their new values.
	Fluents []*Node
	// Fn maps the pre-application state to one constant per target fluent.
	Fn func(r StateReader, params []*Node) ([]*Node, error)
}
