package dsl

import (
	"fmt"

	"github.com/aretw0/bramble/pkg/model"
)

// Builder accumulates a problem definition. The first error encountered
// sticks: later calls become no-ops and Build reports it.
type Builder struct {
	problem *model.Problem
	err     error
}

// New creates a builder for a problem with the given name.
func New(name string) *Builder {
	return &Builder{problem: model.NewProblem(name)}
}

// Env exposes the underlying environment for callers that want to build
// expression nodes with the factory directly.
func (b *Builder) Env() *model.Environment { return b.problem.Environment() }

// Err returns the first error recorded so far, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Type declares a user type, returning the interned type.
func (b *Builder) Type(name string) *model.Type {
	return b.Env().UserType(name)
}

// Objects declares objects of the named user type.
func (b *Builder) Objects(typeName string, names ...string) *Builder {
	if b.err != nil {
		return b
	}
	t := b.Env().UserType(typeName)
	for _, name := range names {
		if _, err := b.problem.AddObject(name, t); err != nil {
			b.fail(err)
			return b
		}
	}
	return b
}

// Param creates a typed parameter for a fluent signature.
func (b *Builder) Param(name, typeName string) *model.Parameter {
	t, err := b.resolveType(typeName)
	if err != nil {
		b.fail(err)
		return nil
	}
	return model.NewParameter(name, t)
}

// BoolFluent declares a boolean fluent. def may be nil for no default.
func (b *Builder) BoolFluent(name string, def any, params ...*model.Parameter) *model.Fluent {
	return b.fluent(name, b.Env().BoolType(), def, params)
}

// IntFluent declares an integer fluent. def may be nil for no default.
func (b *Builder) IntFluent(name string, def any, params ...*model.Parameter) *model.Fluent {
	return b.fluent(name, b.Env().IntType(), def, params)
}

// RealFluent declares a real-valued fluent. def may be nil for no default.
func (b *Builder) RealFluent(name string, def any, params ...*model.Parameter) *model.Fluent {
	return b.fluent(name, b.Env().RealType(), def, params)
}

// ObjectFluent declares a fluent ranging over the named user type.
func (b *Builder) ObjectFluent(name, typeName string, def any, params ...*model.Parameter) *model.Fluent {
	t, err := b.resolveType(typeName)
	if err != nil {
		b.fail(err)
		return nil
	}
	return b.fluent(name, t, def, params)
}

func (b *Builder) fluent(name string, t *model.Type, def any, params []*model.Parameter) *model.Fluent {
	if b.err != nil {
		return nil
	}
	for _, p := range params {
		if p == nil {
			return nil // a Param call already failed
		}
	}
	f := model.NewFluent(b.Env(), name, t, params...)
	if err := b.problem.AddFluent(f, def); err != nil {
		b.fail(err)
		return nil
	}
	return f
}

// Ref builds a ground fluent expression by declared name.
func (b *Builder) Ref(name string, args ...any) *model.Node {
	if b.err != nil {
		return nil
	}
	f, ok := b.problem.Fluent(name)
	if !ok {
		b.fail(fmt.Errorf("%w: unknown fluent %q", model.ErrDefinition, name))
		return nil
	}
	n, err := b.Env().Factory().FluentExp(f, args...)
	if err != nil {
		b.fail(err)
		return nil
	}
	return n
}

// Obj builds an expression referencing a declared object by name.
func (b *Builder) Obj(name string) *model.Node {
	if b.err != nil {
		return nil
	}
	o, ok := b.problem.Object(name)
	if !ok {
		b.fail(fmt.Errorf("%w: unknown object %q", model.ErrDefinition, name))
		return nil
	}
	n, err := b.Env().Factory().ObjectExp(o)
	if err != nil {
		b.fail(err)
		return nil
	}
	return n
}

// Not negates a boolean expression.
func (b *Builder) Not(arg any) *model.Node { return b.lift1(b.Env().Factory().Not, arg) }

// And builds a conjunction.
func (b *Builder) And(args ...any) *model.Node { return b.liftN(b.Env().Factory().And, args) }

// Or builds a disjunction.
func (b *Builder) Or(args ...any) *model.Node { return b.liftN(b.Env().Factory().Or, args) }

// Equals builds an equality test.
func (b *Builder) Equals(x, y any) *model.Node { return b.lift2(b.Env().Factory().Equals, x, y) }

// LE builds x <= y.
func (b *Builder) LE(x, y any) *model.Node { return b.lift2(b.Env().Factory().LE, x, y) }

// LT builds x < y.
func (b *Builder) LT(x, y any) *model.Node { return b.lift2(b.Env().Factory().LT, x, y) }

// GE builds x >= y.
func (b *Builder) GE(x, y any) *model.Node { return b.lift2(b.Env().Factory().GE, x, y) }

// GT builds x > y.
func (b *Builder) GT(x, y any) *model.Node { return b.lift2(b.Env().Factory().GT, x, y) }

// Plus builds a sum.
func (b *Builder) Plus(args ...any) *model.Node { return b.liftN(b.Env().Factory().Plus, args) }

// Minus builds x - y.
func (b *Builder) Minus(x, y any) *model.Node { return b.lift2(b.Env().Factory().Minus, x, y) }

func (b *Builder) lift1(fn func(any) (*model.Node, error), arg any) *model.Node {
	if b.err != nil {
		return nil
	}
	n, err := fn(arg)
	b.fail(err)
	return n
}

func (b *Builder) lift2(fn func(any, any) (*model.Node, error), x, y any) *model.Node {
	if b.err != nil {
		return nil
	}
	n, err := fn(x, y)
	b.fail(err)
	return n
}

func (b *Builder) liftN(fn func(...any) (*model.Node, error), args []any) *model.Node {
	if b.err != nil {
		return nil
	}
	n, err := fn(args...)
	b.fail(err)
	return n
}

// Init records an initial value for a ground fluent expression.
func (b *Builder) Init(target, value any) *Builder {
	if b.err != nil {
		return b
	}
	b.fail(b.problem.SetInitialValue(target, value))
	return b
}

// Goal adds a goal condition.
func (b *Builder) Goal(cond any) *Builder {
	if b.err != nil {
		return b
	}
	b.fail(b.problem.AddGoal(cond))
	return b
}

// Action declares an instantaneous action and returns its builder.
func (b *Builder) Action(name string) *ActionBuilder {
	a := model.NewInstantaneousAction(b.Env(), name)
	if b.err == nil {
		b.fail(b.problem.AddAction(a))
	}
	return &ActionBuilder{b: b, action: a}
}

// Durative declares a durative action and returns its builder.
func (b *Builder) Durative(name string) *ActionBuilder {
	a := model.NewDurativeAction(b.Env(), name)
	if b.err == nil {
		b.fail(b.problem.AddAction(a))
	}
	return &ActionBuilder{b: b, action: a}
}

// Build returns the assembled problem, or the first error recorded while
// defining it.
func (b *Builder) Build() (*model.Problem, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.problem, nil
}

func (b *Builder) resolveType(name string) (*model.Type, error) {
	switch name {
	case "bool", "boolean":
		return b.Env().BoolType(), nil
	case "int", "integer":
		return b.Env().IntType(), nil
	case "real", "float":
		return b.Env().RealType(), nil
	}
	return b.Env().UserType(name), nil
}
