package model

import (
	"fmt"
)

// Problem is a complete planning problem: objects, fluents with defaults,
// actions, explicit initial values and goals, all in one Environment.
type Problem struct {
	name string
	env  *Environment

	objects   []*Object
	objByName map[string]*Object

	fluents     []*Fluent
	fluByName   map[string]*Fluent
	defaults    map[*Fluent]*Node
	initial     map[*Node]*Node
	initialKeys []*Node

	actions  []*Action
	actByName map[string]*Action

	goals []*Node
}

// NewProblem creates an empty problem with its own fresh environment.
func NewProblem(name string) *Problem {
	return NewProblemWithEnv(name, NewEnvironment())
}

// NewProblemWithEnv creates an empty problem in an existing environment.
func NewProblemWithEnv(name string, env *Environment) *Problem {
	return &Problem{
		name:      name,
		env:       env,
		objByName: make(map[string]*Object),
		fluByName: make(map[string]*Fluent),
		defaults:  make(map[*Fluent]*Node),
		initial:   make(map[*Node]*Node),
		actByName: make(map[string]*Action),
	}
}

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// Environment returns the owning environment.
func (p *Problem) Environment() *Environment { return p.env }

// AddObject declares a domain object of a user type.
func (p *Problem) AddObject(name string, t *Type) (*Object, error) {
	if t.Kind() != UserKind {
		return nil, fmt.Errorf("%w: objects must have a user type, got %s", ErrDefinition, t)
	}
	if _, dup := p.objByName[name]; dup {
		return nil, fmt.Errorf("%w: duplicate object %q", ErrDefinition, name)
	}
	o := &Object{name: name, typ: t, env: p.env}
	p.objects = append(p.objects, o)
	p.objByName[name] = o
	return o, nil
}

// Object looks up a declared object by name.
func (p *Problem) Object(name string) (*Object, bool) {
	o, ok := p.objByName[name]
	return o, ok
}

// Objects returns all declared objects in declaration order.
func (p *Problem) Objects() []*Object { return p.objects }

// ObjectsOfType returns the objects whose type is exactly t.
func (p *Problem) ObjectsOfType(t *Type) []*Object {
	var out []*Object
	for _, o := range p.objects {
		if o.typ == t {
			out = append(out, o)
		}
	}
	return out
}

// AddFluent declares a fluent. defaultValue (auto-promoted, may be nil)
// seeds the initial valuation for every ground instance not set explicitly.
func (p *Problem) AddFluent(f *Fluent, defaultValue any) error {
	if f.env != p.env {
		return fmt.Errorf("%w: fluent %s", ErrEnvironmentMismatch, f.name)
	}
	if _, dup := p.fluByName[f.name]; dup {
		return fmt.Errorf("%w: duplicate fluent %q", ErrDefinition, f.name)
	}
	if defaultValue != nil {
		n, err := p.env.Factory().Auto(defaultValue)
		if err != nil {
			return err
		}
		if !compatible(n.Type(), f.typ) {
			return fmt.Errorf("%w: default for %s: want %s, got %s",
				ErrTypeMismatch, f.name, f.typ, n.Type())
		}
		p.defaults[f] = n
	}
	p.fluents = append(p.fluents, f)
	p.fluByName[f.name] = f
	return nil
}

// Fluent looks up a declared fluent by name.
func (p *Problem) Fluent(name string) (*Fluent, bool) {
	f, ok := p.fluByName[name]
	return f, ok
}

// Fluents returns all declared fluents.
func (p *Problem) Fluents() []*Fluent { return p.fluents }

// Default returns the declared default value of a fluent, if any.
func (p *Problem) Default(f *Fluent) (*Node, bool) {
	n, ok := p.defaults[f]
	return n, ok
}

// AddAction registers an action.
func (p *Problem) AddAction(a *Action) error {
	if a.env != p.env {
		return fmt.Errorf("%w: action %s", ErrEnvironmentMismatch, a.name)
	}
	if _, dup := p.actByName[a.name]; dup {
		return fmt.Errorf("%w: duplicate action %q", ErrDefinition, a.name)
	}
	p.actions = append(p.actions, a)
	p.actByName[a.name] = a
	return nil
}

// Action looks up a registered action by name.
func (p *Problem) Action(name string) (*Action, bool) {
	a, ok := p.actByName[name]
	return a, ok
}

// Actions returns all registered actions in registration order.
func (p *Problem) Actions() []*Action { return p.actions }

// SetInitialValue sets the initial value of a ground fluent expression.
func (p *Problem) SetInitialValue(fluentExp, value any) error {
	f := p.env.Factory()
	fn, err := f.Auto(fluentExp)
	if err != nil {
		return err
	}
	if !fn.IsFluentExp() {
		return fmt.Errorf("%w: initial value target must be a fluent expression, got %s",
			ErrDefinition, fn)
	}
	vn, err := f.Auto(value)
	if err != nil {
		return err
	}
	if !vn.IsConstant() && vn.Kind() != KindObjectExp {
		return fmt.Errorf("%w: initial value must be a constant, got %s", ErrDefinition, vn)
	}
	if !compatible(vn.Type(), fn.Type()) {
		return fmt.Errorf("%w: initial value for %s: want %s, got %s",
			ErrTypeMismatch, fn, fn.Type(), vn.Type())
	}
	if _, seen := p.initial[fn]; !seen {
		p.initialKeys = append(p.initialKeys, fn)
	}
	p.initial[fn] = vn
	return nil
}

// ExplicitInitialValues returns the explicitly assigned initial values.
func (p *Problem) ExplicitInitialValues() map[*Node]*Node {
	out := make(map[*Node]*Node, len(p.initial))
	for k, v := range p.initial {
		out[k] = v
	}
	return out
}

// AddGoal adds a boolean goal expression.
func (p *Problem) AddGoal(goal any) error {
	n, err := p.env.Factory().Auto(goal)
	if err != nil {
		return err
	}
	if n.Type().Kind() != BoolKind {
		return fmt.Errorf("%w: goal must be boolean, got %s", ErrTypeMismatch, n.Type())
	}
	p.goals = append(p.goals, n)
	return nil
}

// Goals returns the goal expressions.
func (p *Problem) Goals() []*Node { return p.goals }

// InitialValues materializes the complete ground valuation: every ground
// instance of every fluent with only user-typed parameters gets its explicit
// value or the fluent default. A fluent instance with neither is an error.
// Fluents with numeric or boolean parameters contribute only their explicit
// entries (their ground instances are not enumerable).
func (p *Problem) InitialValues() (map[*Node]*Node, error) {
	f := p.env.Factory()
	values := make(map[*Node]*Node, len(p.initial))
	var missing []string

	for _, fl := range p.fluents {
		if !p.enumerable(fl) {
			continue
		}
		def := p.defaults[fl]
		for _, args := range p.groundArgs(fl.params) {
			exp, err := f.FluentExp(fl, args...)
			if err != nil {
				return nil, err
			}
			switch v, ok := p.initial[exp]; {
			case ok:
				values[exp] = v
			case def != nil:
				values[exp] = def
			default:
				missing = append(missing, exp.String())
			}
		}
	}
	// Explicit entries for non-enumerable fluents.
	for _, k := range p.initialKeys {
		if _, done := values[k]; !done {
			values[k] = p.initial[k]
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no initial value for %v", ErrDefinition, missing)
	}
	return values, nil
}

func (p *Problem) enumerable(fl *Fluent) bool {
	for _, pr := range fl.params {
		if pr.typ.Kind() != UserKind {
			return false
		}
	}
	return true
}

// groundArgs enumerates all argument tuples over the object domains of the
// given parameters (cartesian product, declaration order).
func (p *Problem) groundArgs(params []*Parameter) [][]any {
	tuples := [][]any{{}}
	for _, pr := range params {
		objs := p.ObjectsOfType(pr.typ)
		next := make([][]any, 0, len(tuples)*len(objs))
		for _, t := range tuples {
			for _, o := range objs {
				row := make([]any, len(t), len(t)+1)
				copy(row, t)
				next = append(next, append(row, o))
			}
		}
		tuples = next
	}
	return tuples
}
