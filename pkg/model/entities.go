package model

// Fluent is a named, possibly parameterized state variable.
// Its value in a state is looked up through a ground fluent expression
// (Factory.FluentExp with fully instantiated arguments).
type Fluent struct {
	name   string
	typ    *Type
	params []*Parameter
	env    *Environment
}

// NewFluent declares a fluent in the given environment.
func NewFluent(env *Environment, name string, result *Type, params ...*Parameter) *Fluent {
	return &Fluent{name: name, typ: result, params: params, env: env}
}

// Name returns the fluent name.
func (f *Fluent) Name() string { return f.name }

// Type returns the fluent value type.
func (f *Fluent) Type() *Type { return f.typ }

// Parameters returns the fluent signature.
func (f *Fluent) Parameters() []*Parameter { return f.params }

// Arity returns the number of fluent parameters.
func (f *Fluent) Arity() int { return len(f.params) }

func (f *Fluent) String() string { return f.name }

// Parameter is a typed formal parameter of an action or fluent.
type Parameter struct {
	name string
	typ  *Type
}

// NewParameter creates a typed parameter.
func NewParameter(name string, t *Type) *Parameter {
	return &Parameter{name: name, typ: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Type returns the parameter type.
func (p *Parameter) Type() *Type { return p.typ }

func (p *Parameter) String() string { return p.name }

// Variable is a typed quantified variable (Exists/Forall, effect forall).
type Variable struct {
	name string
	typ  *Type
}

// NewVariable creates a typed quantified variable.
func NewVariable(name string, t *Type) *Variable {
	return &Variable{name: name, typ: t}
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Type returns the variable type.
func (v *Variable) Type() *Type { return v.typ }

func (v *Variable) String() string { return v.name }

// Object is a concrete domain object of a user type.
// Objects are declared through Problem.AddObject.
type Object struct {
	name string
	typ  *Type
	env  *Environment
}

// Name returns the object name.
func (o *Object) Name() string { return o.name }

// Type returns the object type.
func (o *Object) Type() *Type { return o.typ }

func (o *Object) String() string { return o.name }
