package model

// Environment owns the type system and the expression Factory.
// All fluents, objects, actions and expression nodes of a problem belong to
// exactly one Environment; mixing environments is a usage error surfaced as
// ErrEnvironmentMismatch by the Factory.
type Environment struct {
	factory   *Factory
	boolType  *Type
	intType   *Type
	realType  *Type
	userTypes map[string]*Type
}

// NewEnvironment creates an empty environment with a fresh Factory.
func NewEnvironment() *Environment {
	env := &Environment{
		boolType:  &Type{kind: BoolKind, name: "bool"},
		intType:   &Type{kind: IntKind, name: "int"},
		realType:  &Type{kind: RealKind, name: "real"},
		userTypes: make(map[string]*Type),
	}
	env.factory = newFactory(env)
	return env
}

// Factory returns the environment's expression factory.
func (e *Environment) Factory() *Factory { return e.factory }

// BoolType returns the interned boolean type.
func (e *Environment) BoolType() *Type { return e.boolType }

// IntType returns the interned integer type.
func (e *Environment) IntType() *Type { return e.intType }

// RealType returns the interned real type.
func (e *Environment) RealType() *Type { return e.realType }

// UserType returns the interned object type with the given name, declaring
// it on first use.
func (e *Environment) UserType(name string) *Type {
	if t, ok := e.userTypes[name]; ok {
		return t
	}
	t := &Type{kind: UserKind, name: name}
	e.userTypes[name] = t
	return t
}

// HasUserType reports whether a user type with the given name was declared.
func (e *Environment) HasUserType(name string) bool {
	_, ok := e.userTypes[name]
	return ok
}
