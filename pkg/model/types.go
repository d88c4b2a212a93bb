package model

// TypeKind discriminates the built-in type families.
type TypeKind uint8

const (
	BoolKind TypeKind = iota + 1
	IntKind
	RealKind
	// UserKind is a named object type declared by the domain (e.g. "location").
	UserKind
)

// Type is an interned type descriptor. Types are created through an
// Environment and compared by pointer.
type Type struct {
	kind TypeKind
	name string
}

// Kind returns the type family.
func (t *Type) Kind() TypeKind { return t.kind }

// Name returns the declared name for user types, or the builtin name.
func (t *Type) Name() string { return t.name }

// IsNumeric reports whether the type is int or real.
func (t *Type) IsNumeric() bool { return t.kind == IntKind || t.kind == RealKind }

func (t *Type) String() string { return t.name }

// compatible reports whether a value of type `from` may appear where `to` is
// expected. Int promotes to real; everything else must match exactly.
func compatible(from, to *Type) bool {
	if from == to {
		return true
	}
	return from.kind == IntKind && to.kind == RealKind
}
