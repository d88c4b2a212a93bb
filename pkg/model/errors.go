package model

import "errors"

// ErrEnvironmentMismatch is returned when expressions or entities from one
// Environment are combined with another Environment's factory.
var ErrEnvironmentMismatch = errors.New("expression belongs to a different environment")

// ErrTypeMismatch is returned when an operator is applied to operands of
// incompatible types. Type checking happens once, when a node is first built.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrDefinition is returned for structurally malformed definitions,
// e.g. a quantifier with no bound variables or a duplicate parameter name.
var ErrDefinition = errors.New("malformed definition")
