package simulator

import "errors"

// ErrUsage is returned for malformed calls: parameter arity or type
// mismatches, non-ground parameters, events that are not due on any
// running-event list.
var ErrUsage = errors.New("invalid simulator call")

// ErrConflictingEffects is returned when two effects in the same application
// write the same ground fluent incompatibly. This signals a malformed action
// or problem, not a recoverable runtime condition.
var ErrConflictingEffects = errors.New("conflicting effects")

// ErrUnsupportedAction is returned for action shapes an engine does not
// implement. It is a distinct, non-recoverable error kind, never a silent
// no-op.
var ErrUnsupportedAction = errors.New("unsupported action kind")

// ErrNotGround is returned when evaluation reaches a free parameter or
// variable.
var ErrNotGround = errors.New("expression is not ground")
