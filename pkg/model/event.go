package model

import (
	"fmt"
	"strings"
)

// Event bundles the conditions and effects applied at a single simulation
// step. Events are immutable after construction.
type Event struct {
	conditions []*Node
	effects    []*Effect
	simulated  *SimulatedEffect
}

// NewEvent creates an event.
func NewEvent(conditions []*Node, effects []*Effect, simulated *SimulatedEffect) *Event {
	return &Event{conditions: conditions, effects: effects, simulated: simulated}
}

// Conditions returns the boolean conditions gating the event.
func (e *Event) Conditions() []*Node { return e.conditions }

// Effects returns the event effects.
func (e *Event) Effects() []*Effect { return e.effects }

// Simulated returns the black-box effect, if any.
func (e *Event) Simulated() *SimulatedEffect { return e.simulated }

// EventKind tags the role a temporal event plays inside its durative action.
type EventKind uint8

const (
	// StartAction marks the action start. Every decomposition yields exactly one.
	StartAction EventKind = iota + 1
	// EndAction marks the action end. Every decomposition yields exactly one.
	EndAction
	// StartCondition begins a span condition that must hold until its
	// matching EndCondition fires.
	StartCondition
	// EndCondition closes the span condition opened by its StartCondition.
	EndCondition
	// IntermediateConditionEffect carries point conditions/effects strictly
	// between start and end.
	IntermediateConditionEffect
)

func (k EventKind) String() string {
	switch k {
	case StartAction:
		return "start_action"
	case EndAction:
		return "end_action"
	case StartCondition:
		return "start_condition"
	case EndCondition:
		return "end_condition"
	case IntermediateConditionEffect:
		return "intermediate"
	}
	return "unknown"
}

// TemporalEvent is an Event pinned to a timepoint of a grounded durative
// action (or the single event of a grounded instantaneous action).
//
// Temporal events are cached per (action, ground parameters), so identity
// comparison on *TemporalEvent is meaningful: the running-event agenda and
// the STN both track events by pointer.
type TemporalEvent struct {
	Event
	kind      EventKind
	timing    Timing
	inclusive bool
	action    *Action
	params    []*Node
}

// NewTemporalEvent creates a timed event owned by a grounded action.
func NewTemporalEvent(kind EventKind, timing Timing, inclusive bool,
	conditions []*Node, effects []*Effect, simulated *SimulatedEffect,
	action *Action, params []*Node) *TemporalEvent {
	return &TemporalEvent{
		Event:     Event{conditions: conditions, effects: effects, simulated: simulated},
		kind:      kind,
		timing:    timing,
		inclusive: inclusive,
		action:    action,
		params:    params,
	}
}

// EventKind returns the role tag.
func (e *TemporalEvent) EventKind() EventKind { return e.kind }

// Timing returns the timepoint within the owning action.
func (e *TemporalEvent) Timing() Timing { return e.timing }

// Inclusive reports whether the timepoint itself is part of the span the
// event opens or closes.
func (e *TemporalEvent) Inclusive() bool { return e.inclusive }

// Action returns the owning lifted action.
func (e *TemporalEvent) Action() *Action { return e.action }

// Params returns the ground parameters of the owning action instance.
func (e *TemporalEvent) Params() []*Node { return e.params }

func (e *TemporalEvent) String() string {
	parts := make([]string, len(e.params))
	for i, p := range e.params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s@%s %s(%s)", e.kind, e.timing, e.action.Name(), strings.Join(parts, ", "))
}
