package model

import (
	"fmt"
	"strings"
)

// ActionKind tags the supported action shapes. Simulators switch on the
// kind with an explicit default-error arm, so an unsupported shape is a
// reported error, never a silent no-op.
type ActionKind uint8

const (
	// InstantaneousKind actions apply all effects atomically.
	InstantaneousKind ActionKind = iota + 1
	// DurativeKind actions span an interval and decompose into timed events.
	DurativeKind
)

func (k ActionKind) String() string {
	switch k {
	case InstantaneousKind:
		return "instantaneous"
	case DurativeKind:
		return "durative"
	}
	return "unknown"
}

// Action is a lifted (parameterized) action of the planning domain.
// The zero value is not usable; construct through NewInstantaneousAction or
// NewDurativeAction.
type Action struct {
	name   string
	env    *Environment
	kind   ActionKind
	params []*Parameter
	byName map[string]*Parameter

	// Instantaneous shape.
	preconditions []*Node
	effects       []*Effect
	simulated     *SimulatedEffect

	// Durative shape.
	duration     Duration
	conditions   map[TimeInterval][]*Node
	timedEffects map[Timing][]*Effect
	timedSim     map[Timing]*SimulatedEffect
}

// NewInstantaneousAction declares an atomic action.
func NewInstantaneousAction(env *Environment, name string) *Action {
	return &Action{
		name:   name,
		env:    env,
		kind:   InstantaneousKind,
		byName: make(map[string]*Parameter),
	}
}

// NewDurativeAction declares a durative action with fixed duration 0 until
// SetDuration is called.
func NewDurativeAction(env *Environment, name string) *Action {
	zero := env.Factory().Int(0)
	return &Action{
		name:         name,
		env:          env,
		kind:         DurativeKind,
		byName:       make(map[string]*Parameter),
		duration:     Duration{Lower: zero, Upper: zero},
		conditions:   make(map[TimeInterval][]*Node),
		timedEffects: make(map[Timing][]*Effect),
		timedSim:     make(map[Timing]*SimulatedEffect),
	}
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Kind returns the action shape tag.
func (a *Action) Kind() ActionKind { return a.kind }

// Environment returns the owning environment.
func (a *Action) Environment() *Environment { return a.env }

// Parameters returns the formal parameters in declaration order.
func (a *Action) Parameters() []*Parameter { return a.params }

// Parameter looks up a formal parameter by name.
func (a *Action) Parameter(name string) (*Parameter, bool) {
	p, ok := a.byName[name]
	return p, ok
}

// NewParameter declares a formal parameter on the action.
func (a *Action) NewParameter(name string, t *Type) (*Parameter, error) {
	if _, dup := a.byName[name]; dup {
		return nil, fmt.Errorf("%w: duplicate parameter %q on action %s", ErrDefinition, name, a.name)
	}
	p := NewParameter(name, t)
	a.params = append(a.params, p)
	a.byName[name] = p
	return p, nil
}

// AddPrecondition adds a boolean precondition to an instantaneous action.
func (a *Action) AddPrecondition(cond any) error {
	if a.kind != InstantaneousKind {
		return fmt.Errorf("%w: preconditions only apply to instantaneous actions", ErrDefinition)
	}
	n, err := a.env.Factory().Auto(cond)
	if err != nil {
		return err
	}
	if n.Type().Kind() != BoolKind {
		return fmt.Errorf("%w: precondition must be boolean, got %s", ErrTypeMismatch, n.Type())
	}
	a.preconditions = append(a.preconditions, n)
	return nil
}

func (a *Action) addEffect(kind EffectKind, target, value, cond any, forall ...*Variable) error {
	if a.kind != InstantaneousKind {
		return fmt.Errorf("%w: untimed effects only apply to instantaneous actions", ErrDefinition)
	}
	eff, err := a.buildEffect(kind, target, value, cond, forall)
	if err != nil {
		return err
	}
	a.effects = append(a.effects, eff)
	return nil
}

func (a *Action) buildEffect(kind EffectKind, target, value, cond any, forall []*Variable) (*Effect, error) {
	f := a.env.Factory()
	tn, err := f.Auto(target)
	if err != nil {
		return nil, err
	}
	vn, err := f.Auto(value)
	if err != nil {
		return nil, err
	}
	var cn *Node
	if cond != nil {
		if cn, err = f.Auto(cond); err != nil {
			return nil, err
		}
	}
	return NewEffect(kind, tn, vn, cn, forall...)
}

// AddEffect adds an unconditional assignment effect.
func (a *Action) AddEffect(target, value any) error {
	return a.addEffect(Assign, target, value, nil)
}

// AddConditionalEffect adds a guarded assignment effect.
func (a *Action) AddConditionalEffect(cond, target, value any) error {
	return a.addEffect(Assign, target, value, cond)
}

// AddIncrease adds an arithmetic increase effect.
func (a *Action) AddIncrease(target, value any) error {
	return a.addEffect(Increase, target, value, nil)
}

// AddDecrease adds an arithmetic decrease effect.
func (a *Action) AddDecrease(target, value any) error {
	return a.addEffect(Decrease, target, value, nil)
}

// AddForallEffect adds an assignment effect quantified over variables.
func (a *Action) AddForallEffect(target, value any, vars ...*Variable) error {
	return a.addEffect(Assign, target, value, nil, vars...)
}

// SetSimulatedEffect attaches a black-box effect to an instantaneous action.
func (a *Action) SetSimulatedEffect(se *SimulatedEffect) error {
	if a.kind != InstantaneousKind {
		return fmt.Errorf("%w: use SetTimedSimulatedEffect on durative actions", ErrDefinition)
	}
	a.simulated = se
	return nil
}

// Preconditions returns the preconditions of an instantaneous action.
func (a *Action) Preconditions() []*Node { return a.preconditions }

// Effects returns the effects of an instantaneous action.
func (a *Action) Effects() []*Effect { return a.effects }

// SimulatedEffect returns the black-box effect, if any.
func (a *Action) SimulatedEffect() *SimulatedEffect { return a.simulated }

// SetDuration bounds the action duration: lower <= end-start <= upper.
func (a *Action) SetDuration(lower, upper any) error {
	if a.kind != DurativeKind {
		return fmt.Errorf("%w: duration only applies to durative actions", ErrDefinition)
	}
	f := a.env.Factory()
	ln, err := f.Auto(lower)
	if err != nil {
		return err
	}
	un, err := f.Auto(upper)
	if err != nil {
		return err
	}
	if !ln.Type().IsNumeric() || !un.Type().IsNumeric() {
		return fmt.Errorf("%w: duration bounds must be numeric", ErrTypeMismatch)
	}
	a.duration = Duration{Lower: ln, Upper: un}
	return nil
}

// SetFixedDuration sets an exact duration.
func (a *Action) SetFixedDuration(d any) error {
	return a.SetDuration(d, d)
}

// Duration returns the duration bounds of a durative action.
func (a *Action) Duration() Duration { return a.duration }

// AddCondition requires cond to hold over the given interval of a durative
// action.
func (a *Action) AddCondition(iv TimeInterval, cond any) error {
	if a.kind != DurativeKind {
		return fmt.Errorf("%w: timed conditions only apply to durative actions", ErrDefinition)
	}
	n, err := a.env.Factory().Auto(cond)
	if err != nil {
		return err
	}
	if n.Type().Kind() != BoolKind {
		return fmt.Errorf("%w: condition must be boolean, got %s", ErrTypeMismatch, n.Type())
	}
	a.conditions[iv] = append(a.conditions[iv], n)
	return nil
}

// AddConditionAt requires cond to hold at a single timepoint.
func (a *Action) AddConditionAt(t Timing, cond any) error {
	return a.AddCondition(PointInterval(t), cond)
}

func (a *Action) addTimedEffect(t Timing, kind EffectKind, target, value, cond any) error {
	if a.kind != DurativeKind {
		return fmt.Errorf("%w: timed effects only apply to durative actions", ErrDefinition)
	}
	eff, err := a.buildEffect(kind, target, value, cond, nil)
	if err != nil {
		return err
	}
	a.timedEffects[t] = append(a.timedEffects[t], eff)
	return nil
}

// AddTimedEffect adds an assignment effect at a timepoint.
func (a *Action) AddTimedEffect(t Timing, target, value any) error {
	return a.addTimedEffect(t, Assign, target, value, nil)
}

// AddTimedIncrease adds an increase effect at a timepoint.
func (a *Action) AddTimedIncrease(t Timing, target, value any) error {
	return a.addTimedEffect(t, Increase, target, value, nil)
}

// AddTimedDecrease adds a decrease effect at a timepoint.
func (a *Action) AddTimedDecrease(t Timing, target, value any) error {
	return a.addTimedEffect(t, Decrease, target, value, nil)
}

// SetTimedSimulatedEffect attaches a black-box effect at a timepoint of a
// durative action.
func (a *Action) SetTimedSimulatedEffect(t Timing, se *SimulatedEffect) error {
	if a.kind != DurativeKind {
		return fmt.Errorf("%w: use SetSimulatedEffect on instantaneous actions", ErrDefinition)
	}
	a.timedSim[t] = se
	return nil
}

// Conditions returns the timed conditions of a durative action.
func (a *Action) Conditions() map[TimeInterval][]*Node { return a.conditions }

// TimedEffects returns the timed effects of a durative action.
func (a *Action) TimedEffects() map[Timing][]*Effect { return a.timedEffects }

// TimedSimulatedEffects returns the timed black-box effects.
func (a *Action) TimedSimulatedEffects() map[Timing]*SimulatedEffect { return a.timedSim }

func (a *Action) String() string {
	if len(a.params) == 0 {
		return a.name
	}
	parts := make([]string, len(a.params))
	for i, p := range a.params {
		parts[i] = p.Name() + ":" + p.Type().Name()
	}
	return a.name + "(" + strings.Join(parts, ", ") + ")"
}
