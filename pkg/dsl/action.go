package dsl

import "github.com/aretw0/bramble/pkg/model"

// ActionBuilder provides a fluent API for configuring a single action.
type ActionBuilder struct {
	b      *Builder
	action *model.Action
}

// Unwrap returns the underlying action, for advanced usage.
func (ab *ActionBuilder) Unwrap() *model.Action { return ab.action }

// Param declares a typed parameter on the action.
func (ab *ActionBuilder) Param(name, typeName string) *model.Parameter {
	if ab.b.err != nil {
		return nil
	}
	t, err := ab.b.resolveType(typeName)
	if err != nil {
		ab.b.fail(err)
		return nil
	}
	p, err := ab.action.NewParameter(name, t)
	if err != nil {
		ab.b.fail(err)
		return nil
	}
	return p
}

// Pre adds a precondition to an instantaneous action.
func (ab *ActionBuilder) Pre(cond any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddPrecondition(cond) })
}

// Effect adds an assignment effect.
func (ab *ActionBuilder) Effect(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddEffect(target, value) })
}

// When adds a conditional assignment effect.
func (ab *ActionBuilder) When(cond, target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddConditionalEffect(cond, target, value) })
}

// Increase adds a numeric increase effect.
func (ab *ActionBuilder) Increase(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddIncrease(target, value) })
}

// Decrease adds a numeric decrease effect.
func (ab *ActionBuilder) Decrease(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddDecrease(target, value) })
}

// Simulated installs a black-box effect computing new values for the target
// fluents from the pre-application state. This has no document equivalent;
// it is the main reason to define a problem in Go.
func (ab *ActionBuilder) Simulated(fn func(r model.StateReader, params []*model.Node) ([]*model.Node, error), targets ...*model.Node) *ActionBuilder {
	return ab.do(func() error {
		return ab.action.SetSimulatedEffect(&model.SimulatedEffect{Fluents: targets, Fn: fn})
	})
}

// Duration fixes the duration of a durative action.
func (ab *ActionBuilder) Duration(d any) *ActionBuilder {
	return ab.do(func() error { return ab.action.SetFixedDuration(d) })
}

// DurationBetween bounds the duration of a durative action.
func (ab *ActionBuilder) DurationBetween(lower, upper any) *ActionBuilder {
	return ab.do(func() error { return ab.action.SetDuration(lower, upper) })
}

// AtStart adds a condition that must hold when a durative action starts.
func (ab *ActionBuilder) AtStart(cond any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddConditionAt(model.StartTiming(), cond) })
}

// AtEnd adds a condition that must hold when a durative action ends.
func (ab *ActionBuilder) AtEnd(cond any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddConditionAt(model.EndTiming(), cond) })
}

// OverAll adds a condition that must hold throughout a durative action.
func (ab *ActionBuilder) OverAll(cond any) *ActionBuilder {
	return ab.do(func() error {
		iv := model.ClosedInterval(model.StartTiming(), model.EndTiming())
		return ab.action.AddCondition(iv, cond)
	})
}

// EffectAtStart adds an assignment effect at the start of a durative action.
func (ab *ActionBuilder) EffectAtStart(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddTimedEffect(model.StartTiming(), target, value) })
}

// EffectAtEnd adds an assignment effect at the end of a durative action.
func (ab *ActionBuilder) EffectAtEnd(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddTimedEffect(model.EndTiming(), target, value) })
}

// IncreaseAtEnd adds a numeric increase effect at the end of a durative action.
func (ab *ActionBuilder) IncreaseAtEnd(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddTimedIncrease(model.EndTiming(), target, value) })
}

// DecreaseAtEnd adds a numeric decrease effect at the end of a durative action.
func (ab *ActionBuilder) DecreaseAtEnd(target, value any) *ActionBuilder {
	return ab.do(func() error { return ab.action.AddTimedDecrease(model.EndTiming(), target, value) })
}

func (ab *ActionBuilder) do(fn func() error) *ActionBuilder {
	if ab.b.err == nil {
		ab.b.fail(fn())
	}
	return ab
}
