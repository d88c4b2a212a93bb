package simulator

import "github.com/aretw0/bramble/pkg/model"

// LifecycleHooks are optional observability callbacks fired by the engines.
// Nil callbacks are skipped. Hooks run synchronously on the simulation path
// and must be cheap.
type LifecycleHooks struct {
	// OnActionApplied fires after a successful sequential application.
	OnActionApplied func(a *model.Action, params []*model.Node)
	// OnEventApplied fires once per temporal event in a successful group
	// application.
	OnEventApplied func(e *model.TemporalEvent)
	// OnConflict fires when conflicting effects abort an application.
	OnConflict func(fluent *model.Node)
	// OnStnCheck fires after each temporal-network consistency check.
	OnStnCheck func(consistent bool)
	// OnNotApplicable fires when an application is rejected.
	OnNotApplicable func(a *model.Action)
}

func (h LifecycleHooks) actionApplied(a *model.Action, params []*model.Node) {
	if h.OnActionApplied != nil {
		h.OnActionApplied(a, params)
	}
}

func (h LifecycleHooks) eventApplied(e *model.TemporalEvent) {
	if h.OnEventApplied != nil {
		h.OnEventApplied(e)
	}
}

func (h LifecycleHooks) conflict(fluent *model.Node) {
	if h.OnConflict != nil {
		h.OnConflict(fluent)
	}
}

func (h LifecycleHooks) stnCheck(consistent bool) {
	if h.OnStnCheck != nil {
		h.OnStnCheck(consistent)
	}
}

func (h LifecycleHooks) notApplicable(a *model.Action) {
	if h.OnNotApplicable != nil {
		h.OnNotApplicable(a)
	}
}
