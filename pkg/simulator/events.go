package simulator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/bramble/pkg/model"
)

// eventDraft accumulates the conditions and effects that share a timepoint
// before they are frozen into a TemporalEvent.
type eventDraft struct {
	timing     model.Timing
	conditions []*model.Node
	effects    []*model.Effect
	simulated  *model.SimulatedEffect
}

// decomposeInstantaneous wraps a ground instantaneous action into a single
// start event so the temporal engine can schedule it alongside durative
// actions.
func decomposeInstantaneous(a *model.Action, bind map[*model.Parameter]*model.Node,
	params []*model.Node) ([]*model.TemporalEvent, error) {
	conds, err := substituteAll(a.Preconditions(), bind)
	if err != nil {
		return nil, err
	}
	effs, err := substituteEffects(a.Effects(), bind)
	if err != nil {
		return nil, err
	}
	ev := model.NewTemporalEvent(model.StartAction, model.StartTiming(), true,
		conds, effs, a.SimulatedEffect(), a, params)
	return []*model.TemporalEvent{ev}, nil
}

// decomposeDurative splits a ground durative action into its timed events:
// exactly one StartAction and one EndAction (synthesized empty when the
// action declares nothing at those timepoints), an
// IntermediateConditionEffect per interior timepoint that carries conditions
// or effects, and a StartCondition/EndCondition pair per span condition
// interval.
func decomposeDurative(a *model.Action, bind map[*model.Parameter]*model.Node,
	params []*model.Node) ([]*model.TemporalEvent, error) {
	drafts := make(map[model.Timing]*eventDraft)
	draftAt := func(t model.Timing) *eventDraft {
		d, ok := drafts[t]
		if !ok {
			d = &eventDraft{timing: t}
			drafts[t] = d
		}
		return d
	}

	// Point conditions join the event at their timepoint; span conditions
	// become start/end pairs below.
	type span struct {
		interval model.TimeInterval
		conds    []*model.Node
	}
	var spans []span
	for iv, conds := range a.Conditions() {
		ground, err := substituteAll(conds, bind)
		if err != nil {
			return nil, err
		}
		if iv.IsPoint() {
			d := draftAt(iv.Lower)
			d.conditions = append(d.conditions, ground...)
			continue
		}
		spans = append(spans, span{interval: iv, conds: ground})
	}

	for t, effs := range a.TimedEffects() {
		ground, err := substituteEffects(effs, bind)
		if err != nil {
			return nil, err
		}
		d := draftAt(t)
		d.effects = append(d.effects, ground...)
	}
	for t, se := range a.TimedSimulatedEffects() {
		draftAt(t).simulated = se
	}

	// Every decomposition carries the two anchor events even when empty;
	// the temporal network is built on their timepoints.
	draftAt(model.StartTiming())
	draftAt(model.EndTiming())

	events := make([]*model.TemporalEvent, 0, len(drafts)+2*len(spans))
	for _, d := range drafts {
		kind := model.IntermediateConditionEffect
		switch {
		case d.timing.IsStart():
			kind = model.StartAction
		case d.timing.IsEnd():
			kind = model.EndAction
		}
		events = append(events, model.NewTemporalEvent(kind, d.timing, true,
			d.conditions, d.effects, d.simulated, a, params))
	}
	for _, sp := range spans {
		events = append(events,
			model.NewTemporalEvent(model.StartCondition, sp.interval.Lower,
				!sp.interval.LeftOpen, sp.conds, nil, nil, a, params),
			model.NewTemporalEvent(model.EndCondition, sp.interval.Upper,
				!sp.interval.RightOpen, sp.conds, nil, nil, a, params))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return eventBefore(events[i], events[j])
	})
	return events, nil
}

// decompose dispatches on the action kind.
func decompose(a *model.Action, bind map[*model.Parameter]*model.Node,
	params []*model.Node) ([]*model.TemporalEvent, error) {
	switch a.Kind() {
	case model.InstantaneousKind:
		return decomposeInstantaneous(a, bind, params)
	case model.DurativeKind:
		return decomposeDurative(a, bind, params)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, a.Kind())
}

// kindRank orders events that share a timepoint: the action starts, span
// conditions that end here close, interior conditions and effects fire,
// new span conditions open, and the action ends.
func kindRank(k model.EventKind) int {
	switch k {
	case model.StartAction:
		return 0
	case model.EndCondition:
		return 1
	case model.IntermediateConditionEffect:
		return 2
	case model.StartCondition:
		return 3
	case model.EndAction:
		return 4
	}
	return 5
}

// eventBefore is the deterministic decomposition order: start-anchored
// timepoints before end-anchored ones, increasing delay within an anchor,
// then kindRank, then the printed conditions. The last tiebreak matters for
// span events: Conditions() is a map, so two spans sharing a timepoint and
// kind would otherwise come out in iteration order.
func eventBefore(a, b *model.TemporalEvent) bool {
	ta, tb := a.Timing(), b.Timing()
	if ta.Kind() != tb.Kind() {
		return ta.Kind() == model.StartTimepoint
	}
	if ta.Delay() != tb.Delay() {
		return ta.Delay() < tb.Delay()
	}
	if ra, rb := kindRank(a.EventKind()), kindRank(b.EventKind()); ra != rb {
		return ra < rb
	}
	return conditionKey(a) < conditionKey(b)
}

func conditionKey(e *model.TemporalEvent) string {
	conds := e.Conditions()
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, "&")
}

func substituteAll(nodes []*model.Node, bind map[*model.Parameter]*model.Node) ([]*model.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]*model.Node, len(nodes))
	for i, n := range nodes {
		g, err := model.Substitute(n, bind, nil)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}

func substituteEffects(effs []*model.Effect, bind map[*model.Parameter]*model.Node) ([]*model.Effect, error) {
	if len(effs) == 0 {
		return nil, nil
	}
	out := make([]*model.Effect, len(effs))
	for i, e := range effs {
		g, err := model.SubstituteEffect(e, bind, nil)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}
