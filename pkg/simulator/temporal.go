package simulator

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
)

// TemporalSimulator executes durative (and instantaneous) actions as groups
// of timed events over temporal states. Event decomposition is cached per
// ground action instance and is reference-stable: the agenda and the
// temporal network track events by pointer identity.
type TemporalSimulator struct {
	problem  *model.Problem
	eval     *Evaluator
	grounder Grounder
	logger   *slog.Logger
	hooks    LifecycleHooks

	// events caches decompositions by (action, ground parameters).
	events map[string][]*model.TemporalEvent
}

// NewTemporalSimulator builds a temporal simulator for the problem.
func NewTemporalSimulator(p *model.Problem, opts ...Option) (*TemporalSimulator, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil problem", ErrUsage)
	}
	cfg := newConfig(opts)
	if cfg.grounder == nil {
		cfg.grounder = NewNaiveGrounder(p)
	}
	return &TemporalSimulator{
		problem:  p,
		eval:     NewEvaluator(p),
		grounder: cfg.grounder,
		logger:   cfg.logger,
		hooks:    cfg.hooks,
		events:   make(map[string][]*model.TemporalEvent),
	}, nil
}

// InitialState materializes the initial assignment with empty temporal
// bookkeeping.
func (s *TemporalSimulator) InitialState() (*state.TemporalState, error) {
	values, err := s.problem.InitialValues()
	if err != nil {
		return nil, err
	}
	return state.NewTemporal(values), nil
}

// eventCacheKey identifies a ground action instance by pointer identity of
// the lifted action and each interned parameter node.
func eventCacheKey(a *model.Action, params []*model.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%p", a)
	for _, p := range params {
		fmt.Fprintf(&b, "/%p", p)
	}
	return b.String()
}

// Events returns the decomposition of the ground action instance into
// temporal events. Repeated calls with the same binding return the same
// slice with the same event pointers.
func (s *TemporalSimulator) Events(a *model.Action, params ...*model.Node) ([]*model.TemporalEvent, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil action", ErrUsage)
	}
	if _, _, err := s.grounder.Ground(a, params); err != nil {
		return nil, err
	}
	key := eventCacheKey(a, params)
	if evs, ok := s.events[key]; ok {
		return evs, nil
	}
	bind := make(map[*model.Parameter]*model.Node, len(params))
	for i, formal := range a.Parameters() {
		bind[formal] = params[i]
	}
	evs, err := decompose(a, bind, params)
	if err != nil {
		return nil, err
	}
	s.events[key] = evs
	return evs, nil
}

// due reports whether the event may fire in st: a StartAction is always
// due, any other event must be the head of its instance's agenda row.
func (s *TemporalSimulator) due(st *state.TemporalState, ev *model.TemporalEvent) bool {
	if ev.EventKind() == model.StartAction {
		return true
	}
	for _, row := range st.Agenda() {
		if len(row) > 0 && row[0] == ev {
			return true
		}
	}
	return false
}

// UnsatisfiedConditions evaluates the event's conditions in st, returning
// the failing ones. With early true it stops at the first failure.
func (s *TemporalSimulator) UnsatisfiedConditions(st *state.TemporalState,
	ev *model.TemporalEvent, early bool) ([]*model.Node, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", ErrUsage)
	}
	var unsat []*model.Node
	for _, cond := range ev.Conditions() {
		ok, err := s.eval.evalBool(cond, st)
		if err != nil {
			s.logger.Debug("event condition evaluation failed",
				"event", ev.String(), "error", err)
			ok = false
		}
		if !ok {
			unsat = append(unsat, cond)
			if early {
				return unsat, nil
			}
		}
	}
	return unsat, nil
}

// IsApplicable reports whether the event is due in st, its conditions hold,
// and firing it keeps the temporal network consistent.
func (s *TemporalSimulator) IsApplicable(st *state.TemporalState, ev *model.TemporalEvent) (bool, error) {
	if !s.due(st, ev) {
		return false, nil
	}
	unsat, err := s.UnsatisfiedConditions(st, ev, true)
	if err != nil {
		return false, err
	}
	if len(unsat) > 0 {
		return false, nil
	}
	stn, err := s.childSTN(st, []*model.TemporalEvent{ev})
	if err != nil {
		return false, err
	}
	s.hooks.stnCheck(stn.Consistent())
	return stn.Consistent(), nil
}

// Apply validates the event group against st and produces the successor
// temporal state. A group that is due but whose conditions, running durative
// conditions, or timing constraints fail yields (nil, nil): not applicable
// is an answer, not an error. Usage errors and effect conflicts surface as
// errors.
func (s *TemporalSimulator) Apply(st *state.TemporalState, events ...*model.TemporalEvent) (*state.TemporalState, error) {
	// Due-ness is position-dependent within the group (an EndAction is
	// due only once its EndCondition popped ahead of it), so the usage
	// check is left to ApplyUnsafe's agenda consumption. Conditions are
	// all evaluated against the pre-application state.
	for _, ev := range events {
		unsat, err := s.UnsatisfiedConditions(st, ev, true)
		if err != nil {
			return nil, err
		}
		if len(unsat) > 0 {
			s.hooks.notApplicable(ev.Action())
			return nil, nil
		}
	}
	child, err := s.ApplyUnsafe(st, events...)
	if err != nil {
		return nil, err
	}
	s.hooks.stnCheck(child.STN().Consistent())
	if !child.STN().Consistent() {
		s.hooks.notApplicable(events[0].Action())
		return nil, nil
	}
	// Durative conditions opened earlier must keep holding after the
	// group's effects.
	for cond := range child.DurativeConditions() {
		ok, err := s.eval.evalBool(cond, child)
		if err != nil || !ok {
			s.hooks.notApplicable(events[0].Action())
			return nil, nil
		}
	}
	return child, nil
}

// ApplyUnsafe fires the event group without checking conditions. All
// effects in the group share one conflict scope. The returned state carries
// the updated agenda, temporal network, durative-condition multiset and
// last-applied events; the network may be inconsistent, which Apply treats
// as not applicable.
func (s *TemporalSimulator) ApplyUnsafe(st *state.TemporalState, events ...*model.TemporalEvent) (*state.TemporalState, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: empty event group", ErrUsage)
	}

	agenda := copyAgenda(st.Agenda())
	durative := copyCounts(st.DurativeConditions())
	acc := newAccumulator(s.eval, st, s.hooks)

	for _, ev := range events {
		switch ev.EventKind() {
		case model.StartAction:
			rest, err := s.startRest(ev)
			if err != nil {
				return nil, err
			}
			if len(rest) > 0 {
				agenda = append(agenda, rest)
			}
		case model.StartCondition:
			for _, c := range ev.Conditions() {
				durative[c]++
			}
			if !popHead(agenda, ev) {
				return nil, fmt.Errorf("%w: event %s is not at the head of any running action", ErrUsage, ev)
			}
		case model.EndCondition:
			for _, c := range ev.Conditions() {
				switch durative[c] {
				case 0:
					return nil, fmt.Errorf("%w: closing durative condition %s that was never opened", ErrUsage, c)
				case 1:
					delete(durative, c)
				default:
					durative[c]--
				}
			}
			if !popHead(agenda, ev) {
				return nil, fmt.Errorf("%w: event %s is not at the head of any running action", ErrUsage, ev)
			}
		case model.EndAction, model.IntermediateConditionEffect:
			if !popHead(agenda, ev) {
				return nil, fmt.Errorf("%w: event %s is not at the head of any running action", ErrUsage, ev)
			}
		default:
			return nil, fmt.Errorf("%w: event kind %s", ErrUnsupportedAction, ev.EventKind())
		}

		for _, eff := range ev.Effects() {
			if err := acc.applyEffect(eff); err != nil {
				return nil, err
			}
		}
		if sim := ev.Simulated(); sim != nil {
			bind := make(map[*model.Parameter]*model.Node, len(ev.Params()))
			for i, formal := range ev.Action().Parameters() {
				bind[formal] = ev.Params()[i]
			}
			if err := acc.applySimulated(sim, bind, ev.Params()); err != nil {
				return nil, err
			}
		}
		s.hooks.eventApplied(ev)
	}
	agenda = pruneAgenda(agenda)

	stn, err := s.childSTN(st, events)
	if err != nil {
		return nil, err
	}

	last := make([]*model.TemporalEvent, len(events))
	copy(last, events)
	return st.MakeTemporalChild(acc.updates, agenda, stn, durative, last)
}

// startRest returns the events of the started instance that remain to be
// fired after the StartAction itself.
func (s *TemporalSimulator) startRest(start *model.TemporalEvent) ([]*model.TemporalEvent, error) {
	full, err := s.Events(start.Action(), start.Params()...)
	if err != nil {
		return nil, err
	}
	for i, ev := range full {
		if ev == start {
			rest := make([]*model.TemporalEvent, len(full)-i-1)
			copy(rest, full[i+1:])
			return rest, nil
		}
	}
	return nil, fmt.Errorf("%w: start event %s is not part of its own decomposition; "+
		"events must come from Events, not be constructed ad hoc", ErrUsage, start)
}

// childSTN derives the successor temporal network: each new event is ordered
// after every event of the previous step, and a StartAction additionally
// pins its whole decomposition relative to the action's start and end.
func (s *TemporalSimulator) childSTN(st *state.TemporalState, events []*model.TemporalEvent) (*state.DeltaSTN, error) {
	stn := st.STN().MakeChild()
	for _, ev := range events {
		for _, prev := range st.LastEvents() {
			lower := state.Open(0)
			if prev.Inclusive() && ev.Inclusive() {
				lower = state.Closed(0)
			}
			stn.AddConstraint(prev, ev, lower, state.Unbounded())
		}
		if ev.EventKind() != model.StartAction || ev.Action().Kind() != model.DurativeKind {
			continue
		}
		if err := s.pinDecomposition(st, stn, ev); err != nil {
			return nil, err
		}
	}
	return stn, nil
}

// pinDecomposition adds the intra-action constraints when a durative action
// starts: exact offsets from the anchor timepoints for every event of the
// decomposition, and the duration bounds between start and end. Duration
// bounds are evaluated in the state in which the action starts.
func (s *TemporalSimulator) pinDecomposition(st *state.TemporalState,
	stn *state.DeltaSTN, start *model.TemporalEvent) error {
	full, err := s.Events(start.Action(), start.Params()...)
	if err != nil {
		return err
	}
	var end *model.TemporalEvent
	for _, ev := range full {
		if ev.EventKind() == model.EndAction {
			end = ev
			break
		}
	}
	if end == nil {
		return fmt.Errorf("%w: durative action %s decomposed without an end event",
			ErrUsage, start.Action().Name())
	}

	d := start.Action().Duration()
	lo, err := s.evalDurationBound(d.Lower, st)
	if err != nil {
		return err
	}
	hi, err := s.evalDurationBound(d.Upper, st)
	if err != nil {
		return err
	}
	lower, upper := state.Closed(lo), state.Closed(hi)
	if d.LeftOpen {
		lower = state.Open(lo)
	}
	if d.RightOpen {
		upper = state.Open(hi)
	}
	stn.AddConstraint(start, end, lower, upper)

	for _, ev := range full {
		if ev == start || ev == end {
			continue
		}
		anchor := start
		if ev.Timing().Kind() == model.EndTimepoint {
			anchor = end
		}
		off := state.Closed(ev.Timing().Delay())
		stn.AddConstraint(anchor, ev, off, off)
	}
	return nil
}

func (s *TemporalSimulator) evalDurationBound(bound *model.Node, st *state.TemporalState) (float64, error) {
	v, err := s.eval.Evaluate(bound, st)
	if err != nil {
		return 0, err
	}
	if !v.Type().IsNumeric() || !v.IsConstant() {
		return 0, fmt.Errorf("%w: duration bound %s does not evaluate to a numeric constant",
			ErrUsage, bound)
	}
	return v.Real(), nil
}

// ApplicableEvents lazily enumerates every event that can fire in st: the
// due heads of every running action plus the start events of every ground
// instance whose start is applicable. Restartable per call; evaluation
// failures are logged and skipped.
func (s *TemporalSimulator) ApplicableEvents(st *state.TemporalState) iter.Seq[*model.TemporalEvent] {
	return func(yield func(*model.TemporalEvent) bool) {
		for _, row := range st.Agenda() {
			if len(row) == 0 {
				continue
			}
			ok, err := s.IsApplicable(st, row[0])
			if err != nil {
				s.logger.Debug("skipping agenda head", "event", row[0].String(), "error", err)
				continue
			}
			if ok && !yield(row[0]) {
				return
			}
		}
		for _, a := range s.problem.Actions() {
			for params := range s.grounder.Instances(a) {
				evs, err := s.Events(a, params...)
				if err != nil {
					s.logger.Debug("skipping binding", "action", a.Name(), "error", err)
					continue
				}
				start := evs[0]
				ok, err := s.IsApplicable(st, start)
				if err != nil {
					s.logger.Debug("skipping start event", "action", a.Name(), "error", err)
					continue
				}
				if ok && !yield(start) {
					return
				}
			}
		}
	}
}

// IsGoal reports whether every goal holds in st and no started action is
// still running.
func (s *TemporalSimulator) IsGoal(st *state.TemporalState) (bool, error) {
	if len(pruneAgenda(copyAgenda(st.Agenda()))) > 0 {
		return false, nil
	}
	unsat, err := s.UnsatisfiedGoals(st, true)
	if err != nil {
		return false, err
	}
	return len(unsat) == 0, nil
}

// UnsatisfiedGoals returns the goals that do not hold in st.
func (s *TemporalSimulator) UnsatisfiedGoals(st *state.TemporalState, early bool) ([]*model.Node, error) {
	var unsat []*model.Node
	for _, g := range s.problem.Goals() {
		ok, err := s.eval.evalBool(g, st)
		if err != nil {
			return nil, err
		}
		if !ok {
			unsat = append(unsat, g)
			if early {
				return unsat, nil
			}
		}
	}
	return unsat, nil
}

func copyAgenda(agenda [][]*model.TemporalEvent) [][]*model.TemporalEvent {
	out := make([][]*model.TemporalEvent, len(agenda))
	copy(out, agenda)
	return out
}

func copyCounts(m map[*model.Node]int) map[*model.Node]int {
	out := make(map[*model.Node]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// popHead removes ev from the front of the agenda row holding it. Rows are
// re-sliced, never mutated in place, so parent states keep their views.
func popHead(agenda [][]*model.TemporalEvent, ev *model.TemporalEvent) bool {
	for i, row := range agenda {
		if len(row) > 0 && row[0] == ev {
			agenda[i] = row[1:]
			return true
		}
	}
	return false
}

func pruneAgenda(agenda [][]*model.TemporalEvent) [][]*model.TemporalEvent {
	out := agenda[:0]
	for _, row := range agenda {
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}
