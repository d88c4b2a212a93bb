package state

import (
	"errors"
	"fmt"

	"github.com/aretw0/bramble/pkg/model"
)

// ErrMissingBookkeeping is returned when MakeTemporalChild is called without
// all four mandatory bookkeeping arguments.
var ErrMissingBookkeeping = errors.New("temporal child requires agenda, stn, durative conditions and last events")

// TemporalState extends the persistent state with the bookkeeping the
// temporal simulator threads through every transition: the running-event
// agenda, the delta STN, the multiset of active durative conditions, and
// the events that produced this state from its parent.
//
// Temporal states never condense: the STN and agenda must stay consistent
// with the full causal history of the chain.
type TemporalState struct {
	State
	agenda     [][]*model.TemporalEvent
	stn        *DeltaSTN
	durative   map[*model.Node]int
	lastEvents []*model.TemporalEvent
}

// NewTemporal creates a root temporal state over the given valuation with an
// empty agenda and a fresh STN.
func NewTemporal(values map[*model.Node]*model.Node) *TemporalState {
	return &TemporalState{
		State:    *New(values, WithMaxAncestors(-1)),
		stn:      NewSTN(),
		durative: make(map[*model.Node]int),
	}
}

// Agenda returns the running-event lists: one entry per in-flight durative
// action instance, each holding its ordered remaining events. Callers must
// not modify the slices.
func (ts *TemporalState) Agenda() [][]*model.TemporalEvent { return ts.agenda }

// STN returns the state's temporal network.
func (ts *TemporalState) STN() *DeltaSTN { return ts.stn }

// DurativeConditions returns the active span conditions with their open
// counts. Callers must not modify the map.
func (ts *TemporalState) DurativeConditions() map[*model.Node]int { return ts.durative }

// LastEvents returns the events whose application produced this state.
func (ts *TemporalState) LastEvents() []*model.TemporalEvent { return ts.lastEvents }

// MakeTemporalChild layers updates over ts together with the new
// bookkeeping. All four bookkeeping arguments are mandatory: pass empty
// non-nil values when there is nothing in flight. Temporal children never
// condense.
func (ts *TemporalState) MakeTemporalChild(
	updates map[*model.Node]*model.Node,
	agenda [][]*model.TemporalEvent,
	stn *DeltaSTN,
	durative map[*model.Node]int,
	lastEvents []*model.TemporalEvent,
) (*TemporalState, error) {
	if agenda == nil || stn == nil || durative == nil || lastEvents == nil {
		return nil, fmt.Errorf("%w", ErrMissingBookkeeping)
	}
	return &TemporalState{
		State:      *ts.State.MakeChild(updates),
		agenda:     agenda,
		stn:        stn,
		durative:   durative,
		lastEvents: lastEvents,
	}, nil
}
