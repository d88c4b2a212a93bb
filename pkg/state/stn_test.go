package state_test

import (
	"testing"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tps builds n distinct timepoints. The STN identifies timepoints by event
// pointer, so bare events are fine here.
func tps(env *model.Environment, n int) []*model.TemporalEvent {
	a := model.NewDurativeAction(env, "a")
	out := make([]*model.TemporalEvent, n)
	for i := range out {
		out[i] = model.NewTemporalEvent(model.IntermediateConditionEffect,
			model.StartTimingDelay(float64(i)), true, nil, nil, nil, a, nil)
	}
	return out
}

func TestSTN_ConsistencyBasics(t *testing.T) {
	env := model.NewEnvironment()
	e := tps(env, 3)

	stn := state.NewSTN()
	assert.True(t, stn.Consistent(), "empty network is consistent")

	// 1 <= e1-e0 <= 3, 1 <= e2-e1 <= 3: fine.
	stn.AddConstraint(e[0], e[1], state.Closed(1), state.Closed(3))
	stn.AddConstraint(e[1], e[2], state.Closed(1), state.Closed(3))
	require.True(t, stn.Consistent())

	// But e2-e0 <= 1 contradicts the accumulated lower bound of 2.
	stn.AddMax(e[0], e[2], state.Closed(1))
	assert.False(t, stn.Consistent())
}

func TestSTN_StrictBounds(t *testing.T) {
	env := model.NewEnvironment()
	e := tps(env, 2)

	// e1-e0 >= 0 and e1-e0 <= 0 is satisfiable (equal timepoints)...
	stn := state.NewSTN()
	stn.AddConstraint(e[0], e[1], state.Closed(0), state.Closed(0))
	assert.True(t, stn.Consistent())

	// ...but e1-e0 > 0 together with e1-e0 <= 0 is not.
	stn2 := state.NewSTN()
	stn2.AddConstraint(e[0], e[1], state.Open(0), state.Closed(0))
	assert.False(t, stn2.Consistent())
}

func TestSTN_StrictZeroCycle(t *testing.T) {
	env := model.NewEnvironment()
	e := tps(env, 2)

	// e1-e0 > 0 and e0-e1 >= 0 form a zero-weight cycle with a strict arc:
	// unsatisfiable even though no single bound is violated.
	stn := state.NewSTN()
	stn.AddConstraint(e[0], e[1], state.Open(0), state.Unbounded())
	require.True(t, stn.Consistent())
	stn.AddConstraint(e[1], e[0], state.Closed(0), state.Unbounded())
	assert.False(t, stn.Consistent())

	// Same cycle, constraints added in the opposite order.
	stn2 := state.NewSTN()
	stn2.AddConstraint(e[1], e[0], state.Closed(0), state.Unbounded())
	stn2.AddConstraint(e[0], e[1], state.Open(0), state.Unbounded())
	assert.False(t, stn2.Consistent())

	// The all-inclusive version pins e0 == e1 and stays satisfiable.
	stn3 := state.NewSTN()
	stn3.AddConstraint(e[0], e[1], state.Closed(0), state.Unbounded())
	stn3.AddConstraint(e[1], e[0], state.Closed(0), state.Unbounded())
	assert.True(t, stn3.Consistent())
}

func TestSTN_ChildDoesNotMutateParent(t *testing.T) {
	env := model.NewEnvironment()
	e := tps(env, 3)

	parent := state.NewSTN()
	parent.AddConstraint(e[0], e[1], state.Closed(2), state.Closed(2))
	require.True(t, parent.Consistent())
	beforeCount := parent.Timepoints()

	child := parent.MakeChild()
	// Contradicts the parent's exact distance of 2.
	child.AddMax(e[0], e[1], state.Closed(1))
	assert.False(t, child.Consistent())

	assert.True(t, parent.Consistent(), "parent must be unaffected by child updates")
	assert.Equal(t, beforeCount, parent.Timepoints())

	// A sibling branch sharing the same parent sees the parent's history
	// but not the first child's.
	sibling := parent.MakeChild()
	sibling.AddConstraint(e[1], e[2], state.Closed(0), state.Closed(5))
	assert.True(t, sibling.Consistent())
}

func TestSTN_TighterConstraintWins(t *testing.T) {
	env := model.NewEnvironment()
	e := tps(env, 2)

	stn := state.NewSTN()
	stn.AddMax(e[0], e[1], state.Closed(10))
	stn.AddMax(e[0], e[1], state.Closed(5))
	// Redundant looser constraint is ignored.
	stn.AddMax(e[0], e[1], state.Closed(100))
	require.True(t, stn.Consistent())

	// The effective bound is 5: requiring e1-e0 >= 6 must now fail.
	stn.AddMax(e[1], e[0], state.Closed(-6))
	assert.False(t, stn.Consistent())
}

func TestTemporalState_RequiresAllBookkeeping(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()
	fl := model.NewFluent(env, "x", env.BoolType())
	exp, err := f.FluentExp(fl)
	require.NoError(t, err)

	ts := state.NewTemporal(map[*model.Node]*model.Node{exp: f.TRUE()})

	_, err = ts.MakeTemporalChild(nil, nil, ts.STN().MakeChild(),
		map[*model.Node]int{}, nil)
	assert.ErrorIs(t, err, state.ErrMissingBookkeeping)

	child, err := ts.MakeTemporalChild(
		map[*model.Node]*model.Node{exp: f.FALSE()},
		[][]*model.TemporalEvent{},
		ts.STN().MakeChild(),
		map[*model.Node]int{},
		[]*model.TemporalEvent{},
	)
	require.NoError(t, err)

	v, err := child.Value(exp)
	require.NoError(t, err)
	assert.Same(t, f.FALSE(), v)
}
