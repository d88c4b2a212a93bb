package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/model"
)

// Two span conditions over intervals with the same lower bound land in the
// Conditions() map under distinct keys, so their start (and end) events tie
// on timing and kind. Decomposition must still order them the same way every
// time.
func TestDecomposeDurative_SpanOrderIsStable(t *testing.T) {
	p := model.NewProblem("spans")
	env := p.Environment()
	f := env.Factory()

	calm := model.NewFluent(env, "calm", env.BoolType())
	warm := model.NewFluent(env, "warm", env.BoolType())
	require.NoError(t, p.AddFluent(calm, false))
	require.NoError(t, p.AddFluent(warm, false))
	calmExp, err := f.FluentExp(calm)
	require.NoError(t, err)
	warmExp, err := f.FluentExp(warm)
	require.NoError(t, err)

	bake := model.NewDurativeAction(env, "bake")
	require.NoError(t, bake.SetFixedDuration(3))
	require.NoError(t, bake.AddCondition(
		model.ClosedInterval(model.StartTiming(), model.EndTiming()), warmExp))
	require.NoError(t, bake.AddCondition(
		model.TimeInterval{Lower: model.StartTiming(), Upper: model.EndTiming(), RightOpen: true},
		calmExp))
	require.NoError(t, p.AddAction(bake))

	order := func() []string {
		events, err := decomposeDurative(bake, nil, nil)
		require.NoError(t, err)
		var got []string
		for _, ev := range events {
			if ev.EventKind() == model.StartCondition || ev.EventKind() == model.EndCondition {
				got = append(got, ev.EventKind().String()+" "+conditionKey(ev))
			}
		}
		return got
	}

	// Map iteration order changes between calls; the sorted result must not.
	first := order()
	require.Len(t, first, 4)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, order())
	}
	require.Less(t, first[0], first[1], "start events ordered by condition")
	require.Less(t, first[2], first[3], "end events ordered by condition")
}
