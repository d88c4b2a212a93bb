package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/dsl"
	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/simulator"
)

func TestBuilder_SequentialProblem(t *testing.T) {
	b := dsl.New("logistics")
	b.Objects("location", "l0", "l1")
	b.BoolFluent("robot_at", false, b.Param("l", "location"))
	b.IntFluent("battery", 100)

	move := b.Action("move")
	from := move.Param("from", "location")
	to := move.Param("to", "location")
	move.Pre(b.Ref("robot_at", from)).
		Pre(b.GE(b.Ref("battery"), 10)).
		Effect(b.Ref("robot_at", from), false).
		Effect(b.Ref("robot_at", to), true).
		Decrease(b.Ref("battery"), 10)

	b.Init(b.Ref("robot_at", b.Obj("l0")), true)
	b.Goal(b.Ref("robot_at", b.Obj("l1")))

	p, err := b.Build()
	require.NoError(t, err)

	sim, err := simulator.NewSequentialSimulator(p)
	require.NoError(t, err)

	st, err := sim.InitialState()
	require.NoError(t, err)

	a, ok := p.Action("move")
	require.True(t, ok)

	next, err := sim.Apply(st, a, b.Obj("l0"), b.Obj("l1"))
	require.NoError(t, err)
	require.NotNil(t, next)

	reached, err := sim.IsGoal(next)
	require.NoError(t, err)
	assert.True(t, reached)

	battery, err := next.Value(b.Ref("battery"))
	require.NoError(t, err)
	assert.Equal(t, "90", battery.String())
}

func TestBuilder_DurativeAction(t *testing.T) {
	b := dsl.New("machine")
	b.BoolFluent("running", false)
	b.BoolFluent("done", false)
	b.BoolFluent("powered", true)

	work := b.Durative("work")
	work.Duration(5).
		AtStart(b.Not(b.Ref("done"))).
		OverAll(b.Ref("powered")).
		EffectAtStart(b.Ref("running"), true).
		EffectAtEnd(b.Ref("running"), false).
		EffectAtEnd(b.Ref("done"), true)

	b.Goal(b.Ref("done"))

	p, err := b.Build()
	require.NoError(t, err)

	a, ok := p.Action("work")
	require.True(t, ok)
	assert.Equal(t, model.DurativeKind, a.Kind())
	assert.Len(t, a.Conditions(), 2)
	assert.Len(t, a.TimedEffects()[model.StartTiming()], 1)
	assert.Len(t, a.TimedEffects()[model.EndTiming()], 2)
}

func TestBuilder_SimulatedEffect(t *testing.T) {
	b := dsl.New("counter")
	b.IntFluent("count", 1)
	count := b.Ref("count")

	double := b.Action("double")
	double.Simulated(func(r model.StateReader, _ []*model.Node) ([]*model.Node, error) {
		cur, err := r.Value(count)
		if err != nil {
			return nil, err
		}
		f := b.Env().Factory()
		return []*model.Node{f.Int(cur.Int() * 2)}, nil
	}, count)

	b.Goal(b.GE(count, 4))

	p, err := b.Build()
	require.NoError(t, err)

	sim, err := simulator.NewSequentialSimulator(p)
	require.NoError(t, err)

	st, err := sim.InitialState()
	require.NoError(t, err)

	a, _ := p.Action("double")
	st, err = sim.Apply(st, a)
	require.NoError(t, err)
	st, err = sim.Apply(st, a)
	require.NoError(t, err)

	v, err := st.Value(count)
	require.NoError(t, err)
	assert.Equal(t, "4", v.String())

	reached, err := sim.IsGoal(st)
	require.NoError(t, err)
	assert.True(t, reached)
}

func TestBuilder_FirstErrorSticks(t *testing.T) {
	b := dsl.New("broken")
	b.BoolFluent("lit", false)

	// Unknown fluent reference fails; everything after is a no-op.
	cond := b.Ref("nope")
	assert.Nil(t, cond)

	b.Action("flip").Pre(cond).Effect(b.Ref("lit"), true)
	b.Goal(b.Ref("lit"))

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDefinition)
	assert.Contains(t, err.Error(), "nope")
}

func TestBuilder_DuplicateFluent(t *testing.T) {
	b := dsl.New("dup")
	b.BoolFluent("lit", false)
	b.BoolFluent("lit", false)

	_, err := b.Build()
	assert.ErrorIs(t, err, model.ErrDefinition)
}
