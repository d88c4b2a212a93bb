package simulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/simulator"
)

// buildLightsProblem declares three switches, all off. turn_on flips one,
// master_on flips them all with a forall effect, and the quantified actions
// any_lit/all_lit gate on Exists/Forall over the switch domain.
func buildLightsProblem(t *testing.T) *model.Problem {
	t.Helper()

	p := model.NewProblem("lights")
	env := p.Environment()
	f := env.Factory()
	sw := env.UserType("switch")

	lit := model.NewFluent(env, "lit", env.BoolType(), model.NewParameter("s", sw))
	partied := model.NewFluent(env, "partied", env.BoolType())
	noticed := model.NewFluent(env, "noticed", env.BoolType())
	require.NoError(t, p.AddFluent(lit, false))
	require.NoError(t, p.AddFluent(partied, false))
	require.NoError(t, p.AddFluent(noticed, false))

	for _, name := range []string{"s0", "s1", "s2"} {
		_, err := p.AddObject(name, sw)
		require.NoError(t, err)
	}

	v := model.NewVariable("x", sw)
	litV, err := f.FluentExp(lit, v)
	require.NoError(t, err)
	partiedExp, err := f.FluentExp(partied)
	require.NoError(t, err)
	noticedExp, err := f.FluentExp(noticed)
	require.NoError(t, err)

	turnOn := model.NewInstantaneousAction(env, "turn_on")
	s, err := turnOn.NewParameter("s", sw)
	require.NoError(t, err)
	litS, err := f.FluentExp(lit, s)
	require.NoError(t, err)
	notLitS, err := f.Not(litS)
	require.NoError(t, err)
	require.NoError(t, turnOn.AddPrecondition(notLitS))
	require.NoError(t, turnOn.AddEffect(litS, true))
	require.NoError(t, p.AddAction(turnOn))

	masterOn := model.NewInstantaneousAction(env, "master_on")
	require.NoError(t, masterOn.AddForallEffect(litV, true, v))
	require.NoError(t, p.AddAction(masterOn))

	anyLit := model.NewInstantaneousAction(env, "any_lit")
	exists, err := f.Exists(litV, v)
	require.NoError(t, err)
	require.NoError(t, anyLit.AddPrecondition(exists))
	require.NoError(t, anyLit.AddEffect(noticedExp, true))
	require.NoError(t, p.AddAction(anyLit))

	allLit := model.NewInstantaneousAction(env, "all_lit")
	forall, err := f.Forall(litV, v)
	require.NoError(t, err)
	require.NoError(t, allLit.AddPrecondition(forall))
	require.NoError(t, allLit.AddEffect(partiedExp, true))
	require.NoError(t, p.AddAction(allLit))

	require.NoError(t, p.AddGoal(partiedExp))
	return p
}

func TestSequential_ForallEffectExpands(t *testing.T) {
	p := buildLightsProblem(t)
	f := p.Environment().Factory()

	sim, err := simulator.NewSequentialSimulator(p)
	require.NoError(t, err)
	st, err := sim.InitialState()
	require.NoError(t, err)

	master, ok := p.Action("master_on")
	require.True(t, ok)
	st, err = sim.Apply(st, master)
	require.NoError(t, err)
	require.NotNil(t, st)

	lit, _ := p.Fluent("lit")
	for _, name := range []string{"s0", "s1", "s2"} {
		obj, ok := p.Object(name)
		require.True(t, ok)
		exp, err := f.FluentExp(lit, obj)
		require.NoError(t, err)
		v, err := st.Value(exp)
		require.NoError(t, err)
		assert.Same(t, f.TRUE(), v, "lit(%s) must be set by the forall effect", name)
	}
}

func TestSequential_QuantifiedPreconditions(t *testing.T) {
	p := buildLightsProblem(t)

	sim, err := simulator.NewSequentialSimulator(p)
	require.NoError(t, err)
	st, err := sim.InitialState()
	require.NoError(t, err)

	anyLit, _ := p.Action("any_lit")
	allLit, _ := p.Action("all_lit")
	turnOn, _ := p.Action("turn_on")
	master, _ := p.Action("master_on")

	// All switches off: neither the existential nor the universal holds.
	ok, err := sim.IsApplicable(st, anyLit)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = sim.IsApplicable(st, allLit)
	require.NoError(t, err)
	assert.False(t, ok)

	// One switch on satisfies Exists but not Forall.
	s1, found := p.Object("s1")
	require.True(t, found)
	s1Exp, err := p.Environment().Factory().ObjectExp(s1)
	require.NoError(t, err)
	st, err = sim.Apply(st, turnOn, s1Exp)
	require.NoError(t, err)
	require.NotNil(t, st)

	ok, err = sim.IsApplicable(st, anyLit)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = sim.IsApplicable(st, allLit)
	require.NoError(t, err)
	assert.False(t, ok)

	// All switches on satisfies Forall, and the goal becomes reachable.
	st, err = sim.Apply(st, master)
	require.NoError(t, err)
	require.NotNil(t, st)

	ok, err = sim.IsApplicable(st, allLit)
	require.NoError(t, err)
	assert.True(t, ok)

	st, err = sim.Apply(st, allLit)
	require.NoError(t, err)
	require.NotNil(t, st)
	reached, err := sim.IsGoal(st)
	require.NoError(t, err)
	assert.True(t, reached)
}
