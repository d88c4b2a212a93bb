package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/observability"
	"github.com/aretw0/bramble/pkg/simulator"
)

// buildToggleProblem declares a single boolean switch the flip action turns
// on, exercising both the applied and rejected paths.
func buildToggleProblem(t *testing.T) *model.Problem {
	t.Helper()

	p := model.NewProblem("toggle")
	env := p.Environment()
	f := env.Factory()

	on := model.NewFluent(env, "on", env.BoolType())
	require.NoError(t, p.AddFluent(on, false))

	onExp, err := f.FluentExp(on)
	require.NoError(t, err)
	notOn, err := f.Not(onExp)
	require.NoError(t, err)

	flip := model.NewInstantaneousAction(env, "flip")
	require.NoError(t, flip.AddPrecondition(notOn))
	require.NoError(t, flip.AddEffect(onExp, true))
	require.NoError(t, p.AddAction(flip))

	require.NoError(t, p.SetInitialValue(onExp, false))
	require.NoError(t, p.AddGoal(onExp))

	return p
}

func TestMetrics_CountsSimulatorActivity(t *testing.T) {
	p := buildToggleProblem(t)
	m := observability.NewMetrics(nil)

	sim, err := simulator.NewSequentialSimulator(p, simulator.WithHooks(m.Hooks()))
	require.NoError(t, err)

	st, err := sim.InitialState()
	require.NoError(t, err)

	flip, ok := p.Action("flip")
	require.True(t, ok)

	next, err := sim.Apply(st, flip)
	require.NoError(t, err)
	require.NotNil(t, next)

	// The precondition now fails, so the second application is rejected.
	again, err := sim.Apply(next, flip)
	require.NoError(t, err)
	require.Nil(t, again)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	assert.True(t, names["bramble_actions_applied_total"])
	assert.True(t, names["bramble_applications_rejected_total"])
}

func TestMetrics_HookCounters(t *testing.T) {
	m := observability.NewMetrics(nil)
	hooks := m.Hooks()

	hooks.OnConflict(nil)
	hooks.OnConflict(nil)
	hooks.OnStnCheck(true)
	hooks.OnStnCheck(false)
	hooks.OnNotApplicable(nil)

	count := testutil.CollectAndCount(m.Registry(),
		"bramble_effect_conflicts_total",
		"bramble_stn_checks_total",
		"bramble_applications_rejected_total")
	assert.Equal(t, 4, count)
}
