package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/internal/presentation/graph"
	"github.com/aretw0/bramble/pkg/model"
)

func buildMovePlan(t *testing.T) (*model.SequentialPlan, *model.TimeTriggeredPlan) {
	t.Helper()

	p := model.NewProblem("demo")
	env := p.Environment()

	a := model.NewInstantaneousAction(env, "pick")
	require.NoError(t, p.AddAction(a))
	b := model.NewInstantaneousAction(env, "place")
	require.NoError(t, p.AddAction(b))

	seq := &model.SequentialPlan{Actions: []model.ActionInstance{
		{Action: a}, {Action: b},
	}}
	timed := &model.TimeTriggeredPlan{Steps: []model.TimedActionInstance{
		{Start: 0, Instance: model.ActionInstance{Action: a}, Duration: 2.5},
		{Start: 2.5, Instance: model.ActionInstance{Action: b}},
	}}
	return seq, timed
}

func TestSequentialFlowchart(t *testing.T) {
	seq, _ := buildMovePlan(t)

	out := graph.SequentialFlowchart(seq, nil)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `s0["pick"]`)
	assert.Contains(t, out, `s1["place"]`)
	assert.Contains(t, out, "init --> s0")
	assert.Contains(t, out, "s0 --> s1")
	assert.Contains(t, out, "s1 --> goal")
	assert.NotContains(t, out, "classDef")
}

func TestSequentialFlowchart_Overlay(t *testing.T) {
	seq, _ := buildMovePlan(t)

	out := graph.SequentialFlowchart(seq, &graph.Overlay{Applied: 1, Failed: 1})
	assert.Contains(t, out, "class s0 applied;")
	assert.Contains(t, out, "class s1 failed;")
}

func TestTemporalGantt(t *testing.T) {
	_, timed := buildMovePlan(t)

	out := graph.TemporalGantt("demo", timed)
	assert.True(t, strings.HasPrefix(out, "gantt\n"))
	assert.Contains(t, out, "title demo")
	assert.Contains(t, out, "pick :s0, 0, 2500ms")
	// Instantaneous steps get a minimal visible width.
	assert.Contains(t, out, "place :s1, 2500, 1ms")
}
