package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/simulator"
)

const robotYAML = `
name: robot
types: [location]
objects:
  - {name: l0, type: location}
  - {name: l1, type: location}
fluents:
  - {name: robot_at, type: bool, params: [{name: l, type: location}]}
  - {name: connected, type: bool, params: [{name: a, type: location}, {name: b, type: location}]}
  - {name: battery, type: int, default: 100}
actions:
  - name: move
    params: [{name: from, type: location}, {name: to, type: location}]
    preconditions:
      - connected(from, to)
      - robot_at(from)
      - battery >= 10
    effects:
      - {target: robot_at(from), value: false}
      - {target: robot_at(to), value: true}
      - {target: battery, value: 10, kind: decrease}
init:
  robot_at(l0): true
  connected(l0, l1): true
goals:
  - robot_at(l1)
`

func TestBuildProblem_RoundTrip(t *testing.T) {
	doc, err := schema.DecodeProblem([]byte(robotYAML))
	require.NoError(t, err)
	assert.Equal(t, "robot", doc.Name)

	p, err := schema.BuildProblem(doc)
	require.NoError(t, err)

	sim, err := simulator.NewSequentialSimulator(p)
	require.NoError(t, err)
	st, err := sim.InitialState()
	require.NoError(t, err)

	planDoc, err := schema.DecodePlan([]byte(`
steps:
  - {action: move, params: [l0, l1]}
`))
	require.NoError(t, err)
	plan, err := schema.BuildSequentialPlan(p, planDoc)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)

	next, err := sim.Apply(st, plan.Actions[0].Action, plan.Actions[0].Params...)
	require.NoError(t, err)
	require.NotNil(t, next)

	goal, err := sim.IsGoal(next)
	require.NoError(t, err)
	assert.True(t, goal)

	battery, err := next.Value(mustParse(t, p, "battery"))
	require.NoError(t, err)
	assert.Equal(t, "90", battery.String())
}

func TestBuildProblem_CollectsAllErrors(t *testing.T) {
	doc, err := schema.DecodeProblem([]byte(`
name: broken
fluents:
  - {name: x, type: nosuch}
actions:
  - name: act
    preconditions: ["missing_fluent(y)"]
    effects:
      - {target: also_missing, value: 1}
goals: ["missing_too"]
`))
	require.NoError(t, err)

	_, err = schema.BuildProblem(doc)
	require.Error(t, err)
	errs := schema.ValidationErrors(err)
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestDecodeProblem_UnknownKeys(t *testing.T) {
	_, err := schema.DecodeProblem([]byte(`
name: typo
flunets: []
`))
	require.Error(t, err)
	assert.NotNil(t, schema.ValidationErrors(err))
}

func TestDecodePlan_BadYAML(t *testing.T) {
	_, err := schema.DecodePlan([]byte("steps: ["))
	assert.Error(t, err)
}
