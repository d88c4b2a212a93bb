package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/internal/compiler"
	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/simulator"
)

func mustParse(t *testing.T, p *model.Problem, src string) *model.Node {
	t.Helper()
	n, err := compiler.NewParser(compiler.Scope{Problem: p}).Parse(src)
	require.NoError(t, err)
	return n
}

func TestSnapshot_StateRoundTrip(t *testing.T) {
	doc, err := schema.DecodeProblem([]byte(robotYAML))
	require.NoError(t, err)
	p, err := schema.BuildProblem(doc)
	require.NoError(t, err)

	sim, err := simulator.NewSequentialSimulator(p)
	require.NoError(t, err)
	st, err := sim.InitialState()
	require.NoError(t, err)

	move, _ := p.Action("move")
	next, err := sim.Apply(st, move, mustParse(t, p, "l0"), mustParse(t, p, "l1"))
	require.NoError(t, err)
	require.NotNil(t, next)

	sn := schema.NewSnapshot("sess-1", p.Name())
	schema.SnapshotState(sn, next)
	schema.AppendStep(sn, model.ActionInstance{
		Action: move,
		Params: []*model.Node{mustParse(t, p, "l0"), mustParse(t, p, "l1")},
	})

	assert.Equal(t, "true", sn.Values["robot_at(l1)"])
	require.Len(t, sn.Steps, 1)
	assert.Equal(t, "move", sn.Steps[0].Action)
	assert.Equal(t, []string{"l0", "l1"}, sn.Steps[0].Params)

	restored, err := schema.RestoreState(sn, p)
	require.NoError(t, err)
	assert.True(t, restored.Equal(next))
}

func TestSnapshot_Clone(t *testing.T) {
	sn := schema.NewSnapshot("s", "p")
	sn.Values["x"] = "1"
	sn.Steps = append(sn.Steps, schema.StepDoc{Action: "a"})

	cp := sn.Clone()
	cp.Values["x"] = "2"
	cp.Steps[0].Action = "b"

	assert.Equal(t, "1", sn.Values["x"])
	assert.Equal(t, "a", sn.Steps[0].Action)
}
