package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/pkg/adapters/memory"
	"github.com/aretw0/bramble/pkg/dsl"
	"github.com/aretw0/bramble/pkg/runner"
	"github.com/aretw0/bramble/pkg/session"
)

func newMoveEngine(t *testing.T) *bramble.Engine {
	t.Helper()

	b := dsl.New("corridor")
	b.Objects("location", "l0", "l1", "l2")
	b.BoolFluent("robot_at", false, b.Param("l", "location"))

	move := b.Action("move")
	from := move.Param("from", "location")
	to := move.Param("to", "location")
	move.Pre(b.Ref("robot_at", from)).
		Pre(b.Not(b.Ref("robot_at", to))).
		Effect(b.Ref("robot_at", from), false).
		Effect(b.Ref("robot_at", to), true)

	b.Init(b.Ref("robot_at", b.Obj("l0")), true)
	b.Goal(b.Ref("robot_at", b.Obj("l2")))

	p, err := b.Build()
	require.NoError(t, err)

	eng, err := bramble.New(p)
	require.NoError(t, err)
	return eng
}

func TestRunner_ReachesGoal(t *testing.T) {
	eng := newMoveEngine(t)
	var out bytes.Buffer

	// Choices by menu number and by rendered action name both work.
	in := strings.NewReader("move(l0, l1)\nmove(l1, l2)\n")
	r := runner.New(eng, runner.WithInput(in), runner.WithOutput(&out))

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "robot_at(l0) = true")
	assert.Contains(t, out.String(), "Applicable actions:")
	assert.Contains(t, out.String(), "Goal reached!")
}

func TestRunner_NumericChoiceAndQuit(t *testing.T) {
	eng := newMoveEngine(t)
	var out bytes.Buffer

	// Applicable actions are sorted, so from l0 the menu is
	// 1. move(l0, l1)  2. move(l0, l2).
	in := strings.NewReader("1\nquit\n")
	r := runner.New(eng, runner.WithInput(in), runner.WithOutput(&out))

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "robot_at(l1) = true")
	assert.NotContains(t, out.String(), "Goal reached!")
}

func TestRunner_UnknownChoice(t *testing.T) {
	eng := newMoveEngine(t)
	var out bytes.Buffer

	in := strings.NewReader("42\nbogus\n")
	r := runner.New(eng, runner.WithInput(in), runner.WithOutput(&out))

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), `Unknown choice "42"`)
	assert.Contains(t, out.String(), `Unknown choice "bogus"`)
}

func TestRunner_StateCommand(t *testing.T) {
	eng := newMoveEngine(t)
	var out bytes.Buffer

	in := strings.NewReader("state\nquit\n")
	r := runner.New(eng, runner.WithInput(in), runner.WithOutput(&out))

	require.NoError(t, r.Run(context.Background()))
	assert.GreaterOrEqual(t, strings.Count(out.String(), "State:"), 2)
}

func TestRunner_PersistsAndResumes(t *testing.T) {
	eng := newMoveEngine(t)
	sessions := session.NewManager(memory.NewStore())
	ctx := context.Background()

	var out bytes.Buffer
	first := runner.New(eng,
		runner.WithInput(strings.NewReader("move(l0, l1)\nquit\n")),
		runner.WithOutput(&out),
		runner.WithSession(sessions, "explore-1"))
	require.NoError(t, first.Run(ctx))

	sn, err := sessions.Load(ctx, "explore-1")
	require.NoError(t, err)
	require.Len(t, sn.Steps, 1)
	assert.Equal(t, "move", sn.Steps[0].Action)

	out.Reset()
	second := runner.New(eng,
		runner.WithInput(strings.NewReader("move(l1, l2)\n")),
		runner.WithOutput(&out),
		runner.WithSession(sessions, "explore-1"))
	require.NoError(t, second.Run(ctx))

	assert.Contains(t, out.String(), "Resuming session explore-1 after 1 steps.")
	assert.Contains(t, out.String(), "Goal reached!")
}

func TestRunner_CancelledContext(t *testing.T) {
	eng := newMoveEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.New(eng,
		runner.WithInput(strings.NewReader("1\n")),
		runner.WithOutput(&bytes.Buffer{}))
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}
