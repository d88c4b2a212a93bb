package state_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counters builds n ground int fluent expressions c0..c(n-1).
func counters(t *testing.T, env *model.Environment, n int) []*model.Node {
	t.Helper()
	f := env.Factory()
	out := make([]*model.Node, n)
	for i := range out {
		fl := model.NewFluent(env, fmt.Sprintf("c%d", i), env.IntType())
		exp, err := f.FluentExp(fl)
		require.NoError(t, err)
		out[i] = exp
	}
	return out
}

func TestState_ValueWalksChain(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()
	cs := counters(t, env, 3)

	root := state.New(map[*model.Node]*model.Node{
		cs[0]: f.Int(0),
		cs[1]: f.Int(0),
	})
	child := root.MakeChild(map[*model.Node]*model.Node{cs[1]: f.Int(7)})

	v, err := child.Value(cs[0])
	require.NoError(t, err)
	assert.Same(t, f.Int(0), v, "inherited from parent")

	v, err = child.Value(cs[1])
	require.NoError(t, err)
	assert.Same(t, f.Int(7), v, "child shadows parent")

	_, err = child.Value(cs[2])
	assert.ErrorIs(t, err, state.ErrValueNotFound)
}

func TestState_CondensationTransparent(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()
	cs := counters(t, env, 4)

	initial := func(opts ...state.Option) *state.State {
		vals := make(map[*model.Node]*model.Node, len(cs))
		for _, c := range cs {
			vals[c] = f.Int(0)
		}
		return state.New(vals, opts...)
	}

	// Drive two chains through the same 50 updates: one with an
	// artificially low threshold forcing repeated condensation, one with
	// condensation disabled.
	bounded := initial(state.WithMaxAncestors(3))
	unbounded := initial(state.WithMaxAncestors(-1))
	for i := 1; i <= 50; i++ {
		upd := map[*model.Node]*model.Node{cs[i%len(cs)]: f.Int(int64(i))}
		bounded = bounded.MakeChild(upd)
		upd2 := map[*model.Node]*model.Node{cs[i%len(cs)]: f.Int(int64(i))}
		unbounded = unbounded.MakeChild(upd2)
	}

	assert.LessOrEqual(t, bounded.Depth(), 4, "bounded chain stays short")
	assert.Equal(t, 50, unbounded.Depth())

	for _, c := range cs {
		want, err := unbounded.Value(c)
		require.NoError(t, err)
		got, err := bounded.Value(c)
		require.NoError(t, err)
		assert.Same(t, want, got, "condensation must be observably transparent for %s", c)
	}

	assert.True(t, bounded.Equal(unbounded))
	assert.Equal(t, bounded.Hash(), unbounded.Hash())
}

func TestState_CondensationKeepsParentIntact(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()
	cs := counters(t, env, 2)

	root := state.New(map[*model.Node]*model.Node{cs[0]: f.Int(1), cs[1]: f.Int(1)},
		state.WithMaxAncestors(1))
	mid := root.MakeChild(map[*model.Node]*model.Node{cs[0]: f.Int(2)})
	// This child creation forces mid to condense.
	leaf := mid.MakeChild(map[*model.Node]*model.Node{cs[1]: f.Int(3)})

	v, err := root.Value(cs[0])
	require.NoError(t, err)
	assert.Same(t, f.Int(1), v, "root unchanged after descendant condensation")

	v, err = leaf.Value(cs[0])
	require.NoError(t, err)
	assert.Same(t, f.Int(2), v)
	v, err = leaf.Value(cs[1])
	require.NoError(t, err)
	assert.Same(t, f.Int(3), v)
}

func TestState_Equality(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()
	cs := counters(t, env, 2)

	a := state.New(map[*model.Node]*model.Node{cs[0]: f.Int(1)})
	b := state.New(nil).MakeChild(map[*model.Node]*model.Node{cs[0]: f.Int(1)})
	assert.True(t, a.Equal(b), "equality is over the condensed view")
	assert.Equal(t, a.Hash(), b.Hash())

	c := b.MakeChild(map[*model.Node]*model.Node{cs[0]: f.Int(2)})
	assert.False(t, a.Equal(c))
}
