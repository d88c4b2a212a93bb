package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/internal/compiler"
	"github.com/aretw0/bramble/pkg/model"
)

func testScope(t *testing.T) compiler.Scope {
	t.Helper()
	p := model.NewProblem("depot")
	env := p.Environment()
	crate := env.UserType("crate")

	weight := model.NewFluent(env, "weight", env.IntType(), model.NewParameter("c", crate))
	stored := model.NewFluent(env, "stored", env.BoolType(), model.NewParameter("c", crate))
	capacity := model.NewFluent(env, "capacity", env.IntType())
	require.NoError(t, p.AddFluent(weight, 0))
	require.NoError(t, p.AddFluent(stored, false))
	require.NoError(t, p.AddFluent(capacity, 100))
	_, err := p.AddObject("c1", crate)
	require.NoError(t, err)

	return compiler.Scope{Problem: p}
}

func TestParser_Precedence(t *testing.T) {
	scope := testScope(t)
	p := compiler.NewParser(scope)

	n, err := p.Parse("weight(c1) + 2 * 3 <= capacity")
	require.NoError(t, err)
	assert.Equal(t, model.KindLE, n.Kind())
	assert.Equal(t, model.KindPlus, n.Arg(0).Kind())
	assert.Equal(t, model.KindTimes, n.Arg(0).Arg(1).Kind())
}

func TestParser_WordOperators(t *testing.T) {
	scope := testScope(t)
	p := compiler.NewParser(scope)

	sym, err := p.Parse("stored(c1) && !(weight(c1) == 0)")
	require.NoError(t, err)
	word, err := p.Parse("stored(c1) and not (weight(c1) == 0)")
	require.NoError(t, err)
	// The factory interns: equal syntax trees are the same node.
	assert.Same(t, sym, word)
}

func TestParser_ParamScope(t *testing.T) {
	scope := testScope(t)
	crate := scope.Problem.Environment().UserType("crate")
	a := model.NewInstantaneousAction(scope.Problem.Environment(), "store")
	c, err := a.NewParameter("c", crate)
	require.NoError(t, err)
	scope.Params = map[string]*model.Parameter{"c": c}

	p := compiler.NewParser(scope)
	n, err := p.Parse("not stored(c)")
	require.NoError(t, err)
	assert.Equal(t, model.KindNot, n.Kind())
	assert.Equal(t, model.KindParamExp, n.Arg(0).Arg(0).Kind())
}

func TestParser_Errors(t *testing.T) {
	scope := testScope(t)
	p := compiler.NewParser(scope)

	_, err := p.Parse("unknown_fluent(c1)")
	assert.Error(t, err)
	_, err = p.Parse("stored(c1) &&")
	assert.Error(t, err)
	_, err = p.Parse("stored(c1) extra")
	assert.Error(t, err)
	_, err = p.Parse("(stored(c1)")
	assert.Error(t, err)
}
