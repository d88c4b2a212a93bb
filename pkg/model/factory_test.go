package model_test

import (
	"testing"

	"github.com/aretw0/bramble/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_HashConsing(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	loc := env.UserType("location")
	at := model.NewFluent(env, "robot_at", env.BoolType(), model.NewParameter("l", loc))

	p := model.NewParameter("from", loc)
	e1, err := f.FluentExp(at, p)
	require.NoError(t, err)
	e2, err := f.FluentExp(at, p)
	require.NoError(t, err)
	assert.Same(t, e1, e2, "structurally equal fluent expressions must be the same node")

	a1, err := f.And(e1, true)
	require.NoError(t, err)
	a2, err := f.And(e2, true)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	// Constants are interned too.
	assert.Same(t, f.Int(42), f.Int(42))
	assert.Same(t, f.Real(1.5), f.Real(1.5))
	assert.Same(t, f.TRUE(), f.Bool(true))
	assert.NotSame(t, f.Int(1), f.Real(1), "int 1 and real 1.0 are distinct constants")
}

func TestFactory_DoubleNegation(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	x := model.NewFluent(env, "x", env.BoolType())
	xe, err := f.FluentExp(x)
	require.NoError(t, err)

	n1, err := f.Not(xe)
	require.NoError(t, err)
	n2, err := f.Not(n1)
	require.NoError(t, err)
	assert.Same(t, xe, n2, "Not(Not(x)) must return x itself")
}

func TestFactory_NaryIdentities(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	x := model.NewFluent(env, "x", env.BoolType())
	xe, err := f.FluentExp(x)
	require.NoError(t, err)

	empty, err := f.And()
	require.NoError(t, err)
	assert.Same(t, f.TRUE(), empty)

	empty, err = f.Or()
	require.NoError(t, err)
	assert.Same(t, f.FALSE(), empty)

	one, err := f.And(xe)
	require.NoError(t, err)
	assert.Same(t, xe, one)

	one, err = f.Or(xe)
	require.NoError(t, err)
	assert.Same(t, xe, one)

	zero, err := f.Plus()
	require.NoError(t, err)
	assert.Same(t, f.Int(0), zero)

	unit, err := f.Times()
	require.NoError(t, err)
	assert.Same(t, f.Int(1), unit)

	n := f.Int(7)
	same, err := f.Plus(n)
	require.NoError(t, err)
	assert.Same(t, n, same)

	same, err = f.Times(n)
	require.NoError(t, err)
	assert.Same(t, n, same)
}

func TestFactory_TypeChecking(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	battery := model.NewFluent(env, "battery", env.RealType())
	be, err := f.FluentExp(battery)
	require.NoError(t, err)

	_, err = f.And(be, true)
	assert.ErrorIs(t, err, model.ErrTypeMismatch, "And over a real fluent must fail")

	_, err = f.Plus(be, true)
	assert.ErrorIs(t, err, model.ErrTypeMismatch)

	sum, err := f.Plus(be, 2)
	require.NoError(t, err)
	assert.Equal(t, model.RealKind, sum.Type().Kind(), "real operand promotes the sum")

	isum, err := f.Plus(1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.IntKind, isum.Type().Kind())

	loc := env.UserType("location")
	le := f.ParamExp(model.NewParameter("l", loc))
	_, err = f.Equals(le, 3)
	assert.ErrorIs(t, err, model.ErrTypeMismatch, "object vs number comparison must fail")
}

func TestFactory_EnvironmentMixing(t *testing.T) {
	envA := model.NewEnvironment()
	envB := model.NewEnvironment()

	x := model.NewFluent(envA, "x", envA.BoolType())
	xe, err := envA.Factory().FluentExp(x)
	require.NoError(t, err)

	_, err = envB.Factory().And(xe, true)
	assert.ErrorIs(t, err, model.ErrEnvironmentMismatch)

	_, err = envB.Factory().FluentExp(x)
	assert.ErrorIs(t, err, model.ErrEnvironmentMismatch)
}

func TestFactory_QuantifierNeedsVariables(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	_, err := f.Exists(true)
	assert.ErrorIs(t, err, model.ErrDefinition)
	_, err = f.Forall(true)
	assert.ErrorIs(t, err, model.ErrDefinition)

	v := model.NewVariable("l", env.UserType("location"))
	q, err := f.Forall(true, v)
	require.NoError(t, err)
	assert.Equal(t, model.KindForall, q.Kind())
	assert.Equal(t, []*model.Variable{v}, q.Vars())
}

func TestFactory_AutoPromote(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	n, err := f.Auto(true)
	require.NoError(t, err)
	assert.Same(t, f.TRUE(), n)

	n, err = f.Auto(3)
	require.NoError(t, err)
	assert.Same(t, f.Int(3), n)

	n, err = f.Auto(2.5)
	require.NoError(t, err)
	assert.Same(t, f.Real(2.5), n)

	_, err = f.Auto("nope")
	assert.ErrorIs(t, err, model.ErrDefinition)
}

func TestNode_String(t *testing.T) {
	env := model.NewEnvironment()
	f := env.Factory()

	loc := env.UserType("location")
	at := model.NewFluent(env, "robot_at", env.BoolType(), model.NewParameter("l", loc))
	p := model.NewParameter("from", loc)

	e, err := f.FluentExp(at, p)
	require.NoError(t, err)
	assert.Equal(t, "robot_at(from)", e.String())

	conj, err := f.And(e, true)
	require.NoError(t, err)
	assert.Equal(t, "(and robot_at(from) true)", conj.String())
}
