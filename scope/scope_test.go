package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/native-abi/capability/captest"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/value"
)

func TestLocalFunc_CountsBalance(t *testing.T) {
	rec := captest.New()
	tbl := rec.Table()
	const cx value.Scope = 7

	f := NewLocalFunc(tbl, 1, cx)
	assert.Equal(t, 1, rec.Outlive[cx])

	a := f.Clone()
	b := a.Clone()
	assert.Equal(t, 3, rec.Outlive[cx])

	b.Release()
	f.Release()
	a.Release()

	assert.Equal(t, 0, rec.Outlive[cx], "eligible for teardown")
	assert.Equal(t, rec.Incs, rec.Decs)
	assert.True(t, f.Released())
}

func TestLocalFunc_CopyAndReleaseThroughValues(t *testing.T) {
	rec := captest.New()
	const cx value.Scope = 3

	list := value.List{value.LocalOf(NewLocalFunc(rec.Table(), 1, cx)), value.Int(1)}
	cp := value.Copy(list)
	assert.Equal(t, 2, rec.Outlive[cx])

	value.Release(list)
	value.Release(cp)
	assert.Equal(t, 0, rec.Outlive[cx])
	assert.Equal(t, 2, rec.Incs)
	assert.Equal(t, 2, rec.Decs)
}

func TestLocalFunc_DoubleRelease(t *testing.T) {
	rec := captest.New()
	f := NewLocalFunc(rec.Table(), 1, 1)
	f.Release()

	for name, op := range map[string]func(){
		"release": f.Release,
		"clone":   func() { f.Clone() },
		"call":    func() { f.Call() },
	} {
		err := captest.Diverges(op)
		require.NotNil(t, err, name)
		assert.Equal(t, errors.KindReleased, err.Kind, name)
		assert.Equal(t, name, err.Member)
	}
	assert.Equal(t, 1, rec.Decs)
}

func TestLocalFunc_Call(t *testing.T) {
	rec := captest.New()
	const cx value.Scope = 9
	rec.Bodies[42] = func(got value.Scope, args []value.Value) value.Value {
		assert.Equal(t, cx, got)
		var sum value.Int
		for _, a := range args {
			sum += a.(value.Int)
		}
		return sum
	}
	rec.Bodies[43] = func(value.Scope, []value.Value) value.Value { return nil }

	f := NewLocalFunc(rec.Table(), 42, cx)
	defer f.Release()
	assert.Equal(t, value.Int(6), f.Call(value.Int(1), value.Int(2), value.Int(3)))
	assert.Equal(t, value.Code(42), f.Code())
	assert.Equal(t, cx, f.Scope())

	g := NewLocalFunc(rec.Table(), 43, cx)
	defer g.Release()
	assert.Equal(t, value.Uninit{}, g.Call())
}

func TestEnv_Navigation(t *testing.T) {
	rec := captest.New()
	tbl := rec.Table()
	const outer, inner value.Scope = 1, 2
	rec.Parents[inner] = outer

	root := NewEnv(tbl, outer)
	env := NewEnv(tbl, inner)
	a := env.Name("a")

	_, ok := env.Find(a)
	assert.False(t, ok)

	root.Let(a, value.Int(5))
	ref, ok := env.Lookup("a")
	require.True(t, ok)
	assert.True(t, ref.Borrowed())
	assert.Equal(t, value.Int(5), ref.Get())

	ref.Set(value.Int(6))
	again, _ := root.Find(a)
	assert.Equal(t, value.Int(6), again.Get(), "writes land in the host slot")

	env.Let(a, value.Str("shadow"))
	ref, _ = env.Find(a)
	assert.Equal(t, value.Str("shadow"), ref.Get())

	env.Const(a)
	assert.True(t, rec.Consts[inner][a])

	p, ok := env.Parent()
	require.True(t, ok)
	assert.Equal(t, outer, p.Scope())
	_, ok = p.Parent()
	assert.False(t, ok)
}

func TestEnv_Self(t *testing.T) {
	rec := captest.New()
	self := value.Value(value.Int(1))
	rec.Selves[4] = &self

	got, ok := NewEnv(rec.Table(), 4).Self()
	require.True(t, ok)
	assert.Same(t, &self, got)

	_, ok = NewEnv(rec.Table(), 5).Self()
	assert.False(t, ok)
}

func TestEnv_Capture(t *testing.T) {
	rec := captest.New()
	f := NewEnv(rec.Table(), 8).Capture(1)
	assert.Equal(t, 1, rec.Outlive[8])
	f.Release()
	assert.Equal(t, 0, rec.Outlive[8])
}
