package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/class"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/module"
	"github.com/wippyai/native-abi/value"
)

type keeper struct {
	caps  capability.Binding
	box   class.Decl
	kept  value.Value
	drops int
}

func (k *keeper) bootstrap(t *capability.Table, ex *module.Exports) {
	k.caps.MustBind(t)
	k.box.Init("Box", &k.caps).
		OnDrop(func(*value.Instance) { k.drops++ }).
		Build()
	ex.Class(k.box.Class())

	ex.Func("box", func([]value.Ref, value.Scope) value.Value {
		return k.box.Create(0, 0)
	})
	ex.Func("apply", func(args []value.Ref, _ value.Scope) value.Value {
		f := args[0].Take().(value.Func)
		defer value.Release(f)
		return f.Local.Call(args[1].Take())
	})
	ex.Func("keep", func(args []value.Ref, _ value.Scope) value.Value {
		k.kept = args[0].Take()
		return nil
	})
	ex.Func("forget", func([]value.Ref, value.Scope) value.Value {
		value.Release(k.kept)
		k.kept = nil
		return nil
	})
	ex.Func("fail", func([]value.Ref, value.Scope) value.Value {
		k.caps.Fail("boom")
		return nil
	})
}

func loadKeeper(t *testing.T) (*Host, *keeper) {
	t.Helper()
	h := New()
	k := &keeper{}
	_, err := h.Load("keeper", k.bootstrap)
	require.NoError(t, err)
	return h, k
}

func TestLoad_Modules(t *testing.T) {
	h, _ := loadKeeper(t)

	assert.Equal(t, []string{"keeper"}, h.Modules())
	_, ok := h.Module("keeper")
	assert.True(t, ok)

	_, err := h.Load("keeper", (&keeper{}).bootstrap)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyInitialized))

	_, err = h.Func("keeper", "nope")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	_, err = h.Func("nope", "box")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestIntern_Identity(t *testing.T) {
	h := New()
	assert.True(t, h.Intern("a") == h.Intern("a"))
	assert.True(t, h.Table().Intern([]byte("a")) == h.Intern("a"))
	assert.False(t, h.Intern("a") == h.Intern("b"))
}

func TestScope_TeardownWaitsForClosures(t *testing.T) {
	h, k := loadKeeper(t)
	cx := h.NewScope(h.Global())

	b, err := h.CallFunc(cx, "keeper", "box")
	require.NoError(t, err)
	require.NoError(t, h.Define(cx, "b", b))

	fn, err := h.Closure(cx, func(value.Scope, []value.Value) value.Value { return value.Int(1) })
	require.NoError(t, err)
	assert.Equal(t, 1, h.Outlive(cx))
	assert.False(t, h.Eligible(cx))

	_, err = h.CallFunc(h.Global(), "keeper", "keep", fn)
	require.NoError(t, err)

	require.NoError(t, h.Exit(cx))
	assert.True(t, h.Alive(cx), "a kept closure holds the scope")
	assert.Equal(t, 0, k.drops)

	_, err = h.CallFunc(h.Global(), "keeper", "forget")
	require.NoError(t, err)
	assert.False(t, h.Alive(cx))
	assert.Equal(t, 1, k.drops, "bindings are released on teardown")
}

func TestScope_ExitWithoutClosures(t *testing.T) {
	h := New()
	cx := h.NewScope(h.Global())
	assert.True(t, h.Eligible(cx))

	require.NoError(t, h.Exit(cx))
	assert.False(t, h.Alive(cx))

	err := h.Exit(cx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scope")
}

func TestClosure_CopyBalancesCount(t *testing.T) {
	h := New()
	cx := h.NewScope(h.Global())

	fn, err := h.Closure(cx, func(value.Scope, []value.Value) value.Value { return nil })
	require.NoError(t, err)

	cp, err := h.Copy(value.List{fn, fn})
	require.NoError(t, err)
	assert.Equal(t, 3, h.Outlive(cx))

	require.NoError(t, h.Drop(cp))
	assert.Equal(t, 1, h.Outlive(cx))
	require.NoError(t, h.Drop(fn))
	assert.Equal(t, 0, h.Outlive(cx))
	assert.True(t, h.Eligible(cx))
	assert.True(t, h.Alive(cx), "not exited yet")

	require.NoError(t, h.Exit(cx))
	assert.False(t, h.Alive(cx))
}

func TestClosure_ReentrantCall(t *testing.T) {
	h, _ := loadKeeper(t)
	cx := h.NewScope(h.Global())
	require.NoError(t, h.Define(cx, "base", value.Int(40)))

	var callScope value.Scope
	fn, err := h.Closure(cx, func(call value.Scope, args []value.Value) value.Value {
		callScope = call
		base, err := h.Lookup(call, "base")
		require.NoError(t, err)
		return base.(value.Int) + args[0].(value.Int)
	})
	require.NoError(t, err)

	out, err := h.CallFunc(cx, "keeper", "apply", fn, value.Int(2))
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), out)
	assert.False(t, h.Alive(callScope), "call scope is exited on return")
	assert.Equal(t, 0, h.Outlive(cx), "apply released its handle")
}

func TestClosure_CallDirect(t *testing.T) {
	h := New()
	fn, err := h.Closure(h.Global(), func(_ value.Scope, args []value.Value) value.Value {
		return value.Int(len(args))
	})
	require.NoError(t, err)
	defer h.Drop(fn)

	out, err := h.Call(h.Global(), fn, value.Int(1), value.Int(2))
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), out)

	_, err = h.Closure(value.Scope(999), func(value.Scope, []value.Value) value.Value { return nil })
	assert.Error(t, err)
}

func TestCall_Errors(t *testing.T) {
	h, _ := loadKeeper(t)
	cx := h.Global()

	_, err := h.CallFunc(cx, "keeper", "fail")
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindReported, e.Kind)
	assert.Equal(t, "boom", e.Detail)

	_, err = h.Call(cx, value.ExternOf("libm", "sin"))
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))

	_, err = h.Call(cx, value.Int(1))
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch))

	_, err = h.CallStatic(cx, "keeper", "Box", "new")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	_, err = h.CallMethod(cx, value.Int(1), "m")
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch))
}

func TestVariables(t *testing.T) {
	h := New()
	outer := h.Global()
	inner := h.NewScope(outer)

	require.NoError(t, h.Define(outer, "x", value.Int(1)))
	v, err := h.Lookup(inner, "x")
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), v)

	require.NoError(t, h.Assign(inner, "x", value.Int(2)))
	v, _ = h.Lookup(outer, "x")
	assert.Equal(t, value.Int(2), v)

	require.NoError(t, h.Define(inner, "x", value.Str("shadow")))
	v, _ = h.Lookup(inner, "x")
	assert.Equal(t, value.Str("shadow"), v)
	v, _ = h.Lookup(outer, "x")
	assert.Equal(t, value.Int(2), v)

	require.NoError(t, h.Const(outer, "x"))
	err = h.Assign(outer, "x", value.Int(3))
	assert.True(t, errors.IsKind(err, errors.KindConstBinding))

	_, err = h.Lookup(inner, "y")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	err = h.Assign(inner, "y", value.Int(1))
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	err = h.Const(inner, "y")
	assert.True(t, errors.IsKind(err, errors.KindReported))
}

func TestMethodScope_Self(t *testing.T) {
	h := New()
	recv := value.Value(value.Str("me"))
	ms := h.NewMethodScope(h.Global(), &recv)

	self, ok := h.Table().GetSelf(ms)
	require.True(t, ok)
	assert.Same(t, &recv, self)

	_, ok = h.Table().GetSelf(h.Global())
	assert.False(t, ok)

	parent, ok := h.Table().GetParent(ms)
	require.True(t, ok)
	assert.Equal(t, h.Global(), parent)
	_, ok = h.Table().GetParent(h.Global())
	assert.False(t, ok)
}

func TestContainers(t *testing.T) {
	h := New()
	obj := value.Object{h.Intern("a"): value.Int(1)}
	list := value.List{value.Int(10), value.Str("s")}
	buf := value.Buffer{1, 2}

	v, err := h.GetField(obj, "a")
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), v)
	require.NoError(t, h.SetField(obj, "b", value.Bool(true)))
	v, _ = h.Index(obj, value.Str("b"))
	assert.Equal(t, value.Bool(true), v)

	v, err = h.Index(list, value.Uint(1))
	require.NoError(t, err)
	assert.Equal(t, value.Str("s"), v)
	require.NoError(t, h.SetIndex(list, value.Int(0), value.Int(11)))
	assert.Equal(t, value.Int(11), list[0])

	_, err = h.Index(list, value.Int(2))
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
	_, err = h.Index(list, value.Str("x"))
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch))

	v, _ = h.Index(buf, value.Int(1))
	assert.Equal(t, value.Uint(2), v)
	require.NoError(t, h.SetIndex(buf, value.Int(0), value.Uint(0xff)))
	assert.Equal(t, byte(0xff), buf[0])
	assert.Error(t, h.SetIndex(buf, value.Int(0), value.Uint(0x100)))

	_, err = h.GetField(value.Int(1), "a")
	assert.True(t, errors.IsKind(err, errors.KindTypeMismatch))

	items, err := h.Collect(list)
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(11), value.Str("s")}, items)

	s, err := h.String(value.List{value.Str("a"), value.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, `["a", 1]`, s)
}

func TestClose(t *testing.T) {
	h, k := loadKeeper(t)
	cx := h.NewScope(h.Global())
	b, err := h.CallFunc(cx, "keeper", "box")
	require.NoError(t, err)
	require.NoError(t, h.Define(cx, "b", b))

	fn, err := h.Closure(cx, func(value.Scope, []value.Value) value.Value { return nil })
	require.NoError(t, err)
	require.NoError(t, h.Define(h.Global(), "f", fn))

	require.NoError(t, h.Close())
	assert.False(t, h.Alive(cx))
	assert.False(t, h.Alive(h.Global()))
	assert.Equal(t, 1, k.drops)
}

func TestScope_ClosureOverNestedScopeKeepsAncestors(t *testing.T) {
	h := New()
	parent := h.NewScope(h.Global())
	require.NoError(t, h.Define(parent, "x", value.Int(1)))
	child := h.NewScope(parent)

	fn, err := h.Closure(child, func(call value.Scope, _ []value.Value) value.Value {
		v, err := h.Lookup(call, "x")
		require.NoError(t, err)
		return v
	})
	require.NoError(t, err)

	require.NoError(t, h.Exit(child))
	require.NoError(t, h.Exit(parent))
	assert.True(t, h.Alive(child))
	assert.True(t, h.Alive(parent), "the closure reaches the parent through its chain")
	assert.Equal(t, 0, h.Outlive(parent))
	assert.False(t, h.Eligible(parent), "a live child pins the parent")

	other := h.NewScope(h.Global())
	assert.NotEqual(t, parent, other, "a pinned handle is not recycled")
	require.NoError(t, h.Define(other, "x", value.Str("other")))

	out, err := h.Call(h.Global(), fn)
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), out)

	require.NoError(t, h.Drop(fn))
	assert.False(t, h.Alive(child))
	assert.False(t, h.Alive(parent), "the parent goes with its last child")
	assert.True(t, h.Alive(other))
	require.NoError(t, h.Exit(other))

	assert.Panics(t, func() { h.NewScope(parent) })
}

func TestScope_UnexitedChildPinsParent(t *testing.T) {
	h := New()
	parent := h.NewScope(h.Global())
	child := h.NewScope(parent)

	require.NoError(t, h.Exit(parent))
	assert.True(t, h.Alive(parent))

	require.NoError(t, h.Exit(child))
	assert.False(t, h.Alive(child))
	assert.False(t, h.Alive(parent))
}

func TestDefaultHooks_ReleaseClosures(t *testing.T) {
	h, _ := loadKeeper(t)
	cx := h.NewScope(h.Global())
	fn, err := h.Closure(cx, func(value.Scope, []value.Value) value.Value { return nil })
	require.NoError(t, err)

	box, err := h.CallFunc(h.Global(), "keeper", "box")
	require.NoError(t, err)

	cp, err := h.Copy(fn)
	require.NoError(t, err)
	require.NoError(t, h.SetField(box, "cb", cp))
	cp, err = h.Copy(fn)
	require.NoError(t, err)
	require.NoError(t, h.SetIndex(box, value.Int(0), cp))
	assert.Equal(t, 1, h.Outlive(cx), "default setters released their copies")

	require.NoError(t, h.Drop(fn))
	require.NoError(t, h.Exit(cx))
	assert.Equal(t, 0, h.Outlive(cx))
	assert.False(t, h.Alive(cx))
	require.NoError(t, h.Drop(box))
}

func TestCall_ClosureReleasesArgs(t *testing.T) {
	h := New()
	cx := h.NewScope(h.Global())
	arg, err := h.Closure(cx, func(value.Scope, []value.Value) value.Value { return nil })
	require.NoError(t, err)
	ignore, err := h.Closure(h.Global(), func(value.Scope, []value.Value) value.Value { return nil })
	require.NoError(t, err)
	defer h.Drop(ignore)

	cp, err := h.Copy(arg)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Outlive(cx))

	_, err = h.Call(h.Global(), ignore, cp)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Outlive(cx), "unused args are released after the call")

	require.NoError(t, h.Drop(arg))
	require.NoError(t, h.Exit(cx))
	assert.False(t, h.Alive(cx))
}
