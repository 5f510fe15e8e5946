// Package sample is a small extension module: a Range iterator class, a
// Sample class that overrides every hook and logs what the host asks of it,
// a Cell class that owns a boxed value through a slot table, and a free
// function that reads a variable from the caller's scope.
package sample

import (
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/class"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/module"
	"github.com/wippyai/native-abi/scope"
	"github.com/wippyai/native-abi/slot"
	"github.com/wippyai/native-abi/value"
)

// Module holds the state one bootstrap of the sample module owns.
type Module struct {
	caps   capability.Binding
	Range  class.Decl
	Sample class.Decl
	Cell   class.Decl

	cells *slot.Typed[*cell]
}

// New returns an unbootstrapped module instance.
func New() *Module {
	return &Module{
		cells: slot.NewTyped[*cell](slot.NewTable(), cellTag),
	}
}

var std = New()

// Bootstrap is the entry point of the process-wide module instance.
func Bootstrap(t *capability.Table, ex *module.Exports) {
	std.Bootstrap(t, ex)
}

// Bootstrap binds t and registers the exports.
func (m *Module) Bootstrap(t *capability.Table, ex *module.Exports) {
	m.caps.MustBind(t)

	m.Range.Init("Range", &m.caps).
		Next(rangeNext).
		Method("len", rangeLen).
		StaticMethod("new", m.rangeNew).
		Build()

	m.Sample.Init("Sample", &m.caps).
		OnClone(func(inst *value.Instance) value.Instance {
			Logger().Info("cloned")
			return *inst
		}).
		Next(sampleNext).
		IndexGet(func(_ *value.Instance, key *value.Ref) value.Value {
			Logger().Info("index get", zap.String("key", value.Format(key.Get())))
			return value.Float(2.55)
		}).
		IndexSet(func(_ *value.Instance, key *value.Ref, v value.Value) {
			Logger().Info("index set",
				zap.String("key", value.Format(key.Get())),
				zap.String("value", value.Format(v)),
			)
			value.Release(v)
		}).
		OnClone(func(inst *value.Instance) value.Instance {
			Logger().Info("clone")
			return *inst
		}).
		OnDrop(func(*value.Instance) {
			Logger().Info("drop")
		}).
		StaticMethod("new", m.sampleNew).
		Method("see", sampleSee).
		Getter(sampleGet).
		Setter(sampleSet).
		Build()

	m.registerCell()

	ex.Class(m.Range.Class())
	ex.Class(m.Sample.Class())
	ex.Class(m.Cell.Class())
	ex.Func("test", m.test)
}

func (m *Module) rangeNew(args []value.Ref, _ value.Scope) value.Value {
	if len(args) != 2 {
		panic(errors.Arity(errors.PhaseDispatch, "Range.new", 2, len(args)))
	}
	return m.Range.Create(word(&args[0], "start"), word(&args[1], "end"))
}

// rangeNext yields V until it reaches W.
func rangeNext(inst *value.Instance) value.Value {
	if inst.V >= inst.W {
		return value.IterEnd
	}
	v := value.Uint(inst.V)
	inst.V++
	return v
}

func rangeLen(inst *value.Instance, _ []value.Ref, _ value.Scope) value.Value {
	if inst.V >= inst.W {
		return value.Uint(0)
	}
	return value.Uint(inst.W - inst.V)
}

func (m *Module) sampleNew([]value.Ref, value.Scope) value.Value {
	return m.Sample.Create(0, 15)
}

// sampleNext counts V up to and including W.
func sampleNext(inst *value.Instance) value.Value {
	if inst.W < inst.V {
		return value.IterEnd
	}
	v := value.Uint(inst.V)
	inst.V++
	return v
}

func sampleSee(inst *value.Instance, _ []value.Ref, _ value.Scope) value.Value {
	Logger().Info("see", zap.Uintptr("v", inst.V), zap.Uintptr("w", inst.W))
	return value.Uninit{}
}

func sampleGet(_ *value.Instance, name ident.Ident) value.Value {
	Logger().Info("get", zap.String("field", name.String()))
	return value.Uninit{}
}

func sampleSet(_ *value.Instance, name ident.Ident, v value.Value) {
	Logger().Info("set", zap.String("field", name.String()), zap.String("value", value.Format(v)))
	value.Release(v)
}

func (m *Module) test(_ []value.Ref, cx value.Scope) value.Value {
	env := scope.NewEnv(m.caps.Table(), cx)
	ref, ok := env.Lookup("a")
	if !ok {
		panic(errors.NotFound(errors.PhaseDispatch, "variable", "a"))
	}
	Logger().Info("test", zap.String("a", value.Format(ref.Get())))
	return value.Uninit{}
}

func word(ref *value.Ref, name string) uintptr {
	switch v := ref.Get().(type) {
	case value.Uint:
		return uintptr(v)
	case value.Int:
		if v < 0 {
			panic(errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
				Member(name).
				Value(int64(v)).
				Detail("negative bound").
				Build())
		}
		return uintptr(v)
	default:
		panic(errors.TypeMismatch(errors.PhaseDispatch, []string{name}, "int", value.KindOf(v).String()))
	}
}
