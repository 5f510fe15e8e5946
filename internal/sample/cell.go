package sample

import (
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/slot"
	"github.com/wippyai/native-abi/value"
)

const cellTag uint32 = 1

// cell is the boxed state of a Cell instance. V holds its slot handle.
type cell struct {
	v value.Value
}

// Drop implements slot.Dropper.
func (c *cell) Drop() {
	value.Release(c.v)
	c.v = nil
}

func (m *Module) registerCell() {
	m.Cell.Init("Cell", &m.caps).
		StaticMethod("new", m.cellNew).
		Method("get", m.cellGetMethod).
		Getter(m.cellGet).
		Setter(m.cellSet).
		OnClone(m.cellClone).
		OnDrop(m.cellDrop).
		ToString(func(inst *value.Instance) string {
			return "Cell(" + value.Format(m.cell(inst).v) + ")"
		}).
		Build()
}

func (m *Module) cellNew(args []value.Ref, _ value.Scope) value.Value {
	if len(args) != 1 {
		panic(errors.Arity(errors.PhaseDispatch, "Cell.new", 1, len(args)))
	}
	h := m.cells.Put(&cell{v: args[0].Take()})
	return m.Cell.Create(uintptr(h), 0)
}

func (m *Module) cell(inst *value.Instance) *cell {
	c, ok := m.cells.Get(slot.Handle(inst.V))
	if !ok {
		panic(errors.Released(errors.PhaseDispatch, "cell"))
	}
	return c
}

func (m *Module) cellGetMethod(inst *value.Instance, _ []value.Ref, _ value.Scope) value.Value {
	return value.Copy(m.cell(inst).v)
}

func (m *Module) cellGet(inst *value.Instance, name ident.Ident) value.Value {
	if name.String() != "value" {
		return value.Uninit{}
	}
	return value.Copy(m.cell(inst).v)
}

func (m *Module) cellSet(inst *value.Instance, name ident.Ident, v value.Value) {
	if name.String() != "value" {
		value.Release(v)
		panic(errors.NotFound(errors.PhaseDispatch, "field", name.String()))
	}
	c := m.cell(inst)
	old := c.v
	c.v = v
	value.Release(old)
}

// cellClone boxes a deep copy so each instance owns its own slot.
func (m *Module) cellClone(inst *value.Instance) value.Instance {
	h := m.cells.Put(&cell{v: value.Copy(m.cell(inst).v)})
	Logger().Debug("cell cloned", zap.Uintptr("from", inst.V), zap.Uintptr("to", uintptr(h)))
	return value.Instance{V: uintptr(h)}
}

func (m *Module) cellDrop(inst *value.Instance) {
	if _, ok := m.cells.Release(slot.Handle(inst.V)); !ok {
		panic(errors.Released(errors.PhaseDispatch, "cell"))
	}
}
