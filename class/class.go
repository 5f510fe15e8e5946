package class

import (
	"fmt"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Hook shapes.
type (
	GetterFunc   func(inst *value.Instance, name ident.Ident) value.Value
	SetterFunc   func(inst *value.Instance, name ident.Ident, v value.Value)
	IndexGetFunc func(inst *value.Instance, key *value.Ref) value.Value
	IndexSetFunc func(inst *value.Instance, key *value.Ref, v value.Value)
	NextFunc     func(inst *value.Instance) value.Value
	CloneFunc    func(inst *value.Instance) value.Instance
	DropFunc     func(inst *value.Instance)
	ToStringFunc func(inst *value.Instance) string
)

// MethodEntry is one slot of the method table.
type MethodEntry struct {
	Name ident.Ident
	Fn   value.Method
}

// StaticEntry is one slot of the static method table.
type StaticEntry struct {
	Name ident.Ident
	Fn   value.NativeFunc
}

// Class is a frozen vtable. It implements value.Class.
type Class struct {
	caps    *capability.Binding
	name    string
	methods []MethodEntry
	statics []StaticEntry

	getter   GetterFunc
	setter   SetterFunc
	indexGet IndexGetFunc
	indexSet IndexSetFunc
	next     NextFunc
	clone    CloneFunc
	drop     DropFunc
	toString ToStringFunc

	overridden hookSet
}

var _ value.Class = (*Class)(nil)

// Hook names a vtable hook.
type Hook uint8

const (
	HookGetter Hook = iota
	HookSetter
	HookIndexGet
	HookIndexSet
	HookNext
	HookClone
	HookDrop
	HookToString
)

var hookNames = [...]string{"getter", "setter", "index_get", "index_set", "next", "clone", "drop", "to_string"}

func (h Hook) String() string {
	if int(h) < len(hookNames) {
		return hookNames[h]
	}
	return "unknown"
}

type hookSet uint8

func (s hookSet) has(h Hook) bool { return s&(1<<h) != 0 }

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Overridden reports whether hook h was replaced during registration.
func (c *Class) Overridden(h Hook) bool {
	return c.overridden.has(h)
}

// Create makes an instance of c from two raw words.
func (c *Class) Create(v, w uintptr) *value.Instance {
	if c == nil {
		panic(errors.NotInitialized(errors.PhaseDispatch, "class"))
	}
	return value.NewInstance(c, v, w)
}

// Get implements the dot-access operator.
func (c *Class) Get(inst *value.Instance, name ident.Ident) value.Value {
	defer c.caps.Recover()
	c.check(inst, HookGetter)
	return orUninit(c.getter(inst, name))
}

// Set implements dot assignment. The hook takes ownership of v.
func (c *Class) Set(inst *value.Instance, name ident.Ident, v value.Value) {
	defer c.caps.Recover()
	c.checkTaking(inst, HookSetter, v)
	c.setter(inst, name, v)
}

// IndexGet implements subscript read.
func (c *Class) IndexGet(inst *value.Instance, key *value.Ref) value.Value {
	defer c.caps.Recover()
	c.check(inst, HookIndexGet)
	return orUninit(c.indexGet(inst, key))
}

// IndexSet implements subscript write. The hook takes ownership of v.
func (c *Class) IndexSet(inst *value.Instance, key *value.Ref, v value.Value) {
	defer c.caps.Recover()
	c.checkTaking(inst, HookIndexSet, v)
	c.indexSet(inst, key, v)
}

// Next advances the iteration protocol. Exhaustion is value.IterEnd.
func (c *Class) Next(inst *value.Instance) value.Value {
	defer c.caps.Recover()
	c.check(inst, HookNext)
	return orUninit(c.next(inst))
}

// Clone runs on every copy of an instance. The hook's words are used as
// returned and retagged with c.
func (c *Class) Clone(inst *value.Instance) *value.Instance {
	defer c.caps.Recover()
	c.check(inst, HookClone)
	out := c.clone(inst)
	return value.NewInstance(c, out.V, out.W)
}

// Drop runs when an instance is destroyed.
func (c *Class) Drop(inst *value.Instance) {
	if c == nil {
		panic(errors.New(errors.PhaseDispatch, errors.KindNotInitialized).
			Member(HookDrop.String()).
			Detail("refusing to drop through an uninitialized class").
			Build())
	}
	defer c.caps.Recover()
	c.check(inst, HookDrop)
	c.drop(inst)
}

// String implements the host's string conversion.
func (c *Class) String(inst *value.Instance) string {
	defer c.caps.Recover()
	c.check(inst, HookToString)
	return c.toString(inst)
}

// Method returns the first method registered under name.
func (c *Class) Method(name ident.Ident) (value.Method, bool) {
	for _, m := range c.methods {
		if m.Name == name {
			return m.Fn, true
		}
	}
	return nil, false
}

// StaticMethod returns the first static method registered under name.
func (c *Class) StaticMethod(name ident.Ident) (value.NativeFunc, bool) {
	for _, m := range c.statics {
		if m.Name == name {
			return m.Fn, true
		}
	}
	return nil, false
}

// Methods returns the method table in registration order.
func (c *Class) Methods() []MethodEntry {
	return append([]MethodEntry(nil), c.methods...)
}

// StaticMethods returns the static method table in registration order.
func (c *Class) StaticMethods() []StaticEntry {
	return append([]StaticEntry(nil), c.statics...)
}

func (c *Class) check(inst *value.Instance, h Hook) {
	if inst == nil {
		panic(errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Class(c.name).
			Member(h.String()).
			Detail("nil instance").
			Build())
	}
	owner := inst.Class()
	if owner == nil {
		panic(errors.New(errors.PhaseDispatch, errors.KindNotInitialized).
			Class(c.name).
			Member(h.String()).
			Detail("instance has no class").
			Build())
	}
	if owner != value.Class(c) {
		panic(errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
			Class(c.name).
			Member(h.String()).
			Detail("instance of %s", owner.Name()).
			Build())
	}
}

// checkTaking is check for hooks that own v. A rejected v is released.
func (c *Class) checkTaking(inst *value.Instance, h Hook, v value.Value) {
	ok := false
	defer func() {
		if !ok {
			value.Release(v)
		}
	}()
	c.check(inst, h)
	ok = true
}

func orUninit(v value.Value) value.Value {
	if v == nil {
		return value.Uninit{}
	}
	return v
}

// Default hooks.

func defaultGetter(*value.Instance, ident.Ident) value.Value { return value.Uninit{} }

func defaultSetter(_ *value.Instance, _ ident.Ident, v value.Value) { value.Release(v) }

func defaultIndexGet(*value.Instance, *value.Ref) value.Value { return value.Uninit{} }

func defaultIndexSet(_ *value.Instance, _ *value.Ref, v value.Value) { value.Release(v) }

func defaultNext(*value.Instance) value.Value { return value.IterEnd }

func defaultClone(inst *value.Instance) value.Instance { return *inst }

func defaultDrop(*value.Instance) {}

func defaultToString(name string) ToStringFunc {
	s := fmt.Sprintf("%s { Native }", name)
	return func(*value.Instance) string { return s }
}
