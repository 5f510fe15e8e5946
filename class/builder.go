package class

import (
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/value"
)

// Builder accumulates hook overrides and method entries for one class.
// It is single-use: after Build every method fails fast.
type Builder struct {
	class *Class
	decl  *Decl
	built bool
}

// New starts a class that is not tied to a Decl. Method names are interned
// through caps, so the binding must already be bound.
func New(name string, caps *capability.Binding) *Builder {
	if caps == nil {
		panic(errors.InvalidInput(errors.PhaseRegister, "class "+name+": nil capability binding"))
	}
	return &Builder{
		class: &Class{
			caps:     caps,
			name:     name,
			getter:   defaultGetter,
			setter:   defaultSetter,
			indexGet: defaultIndexGet,
			indexSet: defaultIndexSet,
			next:     defaultNext,
			clone:    defaultClone,
			drop:     defaultDrop,
			toString: defaultToString(name),
		},
	}
}

func (b *Builder) mutable(what string) *Class {
	if b.built {
		panic(errors.New(errors.PhaseRegister, errors.KindFrozen).
			Class(b.class.name).
			Member(what).
			Detail("class already built").
			Build())
	}
	return b.class
}

func (b *Builder) override(h Hook, missing bool) *Class {
	c := b.mutable(h.String())
	if missing {
		panic(errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Class(c.name).
			Member(h.String()).
			Detail("nil hook").
			Build())
	}
	c.overridden |= 1 << h
	return c
}

// Getter overrides the dot-access hook.
func (b *Builder) Getter(fn GetterFunc) *Builder {
	b.override(HookGetter, fn == nil).getter = fn
	return b
}

// Setter overrides the dot-assignment hook.
func (b *Builder) Setter(fn SetterFunc) *Builder {
	b.override(HookSetter, fn == nil).setter = fn
	return b
}

// IndexGet overrides the subscript read hook.
func (b *Builder) IndexGet(fn IndexGetFunc) *Builder {
	b.override(HookIndexGet, fn == nil).indexGet = fn
	return b
}

// IndexSet overrides the subscript write hook.
func (b *Builder) IndexSet(fn IndexSetFunc) *Builder {
	b.override(HookIndexSet, fn == nil).indexSet = fn
	return b
}

// Next overrides the iteration hook.
func (b *Builder) Next(fn NextFunc) *Builder {
	b.override(HookNext, fn == nil).next = fn
	return b
}

// OnClone overrides the copy hook.
func (b *Builder) OnClone(fn CloneFunc) *Builder {
	b.override(HookClone, fn == nil).clone = fn
	return b
}

// OnDrop overrides the destroy hook.
func (b *Builder) OnDrop(fn DropFunc) *Builder {
	b.override(HookDrop, fn == nil).drop = fn
	return b
}

// ToString overrides the string conversion hook.
func (b *Builder) ToString(fn ToStringFunc) *Builder {
	b.override(HookToString, fn == nil).toString = fn
	return b
}

// Method appends an instance method.
func (b *Builder) Method(name string, fn value.Method) *Builder {
	c := b.mutable("method " + name)
	if fn == nil {
		panic(errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Class(c.name).
			Member(name).
			Detail("nil method").
			Build())
	}
	c.methods = append(c.methods, MethodEntry{
		Name: c.caps.Intern(name),
		Fn:   c.guardMethod(fn),
	})
	return b
}

// StaticMethod appends a static method.
func (b *Builder) StaticMethod(name string, fn value.NativeFunc) *Builder {
	c := b.mutable("static method " + name)
	if fn == nil {
		panic(errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Class(c.name).
			Member(name).
			Detail("nil static method").
			Build())
	}
	c.statics = append(c.statics, StaticEntry{
		Name: c.caps.Intern(name),
		Fn:   c.guardStatic(fn),
	})
	return b
}

// Build freezes the vtable and publishes it to the Decl, if any.
func (b *Builder) Build() *Class {
	c := b.mutable("build")
	b.built = true

	if b.decl != nil {
		b.decl.publish(c)
	}

	Logger().Debug("class built",
		zap.String("class", c.name),
		zap.Int("methods", len(c.methods)),
		zap.Int("statics", len(c.statics)),
		zap.Uint8("overridden", uint8(c.overridden)),
	)
	return c
}

func (c *Class) guardMethod(fn value.Method) value.Method {
	return func(inst *value.Instance, args []value.Ref, cx value.Scope) value.Value {
		defer c.caps.Recover()
		return orUninit(fn(inst, args, cx))
	}
}

func (c *Class) guardStatic(fn value.NativeFunc) value.NativeFunc {
	return func(args []value.Ref, cx value.Scope) value.Value {
		defer c.caps.Recover()
		return orUninit(fn(args, cx))
	}
}
