package value

import (
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
)

// Class is the dispatch table behind native instances. The host routes every
// structural operation on an *Instance through it and never reads V or W.
type Class interface {
	Name() string

	Get(inst *Instance, name ident.Ident) Value
	Set(inst *Instance, name ident.Ident, v Value)
	IndexGet(inst *Instance, key *Ref) Value
	IndexSet(inst *Instance, key *Ref, v Value)
	Next(inst *Instance) Value
	Clone(inst *Instance) *Instance
	Drop(inst *Instance)
	String(inst *Instance) string

	Method(name ident.Ident) (Method, bool)
	StaticMethod(name ident.Ident) (NativeFunc, bool)
}

// Instance is a value of a native class: two machine words of storage the
// owning module may use for anything, plus the class that interprets them.
type Instance struct {
	V, W  uintptr
	class Class
}

// NewInstance tags the two words with c.
func NewInstance(c Class, v, w uintptr) *Instance {
	return &Instance{V: v, W: w, class: c}
}

// Class returns the class the instance belongs to.
func (i *Instance) Class() Class {
	return i.class
}

// classFor returns the instance's class or unwinds if it has none.
func (i *Instance) classFor(op string) Class {
	if i.class == nil {
		panic(errors.New(errors.PhaseDispatch, errors.KindNotInitialized).
			Member(op).
			Detail("refusing to %s an instance with no class", op).
			Build())
	}
	return i.class
}

func (*Instance) Kind() Kind { return KindInstance }
func (*Instance) isValue()   {}
