package class

import (
	"sync/atomic"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/value"
)

const (
	declUninit uint32 = iota
	declBuilding
	declBuilt
)

// Decl is a class slot that can live in a package variable before the
// module is bootstrapped. The zero value is uninitialized.
type Decl struct {
	state atomic.Uint32
	name  string
	class atomic.Pointer[Class]
}

// Init allocates the vtable and returns its builder. It must be called
// exactly once, after the module's capability binding is bound.
func (d *Decl) Init(name string, caps *capability.Binding) *Builder {
	if !d.state.CompareAndSwap(declUninit, declBuilding) {
		panic(errors.New(errors.PhaseRegister, errors.KindAlreadyInitialized).
			Class(d.Name()).
			Detail("class already initialized").
			Build())
	}
	d.name = name
	b := New(name, caps)
	b.decl = d
	return b
}

func (d *Decl) publish(c *Class) {
	d.class.Store(c)
	d.state.Store(declBuilt)
}

// Name returns the class name, or "" before Init.
func (d *Decl) Name() string {
	if d.state.Load() == declUninit {
		return ""
	}
	return d.name
}

// Ready reports whether the class has been built.
func (d *Decl) Ready() bool {
	return d.state.Load() == declBuilt
}

// Class returns the built vtable.
func (d *Decl) Class() *Class {
	if c := d.class.Load(); c != nil {
		return c
	}
	panic(d.notReady("class"))
}

// Create makes an instance from two raw words.
func (d *Decl) Create(v, w uintptr) *value.Instance {
	c := d.class.Load()
	if c == nil {
		panic(d.notReady("create"))
	}
	return c.Create(v, w)
}

func (d *Decl) notReady(op string) *errors.Error {
	switch d.state.Load() {
	case declUninit:
		return errors.New(errors.PhaseRegister, errors.KindNotInitialized).
			Member(op).
			Detail("class used before Init").
			Build()
	default:
		return errors.New(errors.PhaseRegister, errors.KindNotInitialized).
			Class(d.name).
			Member(op).
			Detail("class used before Build").
			Build()
	}
}
