package module

import (
	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/class"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Bootstrap is a module's entry point.
type Bootstrap func(t *capability.Table, ex *Exports)

// FuncEntry is one exported free function.
type FuncEntry struct {
	Name ident.Ident
	Fn   value.NativeFunc
}

// ClassEntry is one exported class.
type ClassEntry struct {
	Name  ident.Ident
	Class *class.Class
}

// Exports collects what a module registers during bootstrap.
type Exports struct {
	table   *capability.Table
	funcs   []FuncEntry
	classes []ClassEntry
	frozen  bool
}

func newExports(t *capability.Table) *Exports {
	return &Exports{table: t}
}

// Func exports fn under name.
func (e *Exports) Func(name string, fn value.NativeFunc) {
	e.mutable("func " + name)
	if fn == nil {
		panic(errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Member(name).
			Detail("nil function").
			Build())
	}
	e.funcs = append(e.funcs, FuncEntry{
		Name: e.table.Intern([]byte(name)),
		Fn:   capability.Guard(e.table, fn),
	})
}

// Class exports a built class under its own name.
func (e *Exports) Class(c *class.Class) {
	if c == nil {
		panic(errors.InvalidInput(errors.PhaseRegister, "nil class"))
	}
	e.mutable("class " + c.Name())
	e.classes = append(e.classes, ClassEntry{
		Name:  e.table.Intern([]byte(c.Name())),
		Class: c,
	})
}

func (e *Exports) mutable(what string) {
	if e.frozen {
		panic(errors.New(errors.PhaseRegister, errors.KindFrozen).
			Member(what).
			Detail("exports are frozen").
			Build())
	}
}
