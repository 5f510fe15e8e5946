// Package captest provides an in-memory capability table for unit tests of
// module-side packages.
package captest

import (
	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Body is a fake host closure.
type Body func(cx value.Scope, args []value.Value) value.Value

// Recorder implements every capability with flat maps and records calls.
type Recorder struct {
	Interner *ident.Interner
	Reports  []string
	Outlive  map[value.Scope]int
	Incs     int
	Decs     int
	Vars     map[value.Scope]map[ident.Ident]*value.Value
	Consts   map[value.Scope]map[ident.Ident]bool
	Parents  map[value.Scope]value.Scope
	Selves   map[value.Scope]*value.Value
	Bodies   map[value.Code]Body
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{
		Interner: ident.NewInterner(),
		Outlive:  make(map[value.Scope]int),
		Vars:     make(map[value.Scope]map[ident.Ident]*value.Value),
		Consts:   make(map[value.Scope]map[ident.Ident]bool),
		Parents:  make(map[value.Scope]value.Scope),
		Selves:   make(map[value.Scope]*value.Value),
		Bodies:   make(map[value.Code]Body),
	}
}

// Table returns a complete capability table backed by r.
func (r *Recorder) Table() *capability.Table {
	return &capability.Table{
		Intern: r.Interner.Intern,
		ReportError: func(msg string) {
			r.Reports = append(r.Reports, msg)
			panic(errors.Reported(msg))
		},
		FindVar: func(cx value.Scope, name ident.Ident) (value.Ref, bool) {
			for s, ok := cx, true; ok; s, ok = r.Parents[s] {
				if slot, found := r.Vars[s][name]; found {
					return value.Borrow(slot), true
				}
			}
			return value.Ref{}, false
		},
		LetVar: func(cx value.Scope, name ident.Ident, v value.Value) {
			if r.Vars[cx] == nil {
				r.Vars[cx] = make(map[ident.Ident]*value.Value)
			}
			slot := v
			r.Vars[cx][name] = &slot
		},
		ConstVar: func(cx value.Scope, name ident.Ident) {
			if r.Consts[cx] == nil {
				r.Consts[cx] = make(map[ident.Ident]bool)
			}
			r.Consts[cx][name] = true
		},
		CallClosure: func(code value.Code, cx value.Scope, args []value.Value) value.Value {
			body, ok := r.Bodies[code]
			if !ok {
				panic(errors.Reported("unknown closure"))
			}
			defer value.Release(value.List(args))
			return body(cx, args)
		},
		OutliveInc: func(cx value.Scope) {
			r.Incs++
			r.Outlive[cx]++
		},
		OutliveDec: func(cx value.Scope) {
			r.Decs++
			r.Outlive[cx]--
		},
		GetSelf: func(cx value.Scope) (*value.Value, bool) {
			v, ok := r.Selves[cx]
			return v, ok
		},
		GetParent: func(cx value.Scope) (value.Scope, bool) {
			p, ok := r.Parents[cx]
			return p, ok
		},
	}
}

// Bind binds a fresh Binding to r's table.
func (r *Recorder) Bind() *capability.Binding {
	b := &capability.Binding{}
	b.MustBind(r.Table())
	return b
}

// Diverges runs fn and returns the structured error it unwound with, or nil
// if it returned normally.
func Diverges(fn func()) (err *errors.Error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic(r)
		}
	}()
	fn()
	return nil
}
