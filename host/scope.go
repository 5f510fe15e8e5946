package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/slot"
	"github.com/wippyai/native-abi/value"
)

type binding struct {
	v     value.Value
	konst bool
}

type frame struct {
	parent   value.Scope
	vars     map[ident.Ident]*binding
	order    []ident.Ident
	self     *value.Value
	outlive  int
	children int
	exited   bool
}

// done reports whether f has exited with no closure handle or live child
// scope left holding it.
func (f *frame) done() bool {
	return f.exited && f.outlive == 0 && f.children == 0
}

// Drop releases the frame's bindings. The receiver slot is borrowed and
// stays with its owner.
func (f *frame) Drop() {
	for _, name := range f.order {
		value.Release(f.vars[name].v)
	}
	f.vars = nil
	f.order = nil
}

func (h *Host) frame(cx value.Scope) (*frame, bool) {
	if cx == 0 {
		return nil, false
	}
	return h.scopes.Get(slot.Handle(cx))
}

func (h *Host) mustFrame(op string, cx value.Scope) *frame {
	f, ok := h.frame(cx)
	if !ok {
		h.fail(op + ": unknown scope")
	}
	return f
}

func (h *Host) capabilities() *capability.Table {
	return &capability.Table{
		Intern: h.interner.Intern,
		ReportError: func(msg string) {
			Logger().Debug("error reported", zap.String("message", msg))
			panic(errors.Reported(msg))
		},
		FindVar: func(cx value.Scope, name ident.Ident) (value.Ref, bool) {
			b, ok := h.resolve(h.mustFrame("find_var", cx), name)
			if !ok {
				return value.Ref{}, false
			}
			return value.Borrow(&b.v), true
		},
		LetVar: func(cx value.Scope, name ident.Ident, v value.Value) {
			h.let(h.mustFrame("let_var", cx), name, v)
		},
		ConstVar: func(cx value.Scope, name ident.Ident) {
			b, ok := h.mustFrame("const_var", cx).vars[name]
			if !ok {
				h.fail("const_var: no binding " + name.String() + " in scope")
			}
			b.konst = true
		},
		CallClosure: h.callClosure,
		OutliveInc: func(cx value.Scope) {
			h.mustFrame("outlive_inc", cx).outlive++
		},
		OutliveDec: func(cx value.Scope) {
			f, ok := h.frame(cx)
			if !ok {
				if h.closing {
					return
				}
				h.fail("outlive_dec: unknown scope")
			}
			if f.outlive == 0 {
				h.fail("outlive_dec: count underflow")
			}
			f.outlive--
			h.collect(cx)
		},
		GetSelf: func(cx value.Scope) (*value.Value, bool) {
			f := h.mustFrame("get_self", cx)
			return f.self, f.self != nil
		},
		GetParent: func(cx value.Scope) (value.Scope, bool) {
			f := h.mustFrame("get_parent", cx)
			return f.parent, f.parent != 0
		},
	}
}

func (h *Host) resolve(f *frame, name ident.Ident) (*binding, bool) {
	for f != nil {
		if b, ok := f.vars[name]; ok {
			return b, true
		}
		if f.parent == 0 {
			break
		}
		f, _ = h.frame(f.parent)
	}
	return nil, false
}

func (h *Host) let(f *frame, name ident.Ident, v value.Value) {
	if v == nil {
		v = value.Uninit{}
	}
	if old, ok := f.vars[name]; ok {
		value.Release(old.v)
	} else {
		f.order = append(f.order, name)
	}
	f.vars[name] = &binding{v: v}
}

func (h *Host) callClosure(code value.Code, cx value.Scope, args []value.Value) value.Value {
	defer value.Release(value.List(args))
	body, ok := h.bodies[code]
	if !ok {
		h.fail("call_closure: unknown closure code")
	}
	h.mustFrame("call_closure", cx)

	call := h.NewScope(cx)
	defer h.exit(call)
	out := body(call, args)
	if out == nil {
		return value.Uninit{}
	}
	return out
}

// NewScope opens a scope under parent. Parent 0 opens a root scope. A parent
// that was already torn down unwinds with a reported error.
func (h *Host) NewScope(parent value.Scope) value.Scope {
	return h.open(parent, nil)
}

// NewMethodScope opens a scope whose receiver slot is self.
func (h *Host) NewMethodScope(parent value.Scope, self *value.Value) value.Scope {
	return h.open(parent, self)
}

func (h *Host) open(parent value.Scope, self *value.Value) value.Scope {
	if parent != 0 {
		h.mustFrame("new_scope", parent).children++
	}
	return value.Scope(h.scopes.Put(&frame{
		parent: parent,
		vars:   make(map[ident.Ident]*binding),
		self:   self,
	}))
}

// Exit marks cx finished. It is torn down now if nothing outlives it,
// otherwise when the last closure handle into it or any scope below it is
// released.
func (h *Host) Exit(cx value.Scope) error {
	return protect(func() { h.exit(cx) })
}

func (h *Host) exit(cx value.Scope) {
	f := h.mustFrame("exit", cx)
	if f.exited {
		h.fail("exit: scope already exited")
	}
	f.exited = true
	h.collect(cx)
}

// collect tears down cx if it is done, then walks up releasing every
// exited ancestor that was only held by it.
func (h *Host) collect(cx value.Scope) {
	for {
		f, ok := h.frame(cx)
		if !ok || !f.done() {
			return
		}
		parent := f.parent
		h.scopes.Release(slot.Handle(cx))
		p, ok := h.frame(parent)
		if !ok {
			return
		}
		p.children--
		cx = parent
	}
}

// Outlive returns the number of closure handles holding cx.
func (h *Host) Outlive(cx value.Scope) int {
	if f, ok := h.frame(cx); ok {
		return f.outlive
	}
	return 0
}

// Eligible reports whether cx could be torn down now: no closure handle
// captures it and no child scope is still alive.
func (h *Host) Eligible(cx value.Scope) bool {
	f, ok := h.frame(cx)
	if !ok {
		return true
	}
	return f.outlive == 0 && f.children == 0
}

// Alive reports whether cx has not been torn down.
func (h *Host) Alive(cx value.Scope) bool {
	_, ok := h.frame(cx)
	return ok
}

// Define introduces name in cx, taking ownership of v.
func (h *Host) Define(cx value.Scope, name string, v value.Value) error {
	return protect(func() {
		h.let(h.mustFrame("define", cx), h.Intern(name), v)
	})
}

// Const freezes the binding of name in cx.
func (h *Host) Const(cx value.Scope, name string) error {
	return protect(func() {
		h.table.ConstVar(cx, h.Intern(name))
	})
}

// Lookup returns a copy of the value bound to name along the chain of cx.
func (h *Host) Lookup(cx value.Scope, name string) (value.Value, error) {
	var out value.Value
	err := protect(func() {
		b, ok := h.resolve(h.mustFrame("lookup", cx), h.Intern(name))
		if !ok {
			panic(errors.NotFound(errors.PhaseHost, "variable", name))
		}
		out = value.Copy(b.v)
	})
	return out, err
}

// Assign overwrites the nearest binding of name, releasing the old value.
func (h *Host) Assign(cx value.Scope, name string, v value.Value) error {
	return protect(func() {
		b, ok := h.resolve(h.mustFrame("assign", cx), h.Intern(name))
		if !ok {
			panic(errors.NotFound(errors.PhaseHost, "variable", name))
		}
		if b.konst {
			panic(errors.New(errors.PhaseHost, errors.KindConstBinding).
				Member(name).
				Detail("assignment to constant").
				Build())
		}
		if v == nil {
			v = value.Uninit{}
		}
		old := b.v
		b.v = v
		value.Release(old)
	})
}

// Close tears down every scope, live closures notwithstanding.
func (h *Host) Close() error {
	h.closing = true
	return protect(func() {
		if err := h.slots.Close(); err != nil {
			panic(err)
		}
	})
}
