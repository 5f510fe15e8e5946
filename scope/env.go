package scope

import (
	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Env is a view of one host scope.
type Env struct {
	caps *capability.Table
	cx   value.Scope
}

// NewEnv pairs cx with the table that owns it.
func NewEnv(t *capability.Table, cx value.Scope) Env {
	return Env{caps: t, cx: cx}
}

// Scope returns the raw handle.
func (e Env) Scope() value.Scope {
	return e.cx
}

// Name interns s through the host.
func (e Env) Name(s string) ident.Ident {
	return e.caps.Intern([]byte(s))
}

// Find resolves name along the scope chain.
func (e Env) Find(name ident.Ident) (value.Ref, bool) {
	return e.caps.FindVar(e.cx, name)
}

// Lookup is Find by string.
func (e Env) Lookup(name string) (value.Ref, bool) {
	return e.Find(e.Name(name))
}

// Let introduces a binding in this scope.
func (e Env) Let(name ident.Ident, v value.Value) {
	e.caps.LetVar(e.cx, name, v)
}

// Const freezes an existing binding in this scope.
func (e Env) Const(name ident.Ident) {
	e.caps.ConstVar(e.cx, name)
}

// Self returns the receiver slot when this is a method scope.
func (e Env) Self() (*value.Value, bool) {
	return e.caps.GetSelf(e.cx)
}

// Parent returns the enclosing scope.
func (e Env) Parent() (Env, bool) {
	p, ok := e.caps.GetParent(e.cx)
	if !ok {
		return Env{}, false
	}
	return Env{caps: e.caps, cx: p}, true
}

// Capture wraps a closure body defined in this scope.
func (e Env) Capture(code value.Code) *LocalFunc {
	return NewLocalFunc(e.caps, code, e.cx)
}
