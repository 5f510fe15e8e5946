package scope

import (
	"github.com/wippyai/native-abi/capability"
	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/value"
)

// LocalFunc is a counted handle to a host closure.
type LocalFunc struct {
	caps     *capability.Table
	code     value.Code
	cx       value.Scope
	released bool
}

var _ value.Closure = (*LocalFunc)(nil)

// NewLocalFunc takes a new reference on cx for the closure code.
func NewLocalFunc(t *capability.Table, code value.Code, cx value.Scope) *LocalFunc {
	if t == nil {
		panic(errors.InvalidInput(errors.PhaseDispatch, "closure: nil capability table"))
	}
	t.OutliveInc(cx)
	return &LocalFunc{caps: t, code: code, cx: cx}
}

// Clone returns an independent handle to the same closure.
func (f *LocalFunc) Clone() value.Closure {
	f.live("clone")
	return NewLocalFunc(f.caps, f.code, f.cx)
}

// Release gives back this handle's reference. A handle releases once.
func (f *LocalFunc) Release() {
	f.live("release")
	f.released = true
	f.caps.OutliveDec(f.cx)
}

// Call runs the closure synchronously. The host may re-enter the module.
func (f *LocalFunc) Call(args ...value.Value) value.Value {
	f.live("call")
	out := f.caps.CallClosure(f.code, f.cx, args)
	if out == nil {
		return value.Uninit{}
	}
	return out
}

// Code returns the closure body handle.
func (f *LocalFunc) Code() value.Code {
	return f.code
}

// Scope returns the captured scope.
func (f *LocalFunc) Scope() value.Scope {
	return f.cx
}

// Released reports whether Release has run on this handle.
func (f *LocalFunc) Released() bool {
	return f.released
}

func (f *LocalFunc) live(op string) {
	if f.released {
		panic(errors.New(errors.PhaseDispatch, errors.KindReleased).
			Member(op).
			Detail("closure handle already released").
			Build())
	}
}
