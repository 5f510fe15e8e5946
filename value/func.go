package value

// Scope is an opaque handle to a lexical environment owned by the host.
// The zero Scope refers to no environment.
type Scope uintptr

// Code is an opaque handle to a host closure body.
type Code uintptr

// NativeFunc is the shape of exported free functions and static methods.
type NativeFunc func(args []Ref, cx Scope) Value

// Method is the shape of instance methods.
type Method func(inst *Instance, args []Ref, cx Scope) Value

// Closure is a handle to a host closure that keeps its captured scope alive.
// Clone returns a new handle sharing the same closure; every handle must be
// released exactly once.
type Closure interface {
	Clone() Closure
	Release()
	Call(args ...Value) Value
}

// Extern names a function in another library that the host has not resolved.
type Extern struct {
	Library string
	Symbol  string
}

// Func is a callable value. Exactly one field is set.
type Func struct {
	Native NativeFunc
	Local  Closure
	Extern *Extern
}

func (Func) Kind() Kind { return KindFunc }
func (Func) isValue()   {}

// NativeOf wraps a native function as a value.
func NativeOf(fn NativeFunc) Func {
	return Func{Native: fn}
}

// LocalOf wraps a closure handle as a value. The value takes over the handle.
func LocalOf(c Closure) Func {
	return Func{Local: c}
}

// ExternOf wraps an unresolved external reference as a value.
func ExternOf(library, symbol string) Func {
	return Func{Extern: &Extern{Library: library, Symbol: symbol}}
}
