// Package capability defines the host-supplied function table an extension
// module calls back into, and the one-shot binding that installs it.
//
// A module keeps one Binding in a package variable. Before bootstrap the
// binding resolves to a placeholder table whose every entry diverges with a
// not_bound error; Bind moves it to the host's table exactly once.
//
//	var caps capability.Binding
//
//	func Bootstrap(t *capability.Table, ex *module.Exports) {
//	    caps.MustBind(t)
//	    ...
//	}
package capability

import (
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/wippyai/native-abi/errors"
	"github.com/wippyai/native-abi/ident"
	"github.com/wippyai/native-abi/value"
)

// Table is the set of host functions a module may call.
type Table struct {
	// Intern canonicalizes a name.
	Intern func(b []byte) ident.Ident `validate:"required"`

	// ReportError raises msg as a host exception. It never returns.
	ReportError func(msg string) `validate:"required"`

	// FindVar resolves name along the scope chain. Absence is not an error.
	FindVar func(cx value.Scope, name ident.Ident) (value.Ref, bool) `validate:"required"`

	// LetVar introduces a binding in cx, shadowing any outer one.
	LetVar func(cx value.Scope, name ident.Ident, v value.Value) `validate:"required"`

	// ConstVar freezes an existing binding against assignment.
	ConstVar func(cx value.Scope, name ident.Ident) `validate:"required"`

	// CallClosure runs a host closure synchronously. It may re-enter the module.
	// The host takes ownership of args and releases them when the call returns.
	CallClosure func(code value.Code, cx value.Scope, args []value.Value) value.Value `validate:"required"`

	// OutliveInc and OutliveDec adjust the escape count of a scope.
	OutliveInc func(cx value.Scope) `validate:"required"`
	OutliveDec func(cx value.Scope) `validate:"required"`

	// GetSelf returns the receiver slot of a method scope.
	GetSelf func(cx value.Scope) (*value.Value, bool) `validate:"required"`

	// GetParent returns the enclosing scope.
	GetParent func(cx value.Scope) (value.Scope, bool) `validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks that every capability is present.
func (t *Table) Validate() error {
	if t == nil {
		return errors.InvalidInput(errors.PhaseBind, "nil capability table")
	}
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(t); err != nil {
		var missing []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
		}
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Path(missing...).
			Detail("incomplete capability table").
			Cause(err).
			Build()
	}
	return nil
}

// unbound is the placeholder a Binding resolves to before bootstrap.
var unbound = &Table{
	Intern: func([]byte) ident.Ident {
		panic(errors.NotBound("intern"))
	},
	ReportError: func(msg string) {
		panic(errors.New(errors.PhaseBind, errors.KindNotBound).
			Member("report_error").
			Detail("capability table not bound: %s", msg).
			Build())
	},
	FindVar: func(value.Scope, ident.Ident) (value.Ref, bool) {
		panic(errors.NotBound("find_var"))
	},
	LetVar: func(value.Scope, ident.Ident, value.Value) {
		panic(errors.NotBound("let_var"))
	},
	ConstVar: func(value.Scope, ident.Ident) {
		panic(errors.NotBound("const_var"))
	},
	CallClosure: func(value.Code, value.Scope, []value.Value) value.Value {
		panic(errors.NotBound("call_closure"))
	},
	OutliveInc: func(value.Scope) {
		panic(errors.NotBound("outlive_inc"))
	},
	OutliveDec: func(value.Scope) {
		panic(errors.NotBound("outlive_dec"))
	},
	GetSelf: func(value.Scope) (*value.Value, bool) {
		panic(errors.NotBound("get_self"))
	},
	GetParent: func(value.Scope) (value.Scope, bool) {
		panic(errors.NotBound("get_parent"))
	},
}

// Binding holds the table a module was bootstrapped with. The zero value is
// unbound.
type Binding struct {
	table atomic.Pointer[Table]
}

// Bind installs t. It succeeds once; later calls return an already_bound error.
func (b *Binding) Bind(t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !b.table.CompareAndSwap(nil, t) {
		return errors.AlreadyBound()
	}
	return nil
}

// MustBind is Bind for bootstrap code, where failure aborts the bootstrap.
func (b *Binding) MustBind(t *Table) {
	if err := b.Bind(t); err != nil {
		panic(err)
	}
}

// Bound reports whether Bind has succeeded.
func (b *Binding) Bound() bool {
	return b.table.Load() != nil
}

// Table returns the bound table, or the diverging placeholder.
func (b *Binding) Table() *Table {
	if t := b.table.Load(); t != nil {
		return t
	}
	return unbound
}

// Intern interns a name through the host.
func (b *Binding) Intern(name string) ident.Ident {
	return b.Table().Intern([]byte(name))
}

// Fail reports msg to the host. It never returns.
func (b *Binding) Fail(msg string) {
	b.Table().ReportError(msg)
	// ReportError must diverge; a host that returns is broken.
	panic(errors.Reported(msg))
}

// Recover is the module's fault handler. Deferred at a host-invoked entry
// point, it turns any panic into a host error report. Errors the host has
// already raised pass through untouched.
func (b *Binding) Recover() {
	r := recover()
	if r == nil {
		return
	}
	if errors.IsReported(r) {
		panic(r)
	}
	b.Fail(errors.FromPanic(r).Error())
}

// Guard wraps fn so that it runs under the table's fault handler.
func Guard(t *Table, fn value.NativeFunc) value.NativeFunc {
	return func(args []value.Ref, cx value.Scope) value.Value {
		defer recoverInto(t)
		return fn(args, cx)
	}
}

// GuardMethod is Guard for instance methods.
func GuardMethod(t *Table, fn value.Method) value.Method {
	return func(inst *value.Instance, args []value.Ref, cx value.Scope) value.Value {
		defer recoverInto(t)
		return fn(inst, args, cx)
	}
}

func recoverInto(t *Table) {
	r := recover()
	if r == nil {
		return
	}
	if errors.IsReported(r) {
		panic(r)
	}
	msg := errors.FromPanic(r).Error()
	t.ReportError(msg)
	panic(errors.Reported(msg))
}
