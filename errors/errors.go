package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in the module lifecycle the error occurred
type Phase string

const (
	PhaseBootstrap Phase = "bootstrap" // module entry point
	PhaseBind      Phase = "bind"      // capability table binding
	PhaseRegister  Phase = "register"  // class and export registration
	PhaseDispatch  Phase = "dispatch"  // host-invoked hooks and methods
	PhaseHost      Phase = "host"      // host-side capability implementation
	PhaseLoad      Phase = "load"      // module loading
	PhaseConfig    Phase = "config"    // configuration parsing
)

// Kind categorizes the error
type Kind string

const (
	KindNotInitialized     Kind = "not_initialized"
	KindAlreadyInitialized Kind = "already_initialized"
	KindAlreadyBound       Kind = "already_bound"
	KindNotBound           Kind = "not_bound"
	KindFrozen             Kind = "frozen"
	KindArity              Kind = "arity"
	KindTypeMismatch       Kind = "type_mismatch"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindReported           Kind = "reported"
	KindReleased           Kind = "released"
	KindConstBinding       Kind = "const_binding"
	KindPanic              Kind = "panic"
	KindUnsupported        Kind = "unsupported"
)

// Error is the structured error type used on both sides of the boundary
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Member string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Class != "" || e.Member != "" {
		b.WriteString(": ")
		switch {
		case e.Class != "" && e.Member != "":
			b.WriteString(e.Class)
			b.WriteByte('.')
			b.WriteString(e.Member)
		case e.Class != "":
			b.WriteString(e.Class)
		default:
			b.WriteString(e.Member)
		}
	}

	if e.Detail != "" {
		if e.Class != "" || e.Member != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the access path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the native class name
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
	return b
}

// Member sets the method, hook or field name
func (b *Builder) Member(name string) *Builder {
	b.err.Member = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotInitialized creates a use-before-init error
func NotInitialized(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", what),
	}
}

// AlreadyInitialized creates a double-init error
func AlreadyInitialized(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyInitialized,
		Detail: fmt.Sprintf("%s already initialized", what),
	}
}

// NotBound creates the error raised by capabilities used before bootstrap
func NotBound(capability string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindNotBound,
		Member: capability,
		Detail: "capability table not bound",
	}
}

// AlreadyBound creates a second-bind error
func AlreadyBound() *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindAlreadyBound,
		Detail: "capability table already bound",
	}
}

// Frozen creates an error for mutation after a freeze transition
func Frozen(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFrozen,
		Detail: fmt.Sprintf("%s is frozen", what),
	}
}

// Arity creates a wrong argument count error
func Arity(phase Phase, member string, want, got int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArity,
		Member: member,
		Detail: fmt.Sprintf("expected %d argument(s), got %d", want, got),
		Value:  got,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Released creates a release-twice error
func Released(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: fmt.Sprintf("%s already released", what),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Reported creates the error a host unwinds with from ReportError.
// Guards recognize it and propagate it instead of reporting twice.
func Reported(msg string) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindReported,
		Detail: msg,
	}
}

// FromPanic converts a recovered panic value into an error.
func FromPanic(r any) *Error {
	switch v := r.(type) {
	case *Error:
		return v
	case error:
		return Wrap(PhaseDispatch, KindPanic, v, "native panic")
	default:
		return &Error{
			Phase:  PhaseDispatch,
			Kind:   KindPanic,
			Detail: fmt.Sprint(v),
			Value:  v,
		}
	}
}

// IsKind reports whether err carries a structured error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsReported reports whether a recovered panic value is an already reported error.
func IsReported(r any) bool {
	e, ok := r.(*Error)
	return ok && e.Kind == KindReported
}
