// Package errors provides structured error types for the native extension ABI.
//
// Errors are categorized by Phase (where in the module lifecycle the error
// occurred) and Kind (error category). The Error type carries the class and
// member involved, an access path and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
//		Class("Range").
//		Member("see").
//		Detail("expected uint, got str").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Arity(errors.PhaseDispatch, "test", 1, 3)
//	err := errors.NotInitialized(errors.PhaseRegister, `class "Range"`)
//
// A host's ReportError capability unwinds with errors.Reported, which the
// module-side fault guard recognizes and propagates unchanged.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
