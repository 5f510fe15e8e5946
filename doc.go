// Package nativeabi is the boundary between an embedded dynamic-language
// host and the native extension modules it loads.
//
// An extension module adds types and functions to the host without seeing
// the interpreter's internals. The two sides share a tagged value
// representation, a capability table the module binds exactly once, a
// vtable through which module types take part in every host operator, and a
// counted protocol that lets closures captured by native code outlive their
// scope.
//
// # Architecture Overview
//
//	nativeabi/
//	├── errors/          Structured error type shared by both sides
//	├── ident/           Identifier interner
//	├── value/           Value model, references, instances, function shapes
//	├── capability/      Capability table and its one-shot binding
//	├── slot/            Handle table for resources owned by instance words
//	├── class/           Class declaration, builder and frozen vtable
//	├── scope/           Scope navigation and counted closure handles
//	├── module/          Bootstrap entry and frozen export surface
//	├── host/            In-memory host implementing the capability table
//	├── wasmext/         Core wasm modules as extension modules (wazero)
//	├── config/          Inspector configuration
//	├── internal/sample/ Sample module with the Range, Sample and Cell classes
//	└── cmd/nabi/        Inspector CLI
//
// # Quick Start
//
// A module keeps its binding and classes in package variables and registers
// everything from its bootstrap entry:
//
//	var (
//	    caps  capability.Binding
//	    Range class.Decl
//	)
//
//	func Bootstrap(t *capability.Table, ex *module.Exports) {
//	    caps.MustBind(t)
//	    Range.Init("Range", &caps).
//	        Next(func(inst *value.Instance) value.Value {
//	            if inst.V >= inst.W {
//	                return value.IterEnd
//	            }
//	            inst.V++
//	            return value.Uint(inst.V - 1)
//	        }).
//	        StaticMethod("new", rangeNew).
//	        Build()
//	    ex.Class(Range.Class())
//	}
//
// A host loads it and drives the exports:
//
//	h := host.New()
//	if _, err := h.Load("range", Bootstrap); err != nil {
//	    return err
//	}
//	r, err := h.CallStatic(h.Global(), "range", "Range", "new", value.Int(0), value.Int(3))
//	items, err := h.Collect(r) // [0, 1, 2]
//
// # Error Channels
//
// A module reports failure through the host's ReportError capability, which
// never returns. Every host-invoked function pointer runs under a deferred
// fault handler that turns a panic into such a report, so a bug inside
// native code surfaces as a host error rather than a crash. The host side
// returns errors as *errors.Error values carrying a phase and a kind.
//
// # Threading
//
// The protocol is single-threaded and synchronous. Module code may re-enter
// the host, and the host may re-enter the module, on the same goroutine.
package nativeabi
