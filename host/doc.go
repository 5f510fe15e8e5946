// Package host is an in-memory host for extension modules.
//
// It implements the capability table over a tree of scopes kept in a slot
// table, loads modules through their bootstrap entry and drives the host
// operators (field access, indexing, iteration, copy, destruction, string
// conversion, calls) against the values modules return. It is the harness
// the rest of the repository is exercised through; it does not parse or
// execute a language.
//
// Every operation returns an error instead of unwinding: a ReportError
// raised by a module, or a fault the module's guard turned into one, comes
// back as an *errors.Error of kind reported.
//
// Scopes follow the outlive protocol. Exit marks a scope finished; it is
// torn down, releasing its bindings, once no closure handle holds it and no
// child scope is alive. A closure over a nested scope therefore keeps every
// scope above it reachable too.
package host
