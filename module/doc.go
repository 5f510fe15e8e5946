// Package module is the boundary between a host and an extension module.
//
// A module exposes one Bootstrap entry. The host calls Load, which hands the
// entry its capability table and an empty Exports; the module binds the
// table, builds its classes and registers its free functions. When the entry
// returns the exports are frozen into a Surface the host resolves names
// against for the rest of the process.
//
//	var caps capability.Binding
//
//	func Bootstrap(t *capability.Table, ex *module.Exports) {
//	    caps.MustBind(t)
//	    ex.Func("test", test)
//	}
//
// Exported functions are wrapped with the table's fault handler, so a panic
// in a free function reaches the host as an error report.
package module
