// Package class registers native types whose instances take part in every
// host operator through a vtable.
//
// # Lifecycle
//
// A class goes through three phases. It is declared, usually as a package
// variable, then initialized exactly once during bootstrap, which yields a
// Builder, and finally built, which freezes the vtable:
//
//	var Range class.Decl
//
//	func Bootstrap(t *capability.Table, ex *module.Exports) {
//	    caps.MustBind(t)
//	    Range.Init("Range", &caps).
//	        Next(rangeNext).
//	        StaticMethod("new", rangeNew).
//	        Build()
//	    ex.Class(Range.Class())
//	}
//
// Creating an instance or fetching the class before Build, initializing
// twice, and touching a Builder after Build all fail fast.
//
// # Hooks
//
// Eight hooks implement the host operators. Each starts with a default:
//
//	Getter    obj.name          returns uninit
//	Setter    obj.name = v      ignores the value
//	IndexGet  obj[k]            returns uninit
//	IndexSet  obj[k] = v        ignores the value
//	Next      for v in obj      returns IterEnd immediately
//	Clone     copy              duplicates V and W bit for bit
//	Drop      destroy           does nothing
//	ToString  string(obj)       "Name { Native }"
//
// The default Clone is only correct for classes that keep no owned resource
// in V or W. A class that stores a slot handle or any other owning word must
// override Clone, or the two copies will both release it in Drop.
//
// # Methods
//
// Method and static method tables are append-only lists keyed by interned
// name. Lookup returns the first entry registered under a name; a later
// duplicate keeps its slot but is never reached by name.
//
// Every hook, method and static method runs under the module's fault
// handler, so a panic inside native code reaches the host as an error report.
package class
