// Package value defines the values that cross the boundary between a host
// interpreter and its native extension modules.
//
// # Values
//
// Value is a closed sum type. Scalars are plain Go types:
//
//	value.Int(-1)      value.Uint(3)     value.Float(2.5)
//	value.Bool(true)   value.Str("hi")   value.Buffer{0x01}
//
// Containers hold other values and are copied deeply by Copy:
//
//	value.List{value.Int(1), value.Str("a")}
//	value.Object{name: value.Bool(true)} // keys are interned idents
//
// Functions are one of a native Go function, a host closure (Closure) or an
// unresolved external reference. Instances of native classes are *Instance
// values: two opaque machine words tagged with the class that owns them.
// Every structural operation on an instance goes through its Class.
//
// # References
//
// Functions receive their arguments as Refs. A Ref either borrows a live host
// slot or owns its value. Take is the only way to end the aliasing: it clones
// a borrowed value and moves an owned one. Anything a callee keeps after
// returning must come from Take.
//
// # Lifetime
//
// Copy and Release implement the host's copy and destroy operators. Copying
// an instance runs its class Clone hook, releasing it runs Drop; copying a
// closure bumps the outlive count of the scope it captures and releasing it
// gives that count back.
package value
