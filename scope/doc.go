// Package scope wraps the host's lexical environments and closures.
//
// An Env is a scope handle paired with the capability table that can
// navigate it. A LocalFunc is a closure handle the module keeps past the
// call that produced it: the captured scope stays alive while any handle
// exists. Creating and cloning a handle raise the scope's outlive count,
// releasing lowers it, so the count balances over the life of a handle and
// all of its clones.
package scope
