// Package ident interns byte-string names into identity-comparable tokens.
//
// Every name crossing the module boundary (exported functions, methods,
// object fields, getter/setter keys) is an Ident produced by an Interner.
// Two Idents are equal exactly when they were interned from equal bytes by
// the same Interner, and equality is a pointer comparison: names are never
// re-hashed or compared by content once interned.
package ident

import "sync"

// Ident is an interned name token. The zero Ident names nothing.
type Ident struct {
	name *string
}

// String returns the interned name.
func (id Ident) String() string {
	if id.name == nil {
		return ""
	}
	return *id.name
}

// Bytes returns a copy of the interned name.
func (id Ident) Bytes() []byte {
	return []byte(id.String())
}

// IsZero reports whether id was never interned.
func (id Ident) IsZero() bool {
	return id.name == nil
}

// Interner is a process-lifetime interning cache. Tokens it hands out are
// never invalidated.
type Interner struct {
	mu     sync.RWMutex
	byName map[string]*string
}

// NewInterner creates an empty interning cache.
func NewInterner() *Interner {
	return &Interner{
		byName: make(map[string]*string, 256),
	}
}

// Intern returns the canonical token for b.
func (in *Interner) Intern(b []byte) Ident {
	// Fast path: the map lookup with a []byte conversion does not allocate
	in.mu.RLock()
	if p, ok := in.byName[string(b)]; ok {
		in.mu.RUnlock()
		return Ident{name: p}
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()

	if p, ok := in.byName[string(b)]; ok {
		return Ident{name: p}
	}

	s := string(b)
	p := &s
	in.byName[s] = p
	return Ident{name: p}
}

// InternString is Intern for a string name.
func (in *Interner) InternString(s string) Ident {
	return in.Intern([]byte(s))
}

// Lookup returns the token for b without interning it.
func (in *Interner) Lookup(b []byte) (Ident, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	p, ok := in.byName[string(b)]
	if !ok {
		return Ident{}, false
	}
	return Ident{name: p}, true
}

// Len returns the number of interned names.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byName)
}
