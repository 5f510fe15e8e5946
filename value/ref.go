package value

import (
	"github.com/wippyai/native-abi/errors"
)

// Ref is either a borrowed alias of a host-owned slot or an owned value.
type Ref struct {
	slot  *Value
	owned Value
}

// Borrow aliases a live slot. Writes through the ref land in the slot.
func Borrow(slot *Value) Ref {
	if slot == nil {
		panic(errors.InvalidInput(errors.PhaseDispatch, "borrow of nil slot"))
	}
	return Ref{slot: slot}
}

// Own wraps a value the ref holds by itself.
func Own(v Value) Ref {
	return Ref{owned: orUninit(v)}
}

// Refs wraps each value as an owned ref.
func Refs(vs ...Value) []Ref {
	refs := make([]Ref, len(vs))
	for i, v := range vs {
		refs[i] = Own(v)
	}
	return refs
}

// Borrowed reports whether r aliases a host slot.
func (r *Ref) Borrowed() bool {
	return r.slot != nil
}

// Get dereferences the ref.
func (r *Ref) Get() Value {
	if r.slot != nil {
		return orUninit(*r.slot)
	}
	return orUninit(r.owned)
}

// Set overwrites the referenced value. For a borrowed ref this mutates the
// aliased slot; the previous value is not released.
func (r *Ref) Set(v Value) {
	if r.slot != nil {
		*r.slot = orUninit(v)
		return
	}
	r.owned = orUninit(v)
}

// Take converts the ref into an owned value: a borrowed value is copied, an
// owned one is moved out and the ref is left Uninit.
func (r *Ref) Take() Value {
	if r.slot != nil {
		return Copy(*r.slot)
	}
	v := orUninit(r.owned)
	r.owned = Uninit{}
	return v
}
