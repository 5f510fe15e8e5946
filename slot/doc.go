// Package slot boxes Go values behind machine-word handles.
//
// A native instance carries two opaque words. Go pointers cannot be stored
// in a uintptr without hiding them from the garbage collector, so a module
// that needs owned storage puts the value in a Table and keeps the handle in
// the word instead:
//
//	var ranges = slot.NewTable()
//
//	h := ranges.Put(rangeTag, &rangeState{end: 10})
//	inst := Range.Create(uintptr(h), 0)
//
// The Drop hook is the single release point:
//
//	func dropRange(inst *value.Instance) {
//	    if _, ok := ranges.Release(slot.Handle(inst.V)); !ok {
//	        panic(errors.Released(errors.PhaseDispatch, "range state"))
//	    }
//	}
//
// Release returns false for handle 0 and for handles already released, so a
// default bit-copy Clone followed by two Drops is caught instead of freeing
// twice. Values implementing Dropper are dropped on release.
//
// # Observers
//
// Observers receive EventStored and EventReleased notifications, which the
// tests use to assert that every stored value is released exactly once.
//
// Handles of released entries are recycled.
package slot
