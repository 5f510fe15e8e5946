package slot

// Typed is a view of a Table restricted to one tag and one Go type.
type Typed[T any] struct {
	table *Table
	tag   uint32
}

// NewTyped returns a typed view of table for values stored under tag.
func NewTyped[T any](table *Table, tag uint32) *Typed[T] {
	return &Typed[T]{table: table, tag: tag}
}

// Put stores v and returns its handle.
func (t *Typed[T]) Put(v T) Handle {
	return t.table.Put(t.tag, v)
}

// Get retrieves the value behind h.
func (t *Typed[T]) Get(h Handle) (T, bool) {
	var zero T
	v, ok := t.table.GetTagged(h, t.tag)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	if !ok {
		return zero, false
	}
	return tv, true
}

// Release removes the value behind h if it belongs to this view.
func (t *Typed[T]) Release(h Handle) (T, bool) {
	var zero T
	if _, ok := t.table.GetTagged(h, t.tag); !ok {
		return zero, false
	}
	v, ok := t.table.Release(h)
	if !ok {
		return zero, false
	}
	tv, _ := v.(T)
	return tv, true
}

// Len returns the number of live values under this view's tag.
func (t *Typed[T]) Len() int {
	n := 0
	t.table.Each(func(_ Handle, tag uint32, _ any) bool {
		if tag == t.tag {
			n++
		}
		return true
	})
	return n
}

// Each iterates over the view's values until fn returns false.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.Each(func(h Handle, tag uint32, v any) bool {
		if tag != t.tag {
			return true
		}
		tv, ok := v.(T)
		if !ok {
			return true
		}
		return fn(h, tv)
	})
}
