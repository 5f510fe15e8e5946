package slot

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("slot table closed")

type entry struct {
	value any
	tag   uint32
	valid bool
}

// Table stores boxed values indexed by handle.
type Table struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Put stores value under tag and returns its handle. A closed table returns 0.
func (t *Table) Put(tag uint32, value any) Handle {
	h, err := t.put(tag, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventStored,
		Handle: h,
		Tag:    tag,
		Value:  value,
	})
	return h
}

func (t *Table) put(tag uint32, value any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	e := entry{
		tag:   tag,
		value: value,
		valid: true,
	}

	if len(t.freeList) > 0 {
		h := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = e
		return h, nil
	}

	t.entries = append(t.entries, e)
	return Handle(len(t.entries)), nil
}

// Get retrieves a value by handle.
func (t *Table) Get(h Handle) (any, bool) {
	e, ok := t.lookup(h)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// GetTagged retrieves a value only if it was stored under tag.
func (t *Table) GetTagged(h Handle, tag uint32) (any, bool) {
	e, ok := t.lookup(h)
	if !ok || e.tag != tag {
		return nil, false
	}
	return e.value, true
}

func (t *Table) lookup(h Handle) (entry, bool) {
	if h == 0 {
		return entry{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h - 1)
	if idx >= len(t.entries) {
		return entry{}, false
	}
	e := t.entries[idx]
	if !e.valid {
		return entry{}, false
	}
	return e, true
}

// Release removes the value and returns (value, true). Handle 0, unknown
// handles and handles already released return (nil, false).
func (t *Table) Release(h Handle) (any, bool) {
	e, ok := t.release(h)
	if !ok {
		return nil, false
	}

	if d, ok := e.value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventReleased,
		Handle: h,
		Tag:    e.tag,
		Value:  e.value,
	})
	return e.value, true
}

func (t *Table) release(h Handle) (entry, bool) {
	if h == 0 {
		return entry{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := int(h - 1)
	if idx >= len(t.entries) {
		return entry{}, false
	}
	e := t.entries[idx]
	if !e.valid {
		return entry{}, false
	}

	t.entries[idx] = entry{}
	t.freeList = append(t.freeList, h)
	return e, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live values.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over live values until fn returns false.
func (t *Table) Each(fn func(Handle, uint32, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(Handle(i+1), e.tag, e.value) {
				break
			}
		}
	}
}

// Clear releases every live value.
func (t *Table) Clear() {
	// Collect handles first to avoid holding the lock during Release
	var handles []Handle
	t.Each(func(h Handle, _ uint32, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Release(h)
	}
}

// Close releases every live value and stops accepting new ones.
func (t *Table) Close() error {
	t.Clear()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnSlotEvent(e)
	}
}
