package slot

// Handle is an opaque word referring to a boxed value.
// Handle 0 is reserved and always invalid.
type Handle uintptr

// EventType identifies a slot lifecycle notification.
type EventType uint8

const (
	EventStored EventType = iota
	EventReleased
)

// Event represents a slot lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Tag    uint32
	Type   EventType
}

// Observer receives notifications about slot lifecycle events.
type Observer interface {
	OnSlotEvent(Event)
}

// Dropper is optionally implemented by boxed values that need cleanup.
type Dropper interface {
	Drop()
}
