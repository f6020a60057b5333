package core

import (
	"fmt"

	"github.com/matms/mat-engine/engine/containers"
)

// EventKind identifies the lifecycle events the engine sequences every frame.
type EventKind uint8

const (
	// The window inner size changed. Width and Height carry the new size.
	EventWindowResize EventKind = iota + 1
	// A new frame begins.
	EventStart
	// Sent right before the application update callback.
	EventPreUpdate
	// Sent right after the application update callback.
	EventPostUpdate
	// Sent right before the application render callback.
	EventPreRender
	// Sent right after the application render callback.
	EventPostRender
)

func (k EventKind) String() string {
	switch k {
	case EventWindowResize:
		return "WindowResize"
	case EventStart:
		return "Start"
	case EventPreUpdate:
		return "PreUpdate"
	case EventPostUpdate:
		return "PostUpdate"
	case EventPreRender:
		return "PreRender"
	case EventPostRender:
		return "PostRender"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is an engine lifecycle event. Only WindowResize carries data.
type Event struct {
	Kind   EventKind
	Width  uint32
	Height uint32
}

func (e Event) String() string {
	if e.Kind == EventWindowResize {
		return fmt.Sprintf("WindowResize(%d, %d)", e.Width, e.Height)
	}
	return e.Kind.String()
}

func NewWindowResizeEvent(width, height uint32) Event {
	return Event{Kind: EventWindowResize, Width: width, Height: height}
}

// EventReceiver is implemented by subsystems that react to lifecycle events.
type EventReceiver interface {
	// ReceivesEvent reports whether ReceiveEvent should be called for kind.
	ReceivesEvent(kind EventKind) bool
	ReceiveEvent(ev Event)
}

// ReceiverFunc adapts a function to an EventReceiver subscribed to kinds.
// With no kinds it receives everything.
type ReceiverFunc struct {
	Kinds []EventKind
	Fn    func(ev Event)
}

func (r *ReceiverFunc) ReceivesEvent(kind EventKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (r *ReceiverFunc) ReceiveEvent(ev Event) {
	r.Fn(ev)
}

// EventBus is the per-engine FIFO of lifecycle events plus the receivers
// they fan out to.
type EventBus struct {
	queue     *containers.RingQueue[Event]
	receivers []EventReceiver
	draining  bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		queue: containers.NewRingQueue[Event](8, true),
	}
}

/**
 * Register adds a receiver. Receivers are informed in registration order.
 * Registering the same receiver twice is ignored and returns false.
 */
func (b *EventBus) Register(r EventReceiver) bool {
	for _, existing := range b.receivers {
		if existing == r {
			LogWarn("event receiver %T registered twice", r)
			return false
		}
	}
	b.receivers = append(b.receivers, r)
	return true
}

// Unregister removes a receiver, reporting whether it was registered.
func (b *EventBus) Unregister(r EventReceiver) bool {
	for i, existing := range b.receivers {
		if existing == r {
			b.receivers = append(b.receivers[:i], b.receivers[i+1:]...)
			return true
		}
	}
	return false
}

// Push appends ev to the back of the queue. Events pushed by a receiver while
// a drain is running are kept for the next drain.
func (b *EventBus) Push(ev Event) {
	// the queue grows, Enqueue cannot fail
	_ = b.queue.Enqueue(ev)
}

func (b *EventBus) Len() int {
	return b.queue.Len()
}

func (b *EventBus) IsEmpty() bool {
	return b.queue.IsEmpty()
}

// Drain delivers exactly the events queued when it is called, in FIFO order,
// and returns how many it delivered.
func (b *EventBus) Drain() int {
	if b.draining {
		panic("events: Drain called from inside an event receiver")
	}
	b.draining = true
	defer func() { b.draining = false }()

	n := b.queue.Len()
	for i := 0; i < n; i++ {
		ev, err := b.queue.Dequeue()
		if err != nil {
			break
		}
		b.dispatch(ev)
	}
	return n
}

func (b *EventBus) dispatch(ev Event) {
	for _, r := range b.receivers {
		if r.ReceivesEvent(ev.Kind) {
			r.ReceiveEvent(ev)
		}
	}
}

// DebugEventReceiver logs every event at debug level.
type DebugEventReceiver struct{}

func (DebugEventReceiver) ReceivesEvent(EventKind) bool { return true }

func (DebugEventReceiver) ReceiveEvent(ev Event) {
	LogDebug("event: %s", ev)
}
