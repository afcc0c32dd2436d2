package sqsconsumer

import "sync"

// EventKind names one of the observable events the Consumer emits.
type EventKind string

const (
	EventMessage        EventKind = "message"
	EventGotMessages    EventKind = "gotMessages"
	EventQueueEmpty     EventKind = "queueEmpty"
	EventMaxInFlight    EventKind = "maxInFlight"
	EventAborted        EventKind = "aborted"
	EventDrained        EventKind = "drained"
	EventError          EventKind = "error"
	EventDeleteError    EventKind = "delError"
	EventDeleteQueued   EventKind = "delQueued"
	EventDeleted        EventKind = "deleted"
	EventHandled        EventKind = "handled"
	EventTimeoutReached EventKind = "timeoutReached"
)

// Event is the single type carried on a Consumer's event stream. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	Message *Message
	Count   int
	Err     error

	DeleteError    *DeleteEntryError
	DeleteResponse *DeleteResultEntry
}

// emitter fans a stream of Events out to any number of subscribers. Sends
// are fire-and-forget: a subscriber whose channel is full simply misses the
// event rather than blocking the engine.
type emitter struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[chan Event]struct{})}
}

func (e *emitter) subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, unsubscribe
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *emitter) closeAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs {
		close(ch)
		delete(e.subs, ch)
	}
}
