package sqsconsumer

import (
	"context"
	"sync"
	"time"
)

// TimeoutExtender renews the visibility timeout of tracked messages shortly
// before it expires, up to a wall-clock ceiling measured from when each
// message was received.
type TimeoutExtender struct {
	mu      sync.Mutex
	entries map[string]*extenderEntry

	transport         Transport
	queueURL          func() string
	visibilityTimeout int32
	advancedCall      time.Duration
	ceiling           time.Duration
	events            *emitter
	log               Logger

	now func() time.Time
}

type extenderEntry struct {
	msg        *Message
	receivedAt time.Time
	deadline   time.Time
	timer      *time.Timer
}

func newTimeoutExtender(t Transport, queueURL func() string, visibilityTimeout int32, advancedCall time.Duration, ceiling time.Duration, events *emitter, log Logger) *TimeoutExtender {
	return &TimeoutExtender{
		entries:           make(map[string]*extenderEntry),
		transport:         t,
		queueURL:          queueURL,
		visibilityTimeout: visibilityTimeout,
		advancedCall:      advancedCall,
		ceiling:           ceiling,
		events:            events,
		log:               log,
		now:               time.Now,
	}
}

// Track starts renewing msg's visibility timeout. Callers should only track
// a message once; a second Track for the same receipt handle replaces the
// first entry's schedule.
func (x *TimeoutExtender) Track(msg *Message) {
	now := x.now()
	deadline := now.Add(time.Duration(x.visibilityTimeout) * time.Second)

	x.mu.Lock()
	defer x.mu.Unlock()

	if existing, ok := x.entries[msg.ReceiptHandle]; ok {
		existing.timer.Stop()
	}

	entry := &extenderEntry{msg: msg, receivedAt: now, deadline: deadline}
	entry.timer = time.AfterFunc(x.fireDelay(deadline), func() { x.fire(msg.ReceiptHandle) })
	x.entries[msg.ReceiptHandle] = entry
}

// Untrack stops renewing msg's visibility timeout, called once the
// consumer has emitted its terminal "handled" event.
func (x *TimeoutExtender) Untrack(receiptHandle string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if entry, ok := x.entries[receiptHandle]; ok {
		entry.timer.Stop()
		delete(x.entries, receiptHandle)
	}
}

// Stop cancels every pending renewal timer without issuing further calls.
func (x *TimeoutExtender) Stop() {
	x.mu.Lock()
	defer x.mu.Unlock()
	for h, entry := range x.entries {
		entry.timer.Stop()
		delete(x.entries, h)
	}
}

func (x *TimeoutExtender) fireDelay(deadline time.Time) time.Duration {
	d := deadline.Sub(x.now()) - x.advancedCall
	if d < 0 {
		d = 0
	}
	return d
}

func (x *TimeoutExtender) fire(receiptHandle string) {
	x.mu.Lock()
	entry, ok := x.entries[receiptHandle]
	x.mu.Unlock()
	if !ok {
		return
	}

	if x.now().Sub(entry.receivedAt) >= x.ceiling {
		x.mu.Lock()
		delete(x.entries, receiptHandle)
		x.mu.Unlock()
		x.events.emit(Event{Kind: EventTimeoutReached, Message: entry.msg})
		return
	}

	_, err := x.transport.ChangeMessageVisibility(context.Background(), &ChangeMessageVisibilityInput{
		QueueURL:          x.queueURL(),
		ReceiptHandle:     receiptHandle,
		VisibilityTimeout: x.visibilityTimeout,
	})

	x.mu.Lock()
	defer x.mu.Unlock()

	// the entry may have been untracked while the call was in flight
	entry, ok = x.entries[receiptHandle]
	if !ok {
		return
	}

	if err != nil {
		terr := &TransportError{Op: "ChangeMessageVisibility", Err: err}
		x.log.Printf("sqsconsumer: visibility extension failed: %s", terr)
		x.events.emit(Event{Kind: EventError, Err: terr})

		remaining := x.ceiling - x.now().Sub(entry.receivedAt)
		backoff := time.Second
		if backoff > remaining {
			backoff = remaining
		}
		if backoff < 0 {
			backoff = 0
		}
		entry.timer = time.AfterFunc(backoff, func() { x.fire(receiptHandle) })
		return
	}

	entry.deadline = entry.deadline.Add(time.Duration(x.visibilityTimeout) * time.Second)
	entry.timer = time.AfterFunc(x.fireDelay(entry.deadline), func() { x.fire(receiptHandle) })
}
