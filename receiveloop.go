package sqsconsumer

import (
	"context"
	"sync"
	"time"
)

// ReceiveLoop is the dispatch engine described in §4.2: it long-polls with
// a batch size derived from the number of free in-flight slots, emits a
// Message event per decoded message, and backs off distinctly for empty
// polls, cap-induced pauses, and transport errors.
//
// Stopping is split into two independent signals, matching §5's soft/hard
// distinction: stopCh means "start no further polls" and is always safe to
// wait on; Abort additionally cancels whatever poll is outstanding right
// now, which is only done for a hard stop.
type ReceiveLoop struct {
	transport Transport
	queueURL  func() string
	cfg       *ConsumerConfig
	inflight  *InflightCounter
	events    *emitter
	extender  *TimeoutExtender
	log       Logger
	newMsg    func(WireMessage) *Message

	resume   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	cancelMu       sync.Mutex
	cancel         context.CancelFunc
	abortRequested bool
}

func newReceiveLoop(t Transport, queueURL func() string, cfg *ConsumerConfig, inflight *InflightCounter, events *emitter, extender *TimeoutExtender, log Logger, newMsg func(WireMessage) *Message) *ReceiveLoop {
	l := &ReceiveLoop{
		transport: t,
		queueURL:  queueURL,
		cfg:       cfg,
		inflight:  inflight,
		events:    events,
		extender:  extender,
		log:       log,
		newMsg:    newMsg,
		resume:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	inflight.onBelowCap = l.wake
	return l
}

// wake nudges a loop blocked waiting for free slots to re-check. It is
// non-blocking: a pending pulse is enough, a second one is a no-op.
func (l *ReceiveLoop) wake() {
	select {
	case l.resume <- struct{}{}:
	default:
	}
}

// RequestStop prevents any further poll from starting. It does not disturb
// a poll already in flight; pair with Abort to cancel that too.
func (l *ReceiveLoop) RequestStop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Abort cancels the currently outstanding poll, if any, causing Run to emit
// Aborted and return.
func (l *ReceiveLoop) Abort() {
	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	if l.cancel != nil {
		l.abortRequested = true
		l.cancel()
	}
}

// Done reports when Run has actually returned: no poll is outstanding and
// none will start. A stop request alone does not close it — a long poll
// already in flight when RequestStop is called must still return first.
func (l *ReceiveLoop) Done() <-chan struct{} {
	return l.done
}

// Run drives the state machine until RequestStop is called (and, if
// combined with Abort, the in-flight poll is cancelled). It never returns
// an error: transport errors are reported through events and retried.
func (l *ReceiveLoop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		effective, ok := l.effectiveBatchSize()
		if !ok {
			select {
			case <-l.resume:
				continue
			case <-l.stopCh:
				return
			}
		}

		n, polled, aborted := l.poll(ctx, effective)
		if aborted {
			l.events.emit(Event{Kind: EventAborted})
			return
		}
		if !polled {
			if !l.wait(time.Duration(l.cfg.PollRetryMs) * time.Millisecond) {
				return
			}
			continue
		}

		if n > 0 {
			if l.inflight.Cap() > 0 && l.inflight.Value() >= l.inflight.Cap() {
				l.events.emit(Event{Kind: EventMaxInFlight})
				continue
			}
			if !l.wait(time.Duration(l.cfg.ActivePollIntervalMs) * time.Millisecond) {
				return
			}
			continue
		}

		if l.inflight.Value() == 0 {
			l.events.emit(Event{Kind: EventQueueEmpty})
		}
		if !l.wait(time.Duration(l.cfg.IdlePollIntervalMs) * time.Millisecond) {
			return
		}
	}
}

// effectiveBatchSize computes the per-poll MaxNumberOfMessages per §4.2, or
// reports that polling should be suppressed until more slots free up.
func (l *ReceiveLoop) effectiveBatchSize() (int32, bool) {
	cap := l.inflight.Cap()
	if cap == 0 {
		return int32(l.cfg.ReceiveBatchSize), true
	}

	slots := cap - l.inflight.Value()
	if slots <= 0 {
		return 0, false
	}
	if slots < l.cfg.MinReceiveBatchSize {
		return 0, false
	}

	effective := l.cfg.ReceiveBatchSize
	if slots < effective {
		effective = slots
	}
	return int32(effective), true
}

// poll issues one long-poll. aborted reports that Abort cancelled the
// request; polled reports whether a response (as opposed to a transport
// error) was obtained.
func (l *ReceiveLoop) poll(ctx context.Context, maxMessages int32) (n int, polled bool, aborted bool) {
	pollCtx, cancel := context.WithCancel(ctx)

	l.cancelMu.Lock()
	l.cancel = cancel
	l.abortRequested = false
	l.cancelMu.Unlock()

	var vt *int32
	if l.cfg.VisibilityTimeoutSecs > 0 {
		v := l.cfg.VisibilityTimeoutSecs
		vt = &v
	}

	resp, err := l.transport.ReceiveMessage(pollCtx, &ReceiveMessageInput{
		QueueURL:              l.queueURL(),
		MaxNumberOfMessages:   maxMessages,
		WaitTimeSeconds:       l.cfg.ReceiveWaitTimeSecs,
		VisibilityTimeout:     vt,
		MessageAttributeNames: l.cfg.ReceiveAttributes,
		AttributeNames:        l.cfg.ReceiveSQSAttributes,
	})

	l.cancelMu.Lock()
	aborted = l.abortRequested
	l.cancel = nil
	l.cancelMu.Unlock()
	cancel()

	if err != nil {
		if aborted {
			return 0, false, true
		}
		terr := &TransportError{Op: "ReceiveMessage", Err: err}
		l.log.Printf("sqsconsumer: receive failed: %s", terr)
		l.events.emit(Event{Kind: EventError, Err: terr})
		return 0, false, false
	}

	n = len(resp.Messages)
	if n > 0 {
		l.events.emit(Event{Kind: EventGotMessages, Count: n})
		for _, wm := range resp.Messages {
			l.inflight.Increment()
			msg := l.newMsg(wm)
			l.events.emit(Event{Kind: EventMessage, Message: msg})
			if l.extender != nil {
				l.extender.Track(msg)
			}
		}
	}
	return n, true, false
}

// wait pauses for d, returning true so the loop continues; it returns
// false early if RequestStop fires first, so the caller should terminate.
func (l *ReceiveLoop) wait(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-l.stopCh:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-l.stopCh:
		return false
	}
}
