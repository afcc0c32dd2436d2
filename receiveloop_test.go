package sqsconsumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReceiveLoop(t *testing.T, transport Transport, inflight *InflightCounter, events *emitter) *ReceiveLoop {
	cfg := &ConsumerConfig{}
	cfg.applyDefaults()
	cfg.ReceiveBatchSize = 10
	cfg.MinReceiveBatchSize = 1
	cfg.ActivePollIntervalMs = 1
	cfg.IdlePollIntervalMs = 1
	cfg.PollRetryMs = 1
	return newReceiveLoop(transport, func() string { return "q" }, cfg, inflight, events, nil, NoopLogger, func(w WireMessage) *Message {
		return &Message{ID: w.MessageID, ReceiptHandle: w.ReceiptHandle, Body: []byte(w.Body)}
	})
}

func TestEffectiveBatchSizeUnbounded(t *testing.T) {
	l := newTestReceiveLoop(t, newFakeTransport(), newInflightCounter(0), newEmitter())
	n, ok := l.effectiveBatchSize()
	assert.True(t, ok)
	assert.Equal(t, int32(10), n)
}

func TestEffectiveBatchSizeCapsToFreeSlots(t *testing.T) {
	inflight := newInflightCounter(5)
	inflight.Increment()
	inflight.Increment()
	inflight.Increment()
	l := newTestReceiveLoop(t, newFakeTransport(), inflight, newEmitter())

	n, ok := l.effectiveBatchSize()
	assert.True(t, ok)
	assert.Equal(t, int32(2), n)
}

func TestEffectiveBatchSizeSuppressedBelowMinimum(t *testing.T) {
	inflight := newInflightCounter(5)
	for i := 0; i < 5; i++ {
		inflight.Increment()
	}
	l := newTestReceiveLoop(t, newFakeTransport(), inflight, newEmitter())

	_, ok := l.effectiveBatchSize()
	assert.False(t, ok)
}

func TestReceiveLoopEmitsMessageAndGotMessages(t *testing.T) {
	ft := newFakeTransport()
	ft.queueReceive(&ReceiveMessageOutput{Messages: []WireMessage{
		{MessageID: "m1", ReceiptHandle: "r1", Body: "hi"},
	}}, nil)

	events := newEmitter()
	ch, unsubscribe := events.subscribe(8)
	defer unsubscribe()

	inflight := newInflightCounter(0)
	l := newTestReceiveLoop(t, ft, inflight, events)

	go l.Run(context.Background())
	defer l.RequestStop()

	var kinds []EventKind
	deadline := time.After(2 * time.Second)
	for len(kinds) < 2 {
		select {
		case ev := <-ch:
			kinds = append(kinds, ev.Kind)
		case <-deadline:
			t.Fatal("timed out waiting for events")
		}
	}
	require.Equal(t, EventGotMessages, kinds[0])
	require.Equal(t, EventMessage, kinds[1])
	assert.Equal(t, 1, inflight.Value())
}

// TestReceiveLoopPausesAtCapAndResumesForRemainder drives the scenario from
// §8: a 15-message queue behind maxInFlight=10 must pause after the first
// 10 (emitting maxInFlight exactly once) and resume to pick up the
// remaining 5 once slots free up.
func TestReceiveLoopPausesAtCapAndResumesForRemainder(t *testing.T) {
	ft := newFakeTransport()
	ten := make([]WireMessage, 10)
	for i := range ten {
		ten[i] = WireMessage{MessageID: string(rune('a' + i)), ReceiptHandle: "r"}
	}
	five := make([]WireMessage, 5)
	for i := range five {
		five[i] = WireMessage{MessageID: string(rune('A' + i)), ReceiptHandle: "r"}
	}
	ft.queueReceive(&ReceiveMessageOutput{Messages: ten}, nil)
	ft.queueReceive(&ReceiveMessageOutput{Messages: five}, nil)

	events := newEmitter()
	ch, unsubscribe := events.subscribe(64)
	defer unsubscribe()

	inflight := newInflightCounter(10)
	l := newTestReceiveLoop(t, ft, inflight, events)

	go l.Run(context.Background())
	defer l.RequestStop()

	var maxInFlightCount, gotMessagesBatches, totalMessages int
	deadline := time.After(2 * time.Second)
	for totalMessages < 15 || maxInFlightCount == 0 {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case EventMaxInFlight:
				maxInFlightCount++
			case EventGotMessages:
				gotMessagesBatches++
				totalMessages += ev.Count
				if gotMessagesBatches == 1 {
					// free every slot from the first batch so the loop
					// resumes and polls for the remaining 5.
					for i := 0; i < 10; i++ {
						inflight.Decrement()
					}
				}
			}
		case <-deadline:
			t.Fatalf("timed out: maxInFlight=%d batches=%d total=%d", maxInFlightCount, gotMessagesBatches, totalMessages)
		}
	}
	assert.Equal(t, 1, maxInFlightCount)
	assert.Equal(t, 2, gotMessagesBatches)
}

// TestReceiveLoopQueueEmptyFiresOnlyWhenFullyDrained covers §8 scenario 2:
// an empty poll must not report queueEmpty while a prior batch has left
// inFlight above zero, and must report it once that batch is fully handled.
func TestReceiveLoopQueueEmptyFiresOnlyWhenFullyDrained(t *testing.T) {
	ft := newFakeTransport()
	ft.queueReceive(&ReceiveMessageOutput{Messages: []WireMessage{
		{MessageID: "m1", ReceiptHandle: "r1"},
	}}, nil)

	events := newEmitter()
	ch, unsubscribe := events.subscribe(64)
	defer unsubscribe()

	inflight := newInflightCounter(0)
	l := newTestReceiveLoop(t, ft, inflight, events)

	go l.Run(context.Background())
	defer l.RequestStop()

	var sawMessage bool
	var queueEmptyCount int
	decremented := false
	deadline := time.After(2 * time.Second)
	for queueEmptyCount == 0 {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case EventMessage:
				sawMessage = true
			case EventQueueEmpty:
				queueEmptyCount++
				require.True(t, sawMessage)
				assert.True(t, decremented, "queueEmpty fired while the first message's in-flight slot was still held")
			}
		case <-deadline:
			t.Fatal("timed out waiting for queueEmpty")
		}
		if sawMessage && !decremented {
			// Decrement only after observing the message, and only once:
			// an empty poll arriving before this must not report
			// queueEmpty, since inFlight is still 1 at that point.
			decremented = true
			inflight.Decrement()
		}
	}
	assert.Equal(t, 1, queueEmptyCount)
}

func TestReceiveLoopRequestStopEndsLoop(t *testing.T) {
	ft := newFakeTransport()
	events := newEmitter()
	inflight := newInflightCounter(0)
	l := newTestReceiveLoop(t, ft, inflight, events)

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	l.RequestStop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after RequestStop")
	}
}
