package sqsconsumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteBatcherFlushesOnSize(t *testing.T) {
	ft := newFakeTransport()
	events := newEmitter()
	b := newDeleteBatcher(ft, func() string { return "q" }, 2, time.Hour, events, NoopLogger)
	defer b.Stop()

	out1 := b.Enqueue(nil, DeleteEntry{ID: "a", ReceiptHandle: "ra"})
	out2 := b.Enqueue(nil, DeleteEntry{ID: "b", ReceiptHandle: "rb"})

	o1 := <-out1
	o2 := <-out2
	assert.NoError(t, o1.Err)
	assert.NoError(t, o2.Err)

	require.Len(t, ft.deleteCalls, 1)
	assert.Len(t, ft.deleteCalls[0].Entries, 2)
}

func TestDeleteBatcherFlushesOnTimer(t *testing.T) {
	ft := newFakeTransport()
	events := newEmitter()
	b := newDeleteBatcher(ft, func() string { return "q" }, 10, 10*time.Millisecond, events, NoopLogger)
	defer b.Stop()

	out := b.Enqueue(nil, DeleteEntry{ID: "a", ReceiptHandle: "ra"})

	select {
	case o := <-out:
		assert.NoError(t, o.Err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timer flush")
	}
}

func TestDeleteBatcherPropagatesPerEntryFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.queueDelete(&DeleteMessageBatchOutput{
		Failed: []DeleteResultFailure{{ID: "a", Code: "Boom", Message: "nope"}},
	}, nil)

	events := newEmitter()
	b := newDeleteBatcher(ft, func() string { return "q" }, 1, time.Hour, events, NoopLogger)
	defer b.Stop()

	out := <-b.Enqueue(nil, DeleteEntry{ID: "a", ReceiptHandle: "ra"})
	require.Error(t, out.Err)
	var derr *DeleteEntryError
	require.ErrorAs(t, out.Err, &derr)
	assert.Equal(t, "Boom", derr.Code)
}

func TestDeleteBatcherDeletedEventCarriesMessage(t *testing.T) {
	ft := newFakeTransport()
	events := newEmitter()
	sub, unsubscribe := events.subscribe(4)
	defer unsubscribe()

	b := newDeleteBatcher(ft, func() string { return "q" }, 1, time.Hour, events, NoopLogger)
	defer b.Stop()

	msg := &Message{ID: "a", ReceiptHandle: "ra"}
	out := <-b.Enqueue(msg, DeleteEntry{ID: "a", ReceiptHandle: "ra"})
	require.NoError(t, out.Err)

	select {
	case ev := <-sub:
		require.Equal(t, EventDeleted, ev.Kind)
		assert.Same(t, msg, ev.Message)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deleted event")
	}
}

func TestDeleteBatcherStopFlushesPending(t *testing.T) {
	ft := newFakeTransport()
	events := newEmitter()
	b := newDeleteBatcher(ft, func() string { return "q" }, 10, time.Hour, events, NoopLogger)

	out := b.Enqueue(nil, DeleteEntry{ID: "a", ReceiptHandle: "ra"})
	b.Stop()

	o := <-out
	assert.NoError(t, o.Err)
}

func TestDeleteBatcherEnqueueAfterStopErrorsWithoutBlocking(t *testing.T) {
	ft := newFakeTransport()
	events := newEmitter()
	b := newDeleteBatcher(ft, func() string { return "q" }, 10, time.Hour, events, NoopLogger)
	b.Stop()

	out := <-b.Enqueue(nil, DeleteEntry{ID: "a", ReceiptHandle: "ra"})
	assert.Equal(t, errStopping, out.Err)
}
