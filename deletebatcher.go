package sqsconsumer

import (
	"context"
	"time"
)

// DeleteOutcome is the per-entry result of a delete, delivered to whoever
// enqueued the entry once the batch it landed in has been flushed.
type DeleteOutcome struct {
	Err error
}

type deleteRequest struct {
	msg    *Message
	entry  DeleteEntry
	result chan DeleteOutcome
}

// DeleteBatcher accumulates receipt handles to delete and flushes when
// either deleteBatchSize entries have accumulated or deleteWaitMs has
// elapsed since the first entry in the current batch arrived, whichever
// comes first. It runs as a single goroutine so at most one flush is ever
// in flight, matching the single-logical-owner model in §5.
type DeleteBatcher struct {
	in   chan deleteRequest
	stop chan struct{}
	done chan struct{}

	batchSize int
	wait      time.Duration

	transport Transport
	queueURL  func() string
	events    *emitter
	log       Logger
}

func newDeleteBatcher(t Transport, queueURL func() string, batchSize int, wait time.Duration, events *emitter, log Logger) *DeleteBatcher {
	b := &DeleteBatcher{
		in:        make(chan deleteRequest),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		batchSize: batchSize,
		wait:      wait,
		transport: t,
		queueURL:  queueURL,
		events:    events,
		log:       log,
	}
	go b.run()
	return b
}

// Enqueue submits one entry for deletion and returns a channel the caller
// can wait on for the outcome of the batch it is flushed in. msg is the
// originating Message, carried along only so the deleted/delError events
// can report it; it may be nil.
func (b *DeleteBatcher) Enqueue(msg *Message, entry DeleteEntry) <-chan DeleteOutcome {
	req := deleteRequest{msg: msg, entry: entry, result: make(chan DeleteOutcome, 1)}
	select {
	case b.in <- req:
	case <-b.done:
		req.result <- DeleteOutcome{Err: errStopping}
	}
	return req.result
}

// Stop flushes whatever is pending and terminates the batcher's goroutine.
// It blocks until the trailing flush completes.
func (b *DeleteBatcher) Stop() {
	select {
	case <-b.done:
		return
	default:
	}
	close(b.stop)
	<-b.done
}

func (b *DeleteBatcher) run() {
	defer close(b.done)

	var pending []deleteRequest
	var timerC <-chan time.Time

	for {
		select {
		case req := <-b.in:
			pending = append(pending, req)
			if len(pending) >= b.batchSize {
				pending = b.flush(pending)
				timerC = nil
			} else if timerC == nil {
				timerC = time.After(b.wait)
			}

		case <-timerC:
			timerC = nil
			if len(pending) > 0 {
				pending = b.flush(pending)
			}

		case <-b.stop:
			for len(pending) > 0 {
				pending = b.flush(pending)
			}
			return
		}
	}
}

// flush drains pending up to awsBatchSizeLimit entries at a time, issuing a
// DeleteMessageBatch call per chunk, until nothing remains.
func (b *DeleteBatcher) flush(pending []deleteRequest) []deleteRequest {
	for len(pending) > 0 {
		n := len(pending)
		if n > awsBatchSizeLimit {
			n = awsBatchSizeLimit
		}
		chunk := pending[:n]
		pending = pending[n:]
		b.flushChunk(chunk)
	}
	return pending
}

func (b *DeleteBatcher) flushChunk(chunk []deleteRequest) {
	entries := make([]DeleteEntry, len(chunk))
	byID := make(map[string]deleteRequest, len(chunk))
	for i, req := range chunk {
		entries[i] = req.entry
		byID[req.entry.ID] = req
	}

	out, err := b.transport.DeleteMessageBatch(context.Background(), &DeleteMessageBatchInput{
		QueueURL: b.queueURL(),
		Entries:  entries,
	})
	if err != nil {
		terr := &TransportError{Op: "DeleteMessageBatch", Err: err}
		b.log.Printf("sqsconsumer: delete batch failed: %s", terr)
		b.events.emit(Event{Kind: EventError, Err: terr})
		for _, req := range chunk {
			req.result <- DeleteOutcome{Err: terr}
		}
		return
	}

	for _, s := range out.Successful {
		req, ok := byID[s.ID]
		if !ok {
			continue
		}
		delete(byID, s.ID)
		b.events.emit(Event{Kind: EventDeleted, Message: req.msg, DeleteResponse: &DeleteResultEntry{ID: s.ID}})
		req.result <- DeleteOutcome{}
	}

	for _, f := range out.Failed {
		req, ok := byID[f.ID]
		if !ok {
			continue
		}
		delete(byID, f.ID)
		derr := &DeleteEntryError{ID: f.ID, Code: f.Code, Message: f.Message, SenderFault: f.SenderFault}
		b.events.emit(Event{Kind: EventDeleteError, Message: req.msg, DeleteError: derr})
		req.result <- DeleteOutcome{Err: derr}
	}

	// anything left in byID was not mentioned in either list; treat as failed
	for _, req := range byID {
		req.result <- DeleteOutcome{Err: &DeleteEntryError{ID: req.entry.ID, Message: "not acknowledged by transport"}}
	}
}
