package sqsconsumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SendResult is the outcome of a single-message send.
type SendResult struct {
	MessageID        string
	MD5OfMessageBody string
}

// SendBatchResult is the merged outcome of SendMessages: every input body
// produces exactly one entry in either Successful or Failed, keyed by the
// contiguous ID range "0"..strconv.Itoa(n-1) assigned to preserve input
// order (§8).
type SendBatchResult struct {
	Successful []SendResultEntry
	Failed     []SendResultFailure
}

type sendOutcome struct {
	result SendResult
	err    error
}

type sendRequest struct {
	entry  SendBatchEntry
	result chan sendOutcome
}

// SendBatcher issues SendMessage/SendMessageBatch calls. A single eager
// SendMessage is the common path; when SendBatchSize > 0 it instead
// accumulates like DeleteBatcher, symmetric per §4.5.
type SendBatcher struct {
	in   chan sendRequest
	stop chan struct{}
	done chan struct{}

	batchSize int
	wait      time.Duration
	eager     bool

	transport Transport
	queueURL  func() string
	events    *emitter
	log       Logger
}

func newSendBatcher(t Transport, queueURL func() string, batchSize int, wait time.Duration, events *emitter, log Logger) *SendBatcher {
	b := &SendBatcher{
		in:        make(chan sendRequest),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		batchSize: batchSize,
		wait:      wait,
		eager:     batchSize <= 0,
		transport: t,
		queueURL:  queueURL,
		events:    events,
		log:       log,
	}
	if !b.eager {
		go b.run()
	} else {
		close(b.done)
	}
	return b
}

// Send issues (or enqueues, if batching is enabled) a single send and
// blocks for its outcome or ctx cancellation.
func (b *SendBatcher) Send(ctx context.Context, entry SendBatchEntry) (SendResult, error) {
	if b.eager {
		out, err := b.transport.SendMessage(ctx, &SendMessageInput{
			QueueURL:          b.queueURL(),
			MessageBody:       entry.MessageBody,
			DelaySeconds:      entry.DelaySeconds,
			MessageAttributes: entry.MessageAttributes,
			MessageGroupID:    entry.MessageGroupID,
			DeduplicationID:   entry.DeduplicationID,
		})
		if err != nil {
			terr := &TransportError{Op: "SendMessage", Err: err}
			b.events.emit(Event{Kind: EventError, Err: terr})
			return SendResult{}, terr
		}
		return SendResult{MessageID: out.MessageID, MD5OfMessageBody: out.MD5OfMessageBody}, nil
	}

	req := sendRequest{entry: entry, result: make(chan sendOutcome, 1)}
	select {
	case b.in <- req:
	case <-ctx.Done():
		return SendResult{}, ctx.Err()
	}

	select {
	case out := <-req.result:
		return out.result, out.err
	case <-ctx.Done():
		return SendResult{}, ctx.Err()
	}
}

// Stop drains pending accumulated sends. No-op when batching is disabled.
func (b *SendBatcher) Stop() {
	if b.eager {
		return
	}
	select {
	case <-b.done:
		return
	default:
	}
	close(b.stop)
	<-b.done
}

func (b *SendBatcher) run() {
	defer close(b.done)

	var pending []sendRequest
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

func (b *SendBatcher) flush(pending []sendRequest) []sendRequest {
	for len(pending) > 0 {
		n := len(pending)
		if n > awsBatchSizeLimit {
			n = awsBatchSizeLimit
		}
		b.flushChunk(pending[:n])
		pending = pending[n:]
	}
	return pending
}

func (b *SendBatcher) flushChunk(chunk []sendRequest) {
	entries := make([]SendBatchEntry, len(chunk))
	byID := make(map[string]sendRequest, len(chunk))
	for i, req := range chunk {
		entries[i] = req.entry
		byID[req.entry.ID] = req
	}

	out, err := b.transport.SendMessageBatch(context.Background(), &SendMessageBatchInput{
		QueueURL: b.queueURL(),
		Entries:  entries,
	})
	if err != nil {
		terr := &TransportError{Op: "SendMessageBatch", Err: err}
		b.log.Printf("sqsconsumer: send batch failed: %s", terr)
		b.events.emit(Event{Kind: EventError, Err: terr})
		for _, req := range chunk {
			req.result <- sendOutcome{err: terr}
		}
		return
	}

	for _, s := range out.Successful {
		req, ok := byID[s.ID]
		if !ok {
			continue
		}
		delete(byID, s.ID)
		req.result <- sendOutcome{result: SendResult{MessageID: s.MessageID, MD5OfMessageBody: s.MD5OfMessageBody}}
	}
	for _, f := range out.Failed {
		req, ok := byID[f.ID]
		if !ok {
			continue
		}
		delete(byID, f.ID)
		req.result <- sendOutcome{err: &SendEntryError{ID: f.ID, Code: f.Code, Message: f.Message, SenderFault: f.SenderFault}}
	}
	for _, req := range byID {
		req.result <- sendOutcome{err: &SendEntryError{ID: req.entry.ID, Message: "not acknowledged by transport"}}
	}
}

// SendMessages splits bodies into chunks of at most awsBatchSizeLimit,
// issues one SendMessageBatch per chunk in parallel, and merges the results
// preserving input order: IDs are the contiguous range "0"..N-1.
func sendMessages(ctx context.Context, t Transport, queueURL string, bodies []SendBatchEntry) (*SendBatchResult, error) {
	n := len(bodies)
	for i := range bodies {
		if bodies[i].ID == "" {
			bodies[i].ID = fmt.Sprintf("%d", i)
		}
	}

	type chunkResult struct {
		out *SendMessageBatchOutput
		err error
	}

	numChunks := (n + awsBatchSizeLimit - 1) / awsBatchSizeLimit
	results := make([]chunkResult, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		start := c * awsBatchSizeLimit
		end := start + awsBatchSizeLimit
		if end > n {
			end = n
		}
		chunk := bodies[start:end]

		wg.Add(1)
		go func(idx int, entries []SendBatchEntry) {
			defer wg.Done()
			out, err := t.SendMessageBatch(ctx, &SendMessageBatchInput{QueueURL: queueURL, Entries: entries})
			results[idx] = chunkResult{out: out, err: err}
		}(c, chunk)
	}
	wg.Wait()

	merged := &SendBatchResult{}
	for _, r := range results {
		if r.err != nil {
			return nil, &TransportError{Op: "SendMessageBatch", Err: r.err}
		}
		merged.Successful = append(merged.Successful, r.out.Successful...)
		merged.Failed = append(merged.Failed, r.out.Failed...)
	}
	return merged, nil
}

// newLocalID generates a locally-unique ID for a batch entry when the
// caller has not supplied one.
func newLocalID() string {
	return uuid.NewString()
}
