package sqsconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Consumer wires together queue resolution, in-flight tracking, the delete
// and send batchers, optional visibility extension, and the receive loop
// behind a single facade. Construct one with NewConsumer and drive it with
// Start/Stop; observe it by subscribing to Events.
type Consumer struct {
	cfg       ConsumerConfig
	transport Transport
	events    *emitter
	log       Logger

	resolver      *QueueResolver
	inflight      *InflightCounter
	deleteBatcher *DeleteBatcher
	sendBatcher   *SendBatcher
	extender      *TimeoutExtender
	loop          *ReceiveLoop

	startOnce sync.Once

	mu       sync.Mutex
	running  bool
	queueURL string

	stopOnce      sync.Once
	stopRequested atomic.Bool

	drainOnce   sync.Once
	drainCh     chan struct{}
	drainResult bool
}

// NewConsumer builds a Consumer against transport, applying opts over the
// documented defaults. It returns a ConfigError if the result is invalid
// (most commonly, neither QueueURL nor QueueName was supplied).
func NewConsumer(transport Transport, opts ...Option) (*Consumer, error) {
	var cfg ConsumerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Consumer{
		cfg:       cfg,
		transport: transport,
		events:    newEmitter(),
		log:       cfg.Logger,
		drainCh:   make(chan struct{}),
	}
	c.resolver = newQueueResolver(transport, &c.cfg)
	c.inflight = newInflightCounter(cfg.MaxInFlight)
	c.inflight.onDrained = c.onInflightDrained
	c.deleteBatcher = newDeleteBatcher(transport, c.queueURLFunc, cfg.DeleteBatchSize, time.Duration(cfg.DeleteWaitMs)*time.Millisecond, c.events, c.log)
	c.sendBatcher = newSendBatcher(transport, c.queueURLFunc, cfg.SendBatchSize, time.Duration(cfg.SendWaitMs)*time.Millisecond, c.events, c.log)
	if cfg.AutoExtendTimeout {
		c.extender = newTimeoutExtender(
			transport,
			c.queueURLFunc,
			cfg.VisibilityTimeoutSecs,
			time.Duration(cfg.AdvancedCallMs)*time.Millisecond,
			time.Duration(cfg.NoExtensionsAfterSecs)*time.Second,
			c.events,
			c.log,
		)
	}
	c.loop = newReceiveLoop(transport, c.queueURLFunc, &c.cfg, c.inflight, c.events, c.extender, c.log, func(w WireMessage) *Message {
		return newMessage(c, w)
	})
	return c, nil
}

func (c *Consumer) queueURLFunc() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueURL
}

// Start resolves the queue URL and begins the receive loop in the
// background. It is idempotent: only the first call does any work.
func (c *Consumer) Start(ctx context.Context) error {
	var startErr error
	c.startOnce.Do(func() {
		url, err := c.resolver.Resolve(ctx)
		if err != nil {
			startErr = err
			c.events.emit(Event{Kind: EventError, Err: err})
			return
		}
		c.mu.Lock()
		c.queueURL = url
		c.running = true
		c.mu.Unlock()

		go c.loop.Run(context.Background())
	})
	return startErr
}

// Stop requests that the consumer stop accepting new work and waits for
// every in-flight message to be handled, up to drainDeadline (0 means wait
// indefinitely). soft leaves a poll already in flight to finish; a hard
// stop cancels it immediately. Calling Stop more than once, concurrently or
// sequentially, is safe: every call observes the same drain outcome.
func (c *Consumer) Stop(soft bool, drainDeadline time.Duration) bool {
	c.mu.Lock()
	started := c.running
	c.mu.Unlock()
	if !started {
		return true
	}

	c.stopOnce.Do(func() {
		c.stopRequested.Store(true)
		c.loop.RequestStop()
		if !soft {
			c.loop.Abort()
		}
		// A soft stop lets a poll already in flight finish; only once the
		// loop has actually returned is it safe to treat inFlight==0 as
		// drained — otherwise a poll that is about to land more messages
		// would race the teardown below.
		go func() {
			<-c.loop.Done()
			if c.inflight.Value() == 0 {
				c.resolveDrain(true)
			}
		}()
	})

	if drainDeadline > 0 {
		go func() {
			t := time.NewTimer(drainDeadline)
			defer t.Stop()
			select {
			case <-t.C:
				c.resolveDrain(false)
			case <-c.drainCh:
			}
		}()
	}

	<-c.drainCh
	if c.extender != nil {
		c.extender.Stop()
	}
	c.sendBatcher.Stop()
	c.deleteBatcher.Stop()
	return c.drainResult
}

func (c *Consumer) resolveDrain(result bool) {
	c.drainOnce.Do(func() {
		c.drainResult = result
		close(c.drainCh)
		if result {
			c.events.emit(Event{Kind: EventDrained})
		}
	})
}

// onInflightDrained is wired as InflightCounter.onDrained. It only matters
// once a stop has been requested: draining on its own, mid-run, is the
// ordinary "queueEmpty" case and carries no special event. Even then, the
// receive loop must have actually returned — while a poll is still
// outstanding, inFlight reaching zero is not yet a drain, since that poll
// can still dispatch more messages once it returns.
func (c *Consumer) onInflightDrained() {
	if !c.stopRequested.Load() {
		return
	}
	select {
	case <-c.loop.Done():
		c.resolveDrain(true)
	default:
	}
}

// handledMessage marks msg as finalized from the application's point of
// view: it frees its in-flight slot and stops any pending visibility
// extension, regardless of whether the delete or release that triggered it
// has actually been acknowledged by the queue service yet.
func (c *Consumer) handledMessage(msg *Message) {
	c.inflight.Decrement()
	if c.extender != nil {
		c.extender.Untrack(msg.ReceiptHandle)
	}
	c.events.emit(Event{Kind: EventHandled, Message: msg})
}

// DeleteMessage submits msg to the delete batcher and marks it handled,
// returning once the batch it lands in has been flushed. The entry reaches
// the batcher before the in-flight slot is freed, so a Stop waiting on the
// drain cannot tear the batcher down ahead of it.
func (c *Consumer) DeleteMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return ErrInvalidArgument{Reason: "DeleteMessage requires a non-nil Message"}
	}
	c.events.emit(Event{Kind: EventDeleteQueued, Message: msg})
	outcome := c.deleteBatcher.Enqueue(msg, DeleteEntry{ID: msg.ID, ReceiptHandle: msg.ReceiptHandle})
	c.handledMessage(msg)

	select {
	case out := <-outcome:
		return out.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReleaseMessage marks msg handled without deleting it, resetting its
// visibility timeout to zero so the queue redelivers it immediately.
func (c *Consumer) ReleaseMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return ErrInvalidArgument{Reason: "ReleaseMessage requires a non-nil Message"}
	}
	c.handledMessage(msg)
	return c.changeVisibility(ctx, msg.ReceiptHandle, 0)
}

// ChangeMessageVisibility extends or resets the visibility timeout of
// target, which must be a *Message or a raw receipt handle string.
func (c *Consumer) ChangeMessageVisibility(ctx context.Context, target interface{}, seconds int32) error {
	handle, err := receiptHandleOf(target)
	if err != nil {
		return err
	}
	return c.changeVisibility(ctx, handle, seconds)
}

func receiptHandleOf(target interface{}) (string, error) {
	switch t := target.(type) {
	case *Message:
		if t == nil {
			return "", ErrInvalidArgument{Reason: "nil *Message"}
		}
		return t.ReceiptHandle, nil
	case string:
		return t, nil
	default:
		return "", ErrInvalidArgument{Reason: "expected a *Message or a receipt handle string"}
	}
}

func (c *Consumer) changeVisibility(ctx context.Context, receiptHandle string, seconds int32) error {
	url, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	_, err = c.transport.ChangeMessageVisibility(ctx, &ChangeMessageVisibilityInput{
		QueueURL:          url,
		ReceiptHandle:     receiptHandle,
		VisibilityTimeout: seconds,
	})
	if err != nil {
		terr := &TransportError{Op: "ChangeMessageVisibility", Err: err}
		c.events.emit(Event{Kind: EventError, Err: terr})
		return terr
	}
	return nil
}

// SendOption adjusts a single outgoing message built by SendMessage or
// SendMessages.
type SendOption func(*SendBatchEntry)

// WithDelay sets a per-message delivery delay.
func WithDelay(d time.Duration) SendOption {
	return func(e *SendBatchEntry) { v := int32(d / time.Second); e.DelaySeconds = &v }
}

// WithMessageAttributes attaches message attributes to the outgoing send.
func WithMessageAttributes(attrs map[string]AttributeValue) SendOption {
	return func(e *SendBatchEntry) { e.MessageAttributes = encodeAttributes(attrs) }
}

// WithMessageGroupID sets the FIFO message group ID.
func WithMessageGroupID(id string) SendOption {
	return func(e *SendBatchEntry) { e.MessageGroupID = &id }
}

// WithDeduplicationID sets the FIFO explicit deduplication ID.
func WithDeduplicationID(id string) SendOption {
	return func(e *SendBatchEntry) { e.DeduplicationID = &id }
}

// SendMessage sends a single message, eagerly or accumulated per
// WithSendBatching. body may be a string, a []byte, or any value
// json.Marshal accepts.
func (c *Consumer) SendMessage(ctx context.Context, body interface{}, opts ...SendOption) (*SendResult, error) {
	text, err := bodyToText(body)
	if err != nil {
		return nil, err
	}
	url, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.queueURL = url
	c.mu.Unlock()

	entry := SendBatchEntry{ID: newLocalID(), MessageBody: text}
	for _, opt := range opts {
		opt(&entry)
	}

	result, err := c.sendBatcher.Send(ctx, entry)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessages sends every body in one or more SendMessageBatch calls
// issued in parallel, bypassing the send batcher (batching here is already
// explicit). The same opts apply to every entry.
func (c *Consumer) SendMessages(ctx context.Context, bodies []interface{}, opts ...SendOption) (*SendBatchResult, error) {
	entries := make([]SendBatchEntry, len(bodies))
	for i, body := range bodies {
		text, err := bodyToText(body)
		if err != nil {
			return nil, err
		}
		entry := SendBatchEntry{ID: strconv.Itoa(i), MessageBody: text}
		for _, opt := range opts {
			opt(&entry)
		}
		entries[i] = entry
	}

	url, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.queueURL = url
	c.mu.Unlock()

	return sendMessages(ctx, c.transport, url, entries)
}

func bodyToText(body interface{}) (string, error) {
	switch v := body.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("sqsconsumer: encoding message body: %w", err)
		}
		return string(b), nil
	}
}

// CreateQueue creates the queue named by WithQueueName, applying the
// documented attribute defaults plus any VisibilityTimeout or QueuePolicy
// override, and adopts the resulting URL for subsequent operations.
func (c *Consumer) CreateQueue(ctx context.Context) (string, error) {
	if c.cfg.QueueName == "" {
		return "", ConfigError{Reason: "CreateQueue requires WithQueueName"}
	}

	attrs := map[string]string{
		"ReceiveMessageWaitTimeSeconds": strconv.Itoa(createQueueDefaultWaitSecs),
		"DelaySeconds":                  strconv.Itoa(createQueueDefaultDelaySecs),
		"MaximumMessageSize":            strconv.Itoa(createQueueDefaultMaxMessageSize),
		"MessageRetentionPeriod":        strconv.Itoa(createQueueDefaultRetentionSecs),
	}
	if c.cfg.VisibilityTimeoutSecs > 0 {
		attrs["VisibilityTimeout"] = strconv.Itoa(int(c.cfg.VisibilityTimeoutSecs))
	}
	if c.cfg.QueuePolicy != "" {
		attrs["Policy"] = c.cfg.QueuePolicy
	}

	out, err := c.transport.CreateQueue(ctx, &CreateQueueInput{QueueName: c.cfg.QueueName, Attributes: attrs})
	if err != nil {
		terr := &TransportError{Op: "CreateQueue", Err: err}
		c.events.emit(Event{Kind: EventError, Err: terr})
		return "", terr
	}

	c.mu.Lock()
	c.queueURL = out.QueueURL
	c.mu.Unlock()
	return out.QueueURL, nil
}

// DeleteQueue deletes the resolved queue.
func (c *Consumer) DeleteQueue(ctx context.Context) error {
	url, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	if _, err := c.transport.DeleteQueue(ctx, &DeleteQueueInput{QueueURL: url}); err != nil {
		terr := &TransportError{Op: "DeleteQueue", Err: err}
		c.events.emit(Event{Kind: EventError, Err: terr})
		return terr
	}
	return nil
}

// PurgeQueue removes every message currently in the resolved queue.
func (c *Consumer) PurgeQueue(ctx context.Context) error {
	url, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	if _, err := c.transport.PurgeQueue(ctx, &PurgeQueueInput{QueueURL: url}); err != nil {
		terr := &TransportError{Op: "PurgeQueue", Err: err}
		c.events.emit(Event{Kind: EventError, Err: terr})
		return terr
	}
	return nil
}

// GetQueueURL returns the resolved queue URL, resolving it if this is the
// first call.
func (c *Consumer) GetQueueURL(ctx context.Context) (string, error) {
	return c.resolver.Resolve(ctx)
}

// GetQueueVisibilityTimeout reads the resolved queue's current
// VisibilityTimeout attribute.
func (c *Consumer) GetQueueVisibilityTimeout(ctx context.Context) (int32, error) {
	url, err := c.resolver.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	out, err := c.transport.GetQueueAttributes(ctx, &GetQueueAttributesInput{
		QueueURL:       url,
		AttributeNames: []string{"VisibilityTimeout"},
	})
	if err != nil {
		terr := &TransportError{Op: "GetQueueAttributes", Err: err}
		c.events.emit(Event{Kind: EventError, Err: terr})
		return 0, terr
	}
	raw, ok := out.Attributes["VisibilityTimeout"]
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("sqsconsumer: parsing VisibilityTimeout attribute %q: %w", raw, err)
	}
	return int32(v), nil
}

// Subscribe returns a channel of Events and an unsubscribe function. The
// channel is buffered; a subscriber that falls behind silently misses
// events rather than blocking the consumer.
func (c *Consumer) Subscribe(buffer int) (<-chan Event, func()) {
	return c.events.subscribe(buffer)
}
