package sqsconsumer

import "time"

// ConsumerConfig holds every option recognized when constructing a
// Consumer. Zero values are replaced by the package defaults (the
// default* constants below); use the With* functional options to set them.
type ConsumerConfig struct {
	// Queue identity. Either QueueURL, or QueueName (optionally with
	// AccountNumber), must be set.
	QueueURL      string
	QueueName     string
	AccountNumber string

	// CorrectQueueURL rewrites a resolved URL's host to the transport's
	// endpoint host, preserving the path.
	CorrectQueueURL bool

	// MaxInFlight caps the number of messages handed to the application
	// but not yet finalized. 0 means unbounded.
	MaxInFlight int

	// ReceiveBatchSize is the preferred per-poll batch, capped at 10.
	ReceiveBatchSize int
	// MinReceiveBatchSize: below this many free slots, polling is
	// suppressed until more slots free up.
	MinReceiveBatchSize int
	// ReceiveWaitTimeSecs is the long-poll wait.
	ReceiveWaitTimeSecs int32
	// VisibilityTimeoutSecs is a per-poll override, and the default used
	// by CreateQueue.
	VisibilityTimeoutSecs int32

	// ActivePollIntervalMs delays between polls after a poll that
	// produced messages.
	ActivePollIntervalMs int
	// IdlePollIntervalMs delays after an empty poll.
	IdlePollIntervalMs int
	// PollRetryMs delays after a transport error before retrying.
	PollRetryMs int

	// DeleteBatchSize is the flush threshold for the delete batcher,
	// capped at 10.
	DeleteBatchSize int
	// DeleteWaitMs is the time threshold for the delete batcher.
	DeleteWaitMs int

	// SendBatchSize, if > 0, enables accumulation for single SendMessage
	// calls (symmetric to the delete batcher). 0 means SendMessage is
	// eager: each call issues its own request immediately.
	SendBatchSize int
	// SendWaitMs is the time threshold for the send batcher, when enabled.
	SendWaitMs int

	// AutoExtendTimeout enables the TimeoutExtender.
	AutoExtendTimeout bool
	// NoExtensionsAfterSecs is the wall-clock ceiling for extension.
	NoExtensionsAfterSecs int64
	// AdvancedCallMs is how far before expiry to renew.
	AdvancedCallMs int

	// ReceiveAttributes is the message-attribute filter passed to
	// ReceiveMessage.
	ReceiveAttributes []string
	// ReceiveSQSAttributes is the system-attribute filter passed to
	// ReceiveMessage.
	ReceiveSQSAttributes []string

	// Logger receives diagnostic output. Defaults to NoopLogger.
	Logger Logger

	// EndpointHost overrides the host used for CorrectQueueURL rewriting
	// when the Transport does not implement EndpointHoster.
	EndpointHost string

	// QueuePolicy, if set, is passed as the Policy attribute on
	// CreateQueue.
	QueuePolicy string

	maxInFlightSet bool
}

const (
	defaultMaxInFlight           = 100
	defaultReceiveBatchSize      = 10
	defaultMinReceiveBatchSize   = 1
	defaultReceiveWaitTimeSecs   = 20
	defaultPollRetryMs           = 10_000
	defaultDeleteBatchSize       = 10
	defaultDeleteWaitMs          = 2_000
	defaultNoExtensionsAfterSecs = 43_200
	defaultAdvancedCallMs        = 5_000
	awsBatchSizeLimit            = 10

	createQueueDefaultWaitSecs       = 20
	createQueueDefaultDelaySecs      = 0
	createQueueDefaultMaxMessageSize = 262144
	createQueueDefaultRetentionSecs  = 345600
)

// applyDefaults fills in every field left unset. MaxInFlight is special:
// its own zero value means "unbounded" (§3), so only an untouched field
// (never passed to WithMaxInFlight) receives the default of 100.
func (c *ConsumerConfig) applyDefaults() {
	if !c.maxInFlightSet && c.MaxInFlight == 0 {
		c.MaxInFlight = defaultMaxInFlight
	}
	if c.ReceiveBatchSize == 0 {
		c.ReceiveBatchSize = defaultReceiveBatchSize
	}
	if c.ReceiveBatchSize > awsBatchSizeLimit {
		c.ReceiveBatchSize = awsBatchSizeLimit
	}
	if c.MinReceiveBatchSize == 0 {
		c.MinReceiveBatchSize = defaultMinReceiveBatchSize
	}
	if c.ReceiveWaitTimeSecs == 0 {
		c.ReceiveWaitTimeSecs = defaultReceiveWaitTimeSecs
	}
	if c.PollRetryMs == 0 {
		c.PollRetryMs = defaultPollRetryMs
	}
	if c.DeleteBatchSize == 0 {
		c.DeleteBatchSize = defaultDeleteBatchSize
	}
	if c.DeleteBatchSize > awsBatchSizeLimit {
		c.DeleteBatchSize = awsBatchSizeLimit
	}
	if c.DeleteWaitMs == 0 {
		c.DeleteWaitMs = defaultDeleteWaitMs
	}
	if c.NoExtensionsAfterSecs == 0 {
		c.NoExtensionsAfterSecs = defaultNoExtensionsAfterSecs
	}
	if c.AdvancedCallMs == 0 {
		c.AdvancedCallMs = defaultAdvancedCallMs
	}
	if len(c.ReceiveAttributes) == 0 {
		c.ReceiveAttributes = []string{"All"}
	}
	if len(c.ReceiveSQSAttributes) == 0 {
		c.ReceiveSQSAttributes = []string{"All"}
	}
	if c.Logger == nil {
		c.Logger = NoopLogger
	}
}

func (c *ConsumerConfig) validate() error {
	if c.QueueURL == "" && c.QueueName == "" {
		return ConfigError{Reason: "one of QueueURL or QueueName is required"}
	}
	return nil
}

// Option configures a ConsumerConfig when constructing a Consumer.
type Option func(*ConsumerConfig)

func WithQueueURL(url string) Option {
	return func(c *ConsumerConfig) { c.QueueURL = url }
}

func WithQueueName(name string, accountNumber string) Option {
	return func(c *ConsumerConfig) {
		c.QueueName = name
		c.AccountNumber = accountNumber
	}
}

func WithCorrectQueueURL(correct bool) Option {
	return func(c *ConsumerConfig) { c.CorrectQueueURL = correct }
}

// WithMaxInFlight caps the number of outstanding messages. Pass 0 for
// unbounded.
func WithMaxInFlight(max int) Option {
	return func(c *ConsumerConfig) {
		c.MaxInFlight = max
		c.maxInFlightSet = true
	}
}

func WithReceiveBatchSize(n int) Option {
	return func(c *ConsumerConfig) { c.ReceiveBatchSize = n }
}

func WithMinReceiveBatchSize(n int) Option {
	return func(c *ConsumerConfig) { c.MinReceiveBatchSize = n }
}

func WithReceiveWaitTime(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.ReceiveWaitTimeSecs = int32(d / time.Second) }
}

func WithVisibilityTimeout(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.VisibilityTimeoutSecs = int32(d / time.Second) }
}

func WithActivePollInterval(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.ActivePollIntervalMs = int(d / time.Millisecond) }
}

func WithIdlePollInterval(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.IdlePollIntervalMs = int(d / time.Millisecond) }
}

func WithPollRetryInterval(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.PollRetryMs = int(d / time.Millisecond) }
}

func WithDeleteBatchSize(n int) Option {
	return func(c *ConsumerConfig) { c.DeleteBatchSize = n }
}

func WithDeleteWait(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.DeleteWaitMs = int(d / time.Millisecond) }
}

// WithSendBatching opts single SendMessage calls into accumulation,
// symmetric to the delete batcher. Without this, SendMessage is eager.
func WithSendBatching(size int, wait time.Duration) Option {
	return func(c *ConsumerConfig) {
		c.SendBatchSize = size
		c.SendWaitMs = int(wait / time.Millisecond)
	}
}

func WithAutoExtendTimeout(enabled bool) Option {
	return func(c *ConsumerConfig) { c.AutoExtendTimeout = enabled }
}

func WithNoExtensionsAfter(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.NoExtensionsAfterSecs = int64(d / time.Second) }
}

func WithAdvancedCall(d time.Duration) Option {
	return func(c *ConsumerConfig) { c.AdvancedCallMs = int(d / time.Millisecond) }
}

func WithReceiveAttributes(names ...string) Option {
	return func(c *ConsumerConfig) { c.ReceiveAttributes = names }
}

func WithReceiveSQSAttributes(names ...string) Option {
	return func(c *ConsumerConfig) { c.ReceiveSQSAttributes = names }
}

func WithLogger(l Logger) Option {
	return func(c *ConsumerConfig) { c.Logger = l }
}

func WithEndpointHost(host string) Option {
	return func(c *ConsumerConfig) { c.EndpointHost = host }
}

func WithQueuePolicy(policy string) Option {
	return func(c *ConsumerConfig) { c.QueuePolicy = policy }
}
