package sqsconsumer

import "fmt"

// TransportError wraps any failure returned by the Transport. The
// ReceiveLoop enters backoff after one, batchers reject the affected
// entries with it, and it is never fatal to the consumer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sqsconsumer: transport error during %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeleteEntryError is a per-entry failure reported by DeleteMessageBatch,
// surfaced via the DelError event and returned by DeleteMessage.
type DeleteEntryError struct {
	ID          string
	Code        string
	Message     string
	SenderFault bool
}

func (e *DeleteEntryError) Error() string {
	return fmt.Sprintf("sqsconsumer: delete failed for %s: %s (%s)", e.ID, e.Message, e.Code)
}

// SendEntryError is a per-entry failure reported by SendMessageBatch.
type SendEntryError struct {
	ID          string
	Code        string
	Message     string
	SenderFault bool
}

func (e *SendEntryError) Error() string {
	return fmt.Sprintf("sqsconsumer: send failed for %s: %s (%s)", e.ID, e.Message, e.Code)
}

// ConfigError is raised synchronously for invalid construction-time
// configuration: a missing queue identity, or CreateQueue called without a
// name.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string {
	return "sqsconsumer: config error: " + e.Reason
}

// ErrInvalidArgument is returned when an operation is called with an
// argument of the wrong shape, e.g. DeleteMessage with a nil *Message, or
// ChangeMessageVisibility with a target that is neither a *Message nor a
// receipt handle string.
type ErrInvalidArgument struct {
	Reason string
}

func (e ErrInvalidArgument) Error() string {
	return "sqsconsumer: invalid argument: " + e.Reason
}

// errStopping is returned by operations that cannot be started once Stop
// has been requested.
var errStopping = ConfigError{Reason: "consumer is stopping"}
