package sqsconsumer

import "context"

// Message is an immutable record decoded from a single received queue
// message. It carries a non-owning back-reference to the Consumer that
// received it so the convenience methods (Delete, Release,
// ChangeVisibility) can be called directly on it.
type Message struct {
	ID                      string
	ReceiptHandle           string
	Body                    []byte
	Attributes              map[string]AttributeValue
	SystemAttributes        map[string]string
	ApproximateReceiveCount int

	consumer *Consumer
}

// Text returns the message body decoded as UTF-8 text.
func (m *Message) Text() string {
	return string(m.Body)
}

// Delete deletes this message through the owning Consumer's DeleteBatcher.
// It is equivalent to consumer.DeleteMessage(ctx, m).
func (m *Message) Delete(ctx context.Context) error {
	if m.consumer == nil {
		return ErrInvalidArgument{Reason: "message has no owning consumer"}
	}
	return m.consumer.DeleteMessage(ctx, m)
}

// Release marks this message as handled without deleting it, setting its
// visibility timeout to zero so it is redelivered immediately.
func (m *Message) Release(ctx context.Context) error {
	if m.consumer == nil {
		return ErrInvalidArgument{Reason: "message has no owning consumer"}
	}
	return m.consumer.ReleaseMessage(ctx, m)
}

// ChangeVisibility extends or resets this message's visibility timeout.
func (m *Message) ChangeVisibility(ctx context.Context, seconds int32) error {
	if m.consumer == nil {
		return ErrInvalidArgument{Reason: "message has no owning consumer"}
	}
	return m.consumer.ChangeMessageVisibility(ctx, m, seconds)
}

func newMessage(c *Consumer, w WireMessage) *Message {
	m := &Message{
		ID:               w.MessageID,
		ReceiptHandle:    w.ReceiptHandle,
		Body:             []byte(w.Body),
		Attributes:       decodeAttributes(w.MessageAttributes),
		SystemAttributes: w.Attributes,
		consumer:         c,
	}
	if rc, ok := w.Attributes["ApproximateReceiveCount"]; ok {
		m.ApproximateReceiveCount = parseApproximateReceiveCount(rc)
	}
	return m
}

func parseApproximateReceiveCount(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
