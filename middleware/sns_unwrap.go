package middleware

import (
	"context"
	"encoding/json"

	"github.com/flowmq/sqsconsumer"
)

// UnwrapSNS decorates a Handler to unwrap messages delivered via an SNS
// topic subscription: if the body is an SNS notification envelope, the
// handler sees the envelope's inner Message text instead of the raw body.
// A body that doesn't parse as an SNS envelope is passed through unchanged.
func UnwrapSNS() Decorator {
	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			var e snsEnvelope
			if err := json.Unmarshal(msg.Body, &e); err == nil && isSNSMessage(e) {
				unwrapped := *msg
				unwrapped.Body = []byte(e.Message)
				return fn(ctx, &unwrapped)
			}
			return fn(ctx, msg)
		}
	}
}

type snsEnvelope struct {
	Type      string
	TopicArn  string
	MessageID string `json:"MessageId"`
	Message   string
}

func isSNSMessage(e snsEnvelope) bool {
	return e.TopicArn != "" && e.MessageID != "" && e.Type == "Notification"
}
