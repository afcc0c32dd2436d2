package middleware

import (
	"context"
	"fmt"

	"github.com/flowmq/sqsconsumer"
)

// DeleteOnSuccess decorates a Handler to delete the message once fn returns
// nil. A processing error is left alone so the queue redelivers it. The
// actual delete still goes through the consumer's own batching.
func DeleteOnSuccess() Decorator {
	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			err := fn(ctx, msg)
			if err != nil {
				return err
			}
			if derr := msg.Delete(ctx); derr != nil {
				return fmt.Errorf("middleware: deleting %s after success: %w", msg.ID, derr)
			}
			return nil
		}
	}
}
