package middleware

import (
	"context"

	"github.com/flowmq/sqsconsumer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing decorates a Handler to open a span per message on tracer, tagging
// it with the message ID and approximate receive count and recording an
// error status if the handler fails.
func Tracing(tracer trace.Tracer) Decorator {
	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			ctx, span := tracer.Start(ctx, "sqsconsumer.handle",
				trace.WithAttributes(
					attribute.String("sqs.message_id", msg.ID),
					attribute.Int("sqs.approximate_receive_count", msg.ApproximateReceiveCount),
				),
			)
			defer span.End()

			err := fn(ctx, msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}
