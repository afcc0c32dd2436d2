// Package middleware decorates message handlers with cross-cutting
// concerns: concurrency limiting, metrics, tracing, SNS envelope
// unwrapping, delete-on-success, and consumption-rate/age tracking.
package middleware

import (
	"context"

	"github.com/flowmq/sqsconsumer"
)

// Handler processes one decoded message.
type Handler func(ctx context.Context, msg *sqsconsumer.Message) error

// Decorator wraps a Handler to add behavior before, after, or around it.
type Decorator func(Handler) Handler

// Apply composes ds in call order, so Apply(fn, d1, d2, d3) runs
// d1's wrapping outermost: d1(d2(d3(fn))).
func Apply(fn Handler, ds ...Decorator) Handler {
	for i := len(ds) - 1; i >= 0; i-- {
		fn = ds[i](fn)
	}
	return fn
}
