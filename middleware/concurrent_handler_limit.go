package middleware

import (
	"context"

	"github.com/flowmq/sqsconsumer"
)

// ConcurrentHandlerLimit decorates a Handler to limit how many handlers run
// at once. Since a single Consumer already caps concurrency via MaxInFlight,
// this is for the case where several consumers (or several queues) share a
// limit: construct one ConcurrentHandlerLimit and apply the same decorator
// to all of their handler funcs.
func ConcurrentHandlerLimit(limit int) Decorator {
	// close over the pool so that one limit can apply to multiple handlers
	pool := newTokenPool(limit)

	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			select {
			case <-pool:
				err := fn(ctx, msg)
				pool <- struct{}{}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func newTokenPool(size int) chan struct{} {
	p := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		p <- struct{}{}
	}
	return p
}
