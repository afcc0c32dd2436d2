package middleware

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flowmq/sqsconsumer"
)

// TrackConsumptionRate decorates a Handler to invoke log once per period
// with the count of messages consumed during that period.
func TrackConsumptionRate(log sqsconsumer.Logger, period time.Duration, format string) Decorator {
	var count int64

	go func() {
		for {
			<-time.After(period)
			c := atomic.SwapInt64(&count, 0)
			log.Printf(format, c)
		}
	}()

	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			atomic.AddInt64(&count, 1)
			return fn(ctx, msg)
		}
	}
}
