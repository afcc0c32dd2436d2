package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/flowmq/sqsconsumer"
	"github.com/flowmq/sqsconsumer/internal/movingaverage"
)

// TrackMessageAge decorates a Handler to maintain the exponential moving
// average of message age (time between SentTimestamp and receipt, counted
// only on first delivery), invoking f with the current average once per
// period.
func TrackMessageAge(period time.Duration, f func(age float64)) Decorator {
	ema := movingaverage.New(period)

	go func() {
		for {
			<-time.After(period)
			f(ema.Value())
		}
	}()

	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			age, err := computeMessageAge(msg)
			if err == nil {
				ema.Update(age)
			}
			return fn(ctx, msg)
		}
	}
}

var errCannotComputeAge = errors.New("middleware: cannot compute message age")

const millisPerSec = 1e3

func computeMessageAge(msg *sqsconsumer.Message) (float64, error) {
	if msg.ApproximateReceiveCount > 1 {
		return 0, errCannotComputeAge
	}

	sentTimestamp, ok := msg.SystemAttributes["SentTimestamp"]
	if !ok {
		return 0, errCannotComputeAge
	}

	s, err := strconv.ParseInt(sentTimestamp, 10, 64)
	if err != nil {
		return 0, errCannotComputeAge
	}

	now := time.Now().UnixMilli()
	return float64(now-s) / millisPerSec, nil
}
