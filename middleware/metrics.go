package middleware

import (
	"context"
	"time"

	"github.com/flowmq/sqsconsumer"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics decorates a Handler to record successes, failures, and handling
// latency against the supplied prometheus collectors. counter is a
// *CounterVec labeled "outcome" with values "success"/"failure"; histogram
// observes handling duration in seconds.
func Metrics(counter *prometheus.CounterVec, histogram prometheus.Histogram) Decorator {
	return func(fn Handler) Handler {
		return func(ctx context.Context, msg *sqsconsumer.Message) error {
			start := time.Now()
			err := fn(ctx, msg)
			histogram.Observe(time.Since(start).Seconds())

			if err != nil {
				counter.WithLabelValues("failure").Inc()
			} else {
				counter.WithLabelValues("success").Inc()
			}
			return err
		}
	}
}

// NewDefaultCollectors builds the counter/histogram pair Metrics expects,
// named under the given namespace. They are not registered; the caller
// registers them with a prometheus registry.
func NewDefaultCollectors(namespace string) (*prometheus.CounterVec, prometheus.Histogram) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_handled_total",
		Help:      "Count of messages handled, labeled by outcome.",
	}, []string{"outcome"})

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_handle_duration_seconds",
		Help:      "Time spent in the message handler.",
		Buckets:   prometheus.DefBuckets,
	})

	return counter, histogram
}
