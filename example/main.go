// Command example demonstrates wiring a Consumer up with middleware and a
// type-routed handler against a real SQS queue.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/flowmq/sqsconsumer"
	"github.com/flowmq/sqsconsumer/middleware"
	"github.com/flowmq/sqsconsumer/router"
	"github.com/flowmq/sqsconsumer/transport/awssqs"
)

func main() {
	logger := logrus.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	transport, err := awssqs.NewFromRegion(ctx, "us-east-1")
	if err != nil {
		log.Fatalf("setting up SQS client: %s", err)
	}

	counter, histogram := middleware.NewDefaultCollectors("example_consumer")
	prometheus.MustRegister(counter, histogram)

	r := router.New()
	r.Add("order.created", handleOrderCreated)
	r.Add("order.cancelled", handleOrderCancelled)

	handler := middleware.Apply(r.Handler,
		middleware.Metrics(counter, histogram),
		middleware.UnwrapSNS(),
		middleware.DeleteOnSuccess(),
	)

	consumer, err := sqsconsumer.NewConsumer(transport,
		sqsconsumer.WithQueueName("example_queue", ""),
		sqsconsumer.WithMaxInFlight(50),
		sqsconsumer.WithAutoExtendTimeout(true),
		sqsconsumer.WithVisibilityTimeout(30*time.Second),
		sqsconsumer.WithLogger(sqsconsumer.NewLogrusLogger(logger)),
	)
	if err != nil {
		log.Fatalf("configuring consumer: %s", err)
	}

	events, unsubscribe := consumer.Subscribe(64)
	defer unsubscribe()
	go logEvents(logger, events)

	go dispatchLoop(ctx, consumer, handler)

	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("starting consumer: %s", err)
	}

	<-ctx.Done()
	logger.Info("shutting down, draining in-flight messages")
	drained := consumer.Stop(true, 30*time.Second)
	if !drained {
		logger.Warn("drain deadline exceeded, some messages may be redelivered")
	}
}

// dispatchLoop is the part sqsconsumer leaves to the application (§4.1):
// call handler for every message event, then resolve it. A successful
// message is deleted by DeleteOnSuccess; a failed one is released here so
// the queue redelivers it.
func dispatchLoop(ctx context.Context, consumer *sqsconsumer.Consumer, handler middleware.Handler) {
	events, unsubscribe := consumer.Subscribe(256)
	defer unsubscribe()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != sqsconsumer.EventMessage {
				continue
			}
			msg := ev.Message
			go func() {
				if err := handler(ctx, msg); err != nil {
					log.Printf("handler error for message %s: %s", msg.ID, err)
					if rerr := msg.Release(context.Background()); rerr != nil {
						log.Printf("releasing message %s: %s", msg.ID, rerr)
					}
				}
			}()
		case <-ctx.Done():
			return
		}
	}
}

func logEvents(logger *logrus.Logger, events <-chan sqsconsumer.Event) {
	for ev := range events {
		switch ev.Kind {
		case sqsconsumer.EventError:
			logger.WithError(ev.Err).Warn("sqsconsumer error")
		case sqsconsumer.EventQueueEmpty, sqsconsumer.EventMessage:
			// high-volume, skip
		default:
			logger.WithField("event", ev.Kind).Debug("sqsconsumer event")
		}
	}
}

func handleOrderCreated(ctx context.Context, msg *sqsconsumer.Message) error {
	// simulate occasional transient failure so redelivery can be observed
	if rand.Intn(10) == 0 {
		return fmt.Errorf("transient failure handling order: %s", msg.ID)
	}
	log.Printf("order created: %s", msg.Text())
	return nil
}

func handleOrderCancelled(ctx context.Context, msg *sqsconsumer.Message) error {
	log.Printf("order cancelled: %s", msg.Text())
	return nil
}
