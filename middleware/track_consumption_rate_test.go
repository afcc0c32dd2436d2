package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/flowmq/sqsconsumer"
	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	calls chan []interface{}
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.calls <- args
}

func TestTrackConsumptionRateReportsCount(t *testing.T) {
	log := &recordingLogger{calls: make(chan []interface{}, 4)}
	fn := func(ctx context.Context, msg *sqsconsumer.Message) error { return nil }
	wrapped := TrackConsumptionRate(log, 20*time.Millisecond, "consumed %d")(fn)

	for i := 0; i < 3; i++ {
		_ = wrapped(context.Background(), &sqsconsumer.Message{})
	}

	select {
	case args := <-log.calls:
		assert.Equal(t, int64(3), args[0])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for rate report")
	}
}
