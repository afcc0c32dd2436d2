package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/flowmq/sqsconsumer"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordsSuccessAndFailure(t *testing.T) {
	counter, histogram := NewDefaultCollectors("test")

	calls := 0
	fn := func(ctx context.Context, msg *sqsconsumer.Message) error {
		calls++
		if calls == 1 {
			return nil
		}
		return errors.New("fail")
	}
	wrapped := Metrics(counter, histogram)(fn)

	require.NoError(t, wrapped(context.Background(), &sqsconsumer.Message{ID: "m1"}))
	require.Error(t, wrapped(context.Background(), &sqsconsumer.Message{ID: "m2"}))

	var m dto.Metric
	require.NoError(t, counter.WithLabelValues("success").Write(&m))
	require.Equal(t, 1.0, m.GetCounter().GetValue())

	var mf dto.Metric
	require.NoError(t, counter.WithLabelValues("failure").Write(&mf))
	require.Equal(t, 1.0, mf.GetCounter().GetValue())
}
