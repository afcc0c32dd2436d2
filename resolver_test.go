package sqsconsumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueResolverExplicitURLSkipsCall(t *testing.T) {
	ft := newFakeTransport()
	r := newQueueResolver(ft, &ConsumerConfig{QueueURL: "https://explicit/q"})

	url, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://explicit/q", url)
	assert.Zero(t, ft.getQueueURLCalls)
}

func TestQueueResolverCachesAfterFirstCall(t *testing.T) {
	ft := newFakeTransport()
	r := newQueueResolver(ft, &ConsumerConfig{QueueName: "my-queue"})

	url1, err := r.Resolve(context.Background())
	require.NoError(t, err)
	url2, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, url1, url2)
	assert.Equal(t, 1, ft.getQueueURLCalls)
}

func TestQueueResolverCorrectQueueURLRewritesHost(t *testing.T) {
	ft := newFakeTransport()
	ft.getQueueURLOut = &GetQueueURLOutput{QueueURL: "http://internal-host:1234/queue/path"}

	r := newQueueResolver(ft, &ConsumerConfig{QueueName: "my-queue", CorrectQueueURL: true, EndpointHost: "public-host:5678"})

	url, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://public-host:5678/queue/path", url)
}

func TestQueueResolverPropagatesTransportError(t *testing.T) {
	ft := newFakeTransport()
	ft.getQueueURLErr = assertErr{}

	r := newQueueResolver(ft, &ConsumerConfig{QueueName: "my-queue"})
	_, err := r.Resolve(context.Background())
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
