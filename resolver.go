package sqsconsumer

import (
	"context"
	"net/url"
	"sync"
)

// QueueResolver resolves a queue URL from either an explicit URL or a
// (name, account) pair, caching the outcome of the first resolution. A
// failed lookup is cached as well and is not retried.
type QueueResolver struct {
	transport       Transport
	explicitURL     string
	queueName       string
	accountNumber   string
	correctQueueURL bool
	endpointHost    string

	once     sync.Once
	resolved string
	err      error
}

func newQueueResolver(t Transport, cfg *ConsumerConfig) *QueueResolver {
	return &QueueResolver{
		transport:       t,
		explicitURL:     cfg.QueueURL,
		queueName:       cfg.QueueName,
		accountNumber:   cfg.AccountNumber,
		correctQueueURL: cfg.CorrectQueueURL,
		endpointHost:    cfg.EndpointHost,
	}
}

// Resolve returns the queue URL, calling GetQueueURL at most once and
// caching the result (or the explicit URL with no service call at all).
func (r *QueueResolver) Resolve(ctx context.Context) (string, error) {
	if r.explicitURL != "" {
		return r.explicitURL, nil
	}

	r.once.Do(func() {
		out, err := r.transport.GetQueueURL(ctx, &GetQueueURLInput{
			QueueName:              r.queueName,
			QueueOwnerAWSAccountID: r.accountNumber,
		})
		if err != nil {
			r.err = &TransportError{Op: "GetQueueURL", Err: err}
			return
		}
		u := out.QueueURL
		if r.correctQueueURL {
			u = r.rewriteHost(u)
		}
		r.resolved = u
	})
	return r.resolved, r.err
}

func (r *QueueResolver) rewriteHost(rawURL string) string {
	host := r.endpointHost
	if hoster, ok := r.transport.(EndpointHoster); ok {
		if h := hoster.EndpointHost(); h != "" {
			host = h
		}
	}
	if host == "" {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Host = host
	return parsed.String()
}
