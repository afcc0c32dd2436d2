package sqsconsumer

import (
	"context"
	"sync"
)

// fakeTransport is a hand-written Transport stand-in for tests. The
// original mock, generated with golang/mock's mockgen, can't be
// regenerated here, so its call-recording/stubbing behavior is reproduced
// directly: each method pulls its next canned response off a per-method
// queue, recording every call it received along the way.
type fakeTransport struct {
	mu sync.Mutex

	receiveResponses   []receiveCall
	deleteResponses    []deleteCall
	sendResponses      []sendCall
	sendBatchResponses []sendBatchCall
	changeVisResponses []changeVisCall

	getQueueURLOut *GetQueueURLOutput
	getQueueURLErr error

	getAttrsOut *GetQueueAttributesOutput
	getAttrsErr error

	createQueueOut *CreateQueueOutput
	createQueueErr error

	receiveCalls     []*ReceiveMessageInput
	deleteCalls      []*DeleteMessageBatchInput
	sendCalls        []*SendMessageInput
	sendBatchCalls   []*SendMessageBatchInput
	changeVisCalls   []*ChangeMessageVisibilityInput
	createQueueCalls []*CreateQueueInput
	getQueueURLCalls int
}

type receiveCall struct {
	out   *ReceiveMessageOutput
	err   error
	block <-chan struct{}
}

type deleteCall struct {
	out *DeleteMessageBatchOutput
	err error
}

type sendCall struct {
	out *SendMessageOutput
	err error
}

type sendBatchCall struct {
	out *SendMessageBatchOutput
	err error
}

type changeVisCall struct {
	err error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) queueReceive(out *ReceiveMessageOutput, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiveResponses = append(f.receiveResponses, receiveCall{out: out, err: err})
}

// queueReceiveBlocking queues a response that is not returned until release
// is closed (or ctx is cancelled), simulating a long poll genuinely in
// flight rather than one that resolves instantly.
func (f *fakeTransport) queueReceiveBlocking(release <-chan struct{}, out *ReceiveMessageOutput, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiveResponses = append(f.receiveResponses, receiveCall{out: out, err: err, block: release})
}

func (f *fakeTransport) queueDelete(out *DeleteMessageBatchOutput, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteResponses = append(f.deleteResponses, deleteCall{out, err})
}

func (f *fakeTransport) queueSend(out *SendMessageOutput, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendResponses = append(f.sendResponses, sendCall{out, err})
}

func (f *fakeTransport) queueSendBatch(out *SendMessageBatchOutput, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendBatchResponses = append(f.sendBatchResponses, sendBatchCall{out, err})
}

func (f *fakeTransport) queueChangeVisibility(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changeVisResponses = append(f.changeVisResponses, changeVisCall{err})
}

func (f *fakeTransport) ReceiveMessage(ctx context.Context, in *ReceiveMessageInput) (*ReceiveMessageOutput, error) {
	f.mu.Lock()
	f.receiveCalls = append(f.receiveCalls, in)
	if len(f.receiveResponses) == 0 {
		f.mu.Unlock()
		return &ReceiveMessageOutput{}, nil
	}
	next := f.receiveResponses[0]
	f.receiveResponses = f.receiveResponses[1:]
	f.mu.Unlock()

	if next.block != nil {
		select {
		case <-next.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return next.out, next.err
}

func (f *fakeTransport) DeleteMessageBatch(ctx context.Context, in *DeleteMessageBatchInput) (*DeleteMessageBatchOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, in)
	if len(f.deleteResponses) == 0 {
		out := &DeleteMessageBatchOutput{}
		for _, e := range in.Entries {
			out.Successful = append(out.Successful, DeleteResultEntry{ID: e.ID})
		}
		return out, nil
	}
	next := f.deleteResponses[0]
	f.deleteResponses = f.deleteResponses[1:]
	return next.out, next.err
}

func (f *fakeTransport) SendMessage(ctx context.Context, in *SendMessageInput) (*SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, in)
	if len(f.sendResponses) == 0 {
		return &SendMessageOutput{MessageID: "generated"}, nil
	}
	next := f.sendResponses[0]
	f.sendResponses = f.sendResponses[1:]
	return next.out, next.err
}

func (f *fakeTransport) SendMessageBatch(ctx context.Context, in *SendMessageBatchInput) (*SendMessageBatchOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendBatchCalls = append(f.sendBatchCalls, in)
	if len(f.sendBatchResponses) == 0 {
		out := &SendMessageBatchOutput{}
		for _, e := range in.Entries {
			out.Successful = append(out.Successful, SendResultEntry{ID: e.ID, MessageID: "generated-" + e.ID})
		}
		return out, nil
	}
	next := f.sendBatchResponses[0]
	f.sendBatchResponses = f.sendBatchResponses[1:]
	return next.out, next.err
}

func (f *fakeTransport) ChangeMessageVisibility(ctx context.Context, in *ChangeMessageVisibilityInput) (*ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changeVisCalls = append(f.changeVisCalls, in)
	if len(f.changeVisResponses) == 0 {
		return &ChangeMessageVisibilityOutput{}, nil
	}
	next := f.changeVisResponses[0]
	f.changeVisResponses = f.changeVisResponses[1:]
	return &ChangeMessageVisibilityOutput{}, next.err
}

func (f *fakeTransport) CreateQueue(ctx context.Context, in *CreateQueueInput) (*CreateQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createQueueCalls = append(f.createQueueCalls, in)
	if f.createQueueOut != nil || f.createQueueErr != nil {
		return f.createQueueOut, f.createQueueErr
	}
	return &CreateQueueOutput{QueueURL: "https://queue.example/created"}, nil
}

func (f *fakeTransport) DeleteQueue(ctx context.Context, in *DeleteQueueInput) (*DeleteQueueOutput, error) {
	return &DeleteQueueOutput{}, nil
}

func (f *fakeTransport) PurgeQueue(ctx context.Context, in *PurgeQueueInput) (*PurgeQueueOutput, error) {
	return &PurgeQueueOutput{}, nil
}

func (f *fakeTransport) GetQueueURL(ctx context.Context, in *GetQueueURLInput) (*GetQueueURLOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getQueueURLCalls++
	if f.getQueueURLOut != nil || f.getQueueURLErr != nil {
		return f.getQueueURLOut, f.getQueueURLErr
	}
	return &GetQueueURLOutput{QueueURL: "https://queue.example/q"}, nil
}

func (f *fakeTransport) GetQueueAttributes(ctx context.Context, in *GetQueueAttributesInput) (*GetQueueAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getAttrsOut != nil || f.getAttrsErr != nil {
		return f.getAttrsOut, f.getAttrsErr
	}
	return &GetQueueAttributesOutput{Attributes: map[string]string{}}, nil
}
