package sqsconsumer

import "context"

// Transport is the abstract queue-service collaborator the consumer engine
// is built against. It is deliberately not the AWS SDK's SQS client type:
// the engine only needs these operations, and tests substitute a fake. See
// the transport/awssqs subpackage for a concrete adapter over aws-sdk-go-v2.
//
// Every method takes a context.Context rather than returning a cancelable
// promise; cancelling ctx is this package's equivalent of calling .cancel()
// on the underlying request.
type Transport interface {
	ReceiveMessage(ctx context.Context, in *ReceiveMessageInput) (*ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, in *DeleteMessageBatchInput) (*DeleteMessageBatchOutput, error)
	SendMessage(ctx context.Context, in *SendMessageInput) (*SendMessageOutput, error)
	SendMessageBatch(ctx context.Context, in *SendMessageBatchInput) (*SendMessageBatchOutput, error)
	ChangeMessageVisibility(ctx context.Context, in *ChangeMessageVisibilityInput) (*ChangeMessageVisibilityOutput, error)
	CreateQueue(ctx context.Context, in *CreateQueueInput) (*CreateQueueOutput, error)
	DeleteQueue(ctx context.Context, in *DeleteQueueInput) (*DeleteQueueOutput, error)
	PurgeQueue(ctx context.Context, in *PurgeQueueInput) (*PurgeQueueOutput, error)
	GetQueueURL(ctx context.Context, in *GetQueueURLInput) (*GetQueueURLOutput, error)
	GetQueueAttributes(ctx context.Context, in *GetQueueAttributesInput) (*GetQueueAttributesOutput, error)
}

// EndpointHoster is implemented optionally by a Transport that knows the
// host of the service endpoint it talks to. QueueResolver uses it to
// rewrite a resolved queue URL's host when CorrectQueueURL is set.
type EndpointHoster interface {
	EndpointHost() string
}

// WireMessageAttributeValue is the wire encoding of a message attribute,
// matching SQS's {DataType, StringValue, BinaryValue} shape.
type WireMessageAttributeValue struct {
	DataType    string
	StringValue string
	BinaryValue []byte
}

// WireMessage is a single message as returned by ReceiveMessage.
type WireMessage struct {
	MessageID         string
	ReceiptHandle     string
	Body              string
	Attributes        map[string]string
	MessageAttributes map[string]WireMessageAttributeValue
}

type ReceiveMessageInput struct {
	QueueURL              string
	MaxNumberOfMessages   int32
	WaitTimeSeconds       int32
	VisibilityTimeout     *int32
	MessageAttributeNames []string
	AttributeNames        []string
}

type ReceiveMessageOutput struct {
	Messages []WireMessage
}

type DeleteEntry struct {
	ID            string
	ReceiptHandle string
}

type DeleteMessageBatchInput struct {
	QueueURL string
	Entries  []DeleteEntry
}

type DeleteResultEntry struct {
	ID string
}

type DeleteResultFailure struct {
	ID          string
	Code        string
	Message     string
	SenderFault bool
}

type DeleteMessageBatchOutput struct {
	Successful []DeleteResultEntry
	Failed     []DeleteResultFailure
}

type SendMessageInput struct {
	QueueURL          string
	MessageBody       string
	DelaySeconds      *int32
	MessageAttributes map[string]WireMessageAttributeValue
	MessageGroupID    *string
	DeduplicationID   *string
}

type SendMessageOutput struct {
	MessageID        string
	MD5OfMessageBody string
}

type SendBatchEntry struct {
	ID                string
	MessageBody       string
	DelaySeconds      *int32
	MessageAttributes map[string]WireMessageAttributeValue
	MessageGroupID    *string
	DeduplicationID   *string
}

type SendMessageBatchInput struct {
	QueueURL string
	Entries  []SendBatchEntry
}

type SendResultEntry struct {
	ID               string
	MessageID        string
	MD5OfMessageBody string
}

type SendResultFailure struct {
	ID          string
	Code        string
	Message     string
	SenderFault bool
}

type SendMessageBatchOutput struct {
	Successful []SendResultEntry
	Failed     []SendResultFailure
}

type ChangeMessageVisibilityInput struct {
	QueueURL          string
	ReceiptHandle     string
	VisibilityTimeout int32
}

type ChangeMessageVisibilityOutput struct{}

type CreateQueueInput struct {
	QueueName  string
	Attributes map[string]string
}

type CreateQueueOutput struct {
	QueueURL string
}

type DeleteQueueInput struct {
	QueueURL string
}

type DeleteQueueOutput struct{}

type PurgeQueueInput struct {
	QueueURL string
}

type PurgeQueueOutput struct{}

type GetQueueURLInput struct {
	QueueName              string
	QueueOwnerAWSAccountID string
}

type GetQueueURLOutput struct {
	QueueURL string
}

type GetQueueAttributesInput struct {
	QueueURL       string
	AttributeNames []string
}

type GetQueueAttributesOutput struct {
	Attributes map[string]string
}
