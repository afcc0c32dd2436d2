// Package awssqs adapts aws-sdk-go-v2's SQS client to the sqsconsumer
// Transport interface.
package awssqs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/flowmq/sqsconsumer"
)

// Client implements sqsconsumer.Transport over a real *sqs.Client.
type Client struct {
	svc          *sqs.Client
	endpointHost string
}

// New wraps an existing *sqs.Client. endpointHost, if non-empty, is
// returned by EndpointHost for QueueResolver's CorrectQueueURL rewriting.
func New(svc *sqs.Client, endpointHost string) *Client {
	return &Client{svc: svc, endpointHost: endpointHost}
}

// NewFromRegion loads the default AWS config for region and builds a
// Client. It is a convenience for the common case of not needing a custom
// endpoint or credential chain.
func NewFromRegion(ctx context.Context, region string, optFns ...func(*config.LoadOptions) error) (*Client, error) {
	optFns = append([]func(*config.LoadOptions) error{config.WithRegion(region)}, optFns...)
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, err
	}
	return New(sqs.NewFromConfig(cfg), ""), nil
}

// EndpointHost implements sqsconsumer.EndpointHoster.
func (c *Client) EndpointHost() string {
	return c.endpointHost
}

func (c *Client) ReceiveMessage(ctx context.Context, in *sqsconsumer.ReceiveMessageInput) (*sqsconsumer.ReceiveMessageOutput, error) {
	out, err := c.svc.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(in.QueueURL),
		MaxNumberOfMessages:   in.MaxNumberOfMessages,
		WaitTimeSeconds:       in.WaitTimeSeconds,
		VisibilityTimeout:     derefOrZero32(in.VisibilityTimeout),
		MessageAttributeNames: in.MessageAttributeNames,
		AttributeNames:        attributeNames(in.AttributeNames),
	})
	if err != nil {
		return nil, err
	}

	messages := make([]sqsconsumer.WireMessage, len(out.Messages))
	for i, m := range out.Messages {
		messages[i] = sqsconsumer.WireMessage{
			MessageID:         aws.ToString(m.MessageId),
			ReceiptHandle:     aws.ToString(m.ReceiptHandle),
			Body:              aws.ToString(m.Body),
			Attributes:        systemAttributesToMap(m.Attributes),
			MessageAttributes: decodeMessageAttributes(m.MessageAttributes),
		}
	}
	return &sqsconsumer.ReceiveMessageOutput{Messages: messages}, nil
}

func (c *Client) DeleteMessageBatch(ctx context.Context, in *sqsconsumer.DeleteMessageBatchInput) (*sqsconsumer.DeleteMessageBatchOutput, error) {
	entries := make([]types.DeleteMessageBatchRequestEntry, len(in.Entries))
	for i, e := range in.Entries {
		entries[i] = types.DeleteMessageBatchRequestEntry{
			Id:            aws.String(e.ID),
			ReceiptHandle: aws.String(e.ReceiptHandle),
		}
	}

	out, err := c.svc.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(in.QueueURL),
		Entries:  entries,
	})
	if err != nil {
		return nil, err
	}

	result := &sqsconsumer.DeleteMessageBatchOutput{
		Successful: make([]sqsconsumer.DeleteResultEntry, len(out.Successful)),
		Failed:     make([]sqsconsumer.DeleteResultFailure, len(out.Failed)),
	}
	for i, s := range out.Successful {
		result.Successful[i] = sqsconsumer.DeleteResultEntry{ID: aws.ToString(s.Id)}
	}
	for i, f := range out.Failed {
		result.Failed[i] = sqsconsumer.DeleteResultFailure{
			ID:          aws.ToString(f.Id),
			Code:        aws.ToString(f.Code),
			Message:     aws.ToString(f.Message),
			SenderFault: f.SenderFault,
		}
	}
	return result, nil
}

func (c *Client) SendMessage(ctx context.Context, in *sqsconsumer.SendMessageInput) (*sqsconsumer.SendMessageOutput, error) {
	out, err := c.svc.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(in.QueueURL),
		MessageBody:            aws.String(in.MessageBody),
		DelaySeconds:           derefOrZero32(in.DelaySeconds),
		MessageAttributes:      encodeMessageAttributes(in.MessageAttributes),
		MessageGroupId:         in.MessageGroupID,
		MessageDeduplicationId: in.DeduplicationID,
	})
	if err != nil {
		return nil, err
	}
	return &sqsconsumer.SendMessageOutput{
		MessageID:        aws.ToString(out.MessageId),
		MD5OfMessageBody: aws.ToString(out.MD5OfMessageBody),
	}, nil
}

func (c *Client) SendMessageBatch(ctx context.Context, in *sqsconsumer.SendMessageBatchInput) (*sqsconsumer.SendMessageBatchOutput, error) {
	entries := make([]types.SendMessageBatchRequestEntry, len(in.Entries))
	for i, e := range in.Entries {
		entries[i] = types.SendMessageBatchRequestEntry{
			Id:                     aws.String(e.ID),
			MessageBody:            aws.String(e.MessageBody),
			DelaySeconds:           derefOrZero32(e.DelaySeconds),
			MessageAttributes:      encodeMessageAttributes(e.MessageAttributes),
			MessageGroupId:         e.MessageGroupID,
			MessageDeduplicationId: e.DeduplicationID,
		}
	}

	out, err := c.svc.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(in.QueueURL),
		Entries:  entries,
	})
	if err != nil {
		return nil, err
	}

	result := &sqsconsumer.SendMessageBatchOutput{
		Successful: make([]sqsconsumer.SendResultEntry, len(out.Successful)),
		Failed:     make([]sqsconsumer.SendResultFailure, len(out.Failed)),
	}
	for i, s := range out.Successful {
		result.Successful[i] = sqsconsumer.SendResultEntry{
			ID:               aws.ToString(s.Id),
			MessageID:        aws.ToString(s.MessageId),
			MD5OfMessageBody: aws.ToString(s.MD5OfMessageBody),
		}
	}
	for i, f := range out.Failed {
		result.Failed[i] = sqsconsumer.SendResultFailure{
			ID:          aws.ToString(f.Id),
			Code:        aws.ToString(f.Code),
			Message:     aws.ToString(f.Message),
			SenderFault: f.SenderFault,
		}
	}
	return result, nil
}

func (c *Client) ChangeMessageVisibility(ctx context.Context, in *sqsconsumer.ChangeMessageVisibilityInput) (*sqsconsumer.ChangeMessageVisibilityOutput, error) {
	_, err := c.svc.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(in.QueueURL),
		ReceiptHandle:     aws.String(in.ReceiptHandle),
		VisibilityTimeout: in.VisibilityTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &sqsconsumer.ChangeMessageVisibilityOutput{}, nil
}

func (c *Client) CreateQueue(ctx context.Context, in *sqsconsumer.CreateQueueInput) (*sqsconsumer.CreateQueueOutput, error) {
	out, err := c.svc.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  aws.String(in.QueueName),
		Attributes: in.Attributes,
	})
	if err != nil {
		return nil, err
	}
	return &sqsconsumer.CreateQueueOutput{QueueURL: aws.ToString(out.QueueUrl)}, nil
}

func (c *Client) DeleteQueue(ctx context.Context, in *sqsconsumer.DeleteQueueInput) (*sqsconsumer.DeleteQueueOutput, error) {
	if _, err := c.svc.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(in.QueueURL)}); err != nil {
		return nil, err
	}
	return &sqsconsumer.DeleteQueueOutput{}, nil
}

func (c *Client) PurgeQueue(ctx context.Context, in *sqsconsumer.PurgeQueueInput) (*sqsconsumer.PurgeQueueOutput, error) {
	if _, err := c.svc.PurgeQueue(ctx, &sqs.PurgeQueueInput{QueueUrl: aws.String(in.QueueURL)}); err != nil {
		return nil, err
	}
	return &sqsconsumer.PurgeQueueOutput{}, nil
}

func (c *Client) GetQueueURL(ctx context.Context, in *sqsconsumer.GetQueueURLInput) (*sqsconsumer.GetQueueURLOutput, error) {
	req := &sqs.GetQueueUrlInput{QueueName: aws.String(in.QueueName)}
	if in.QueueOwnerAWSAccountID != "" {
		req.QueueOwnerAWSAccountId = aws.String(in.QueueOwnerAWSAccountID)
	}
	out, err := c.svc.GetQueueUrl(ctx, req)
	if err != nil {
		return nil, err
	}
	return &sqsconsumer.GetQueueURLOutput{QueueURL: aws.ToString(out.QueueUrl)}, nil
}

func (c *Client) GetQueueAttributes(ctx context.Context, in *sqsconsumer.GetQueueAttributesInput) (*sqsconsumer.GetQueueAttributesOutput, error) {
	names := make([]types.QueueAttributeName, len(in.AttributeNames))
	for i, n := range in.AttributeNames {
		names[i] = types.QueueAttributeName(n)
	}

	out, err := c.svc.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(in.QueueURL),
		AttributeNames: names,
	})
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]string, len(out.Attributes))
	for k, v := range out.Attributes {
		attrs[k] = v
	}
	return &sqsconsumer.GetQueueAttributesOutput{Attributes: attrs}, nil
}

func attributeNames(names []string) []types.QueueAttributeName {
	if len(names) == 0 {
		return nil
	}
	out := make([]types.QueueAttributeName, len(names))
	for i, n := range names {
		out[i] = types.QueueAttributeName(n)
	}
	return out
}

func systemAttributesToMap(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func decodeMessageAttributes(wire map[string]types.MessageAttributeValue) map[string]sqsconsumer.WireMessageAttributeValue {
	if len(wire) == 0 {
		return nil
	}
	out := make(map[string]sqsconsumer.WireMessageAttributeValue, len(wire))
	for k, v := range wire {
		out[k] = sqsconsumer.WireMessageAttributeValue{
			DataType:    aws.ToString(v.DataType),
			StringValue: aws.ToString(v.StringValue),
			BinaryValue: v.BinaryValue,
		}
	}
	return out
}

func encodeMessageAttributes(attrs map[string]sqsconsumer.WireMessageAttributeValue) map[string]types.MessageAttributeValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String(v.DataType),
			StringValue: aws.String(v.StringValue),
			BinaryValue: v.BinaryValue,
		}
	}
	return out
}

func derefOrZero32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
