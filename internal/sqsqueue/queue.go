// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sqsqueue is the submission channel between this application
// and the DSpace Submission Service: it sends submission requests to the
// input queue and drains asynchronous results from the output queue.
package sqsqueue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// maxReceiveBatch is the SQS ceiling on messages per receive call.
const maxReceiveBatch = 10

// api is the subset of the SQS client the queue uses. Tests substitute
// an in-memory implementation.
type api interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Queue wraps one named SQS queue.
type Queue struct {
	client  api
	baseURL string
	name    string
}

// New returns a Queue for baseURL+name.
func New(client api, baseURL, name string) *Queue {
	return &Queue{client: client, baseURL: baseURL, name: name}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// URL returns the full queue URL.
func (q *Queue) URL() string {
	return q.baseURL + q.name
}

// Send enqueues a submission message. Delivery is at-least-once; the
// downstream service publishes exactly one result per PackageID to the
// output queue named in the attributes.
func (q *Queue) Send(ctx context.Context, msg types.SubmissionMessage) error {
	body, err := EncodeSubmissionBody(msg.Body)
	if err != nil {
		return err
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(q.URL()),
		MessageBody:       aws.String(body),
		MessageAttributes: EncodeSubmissionAttributes(msg.Attributes),
	})
	if err != nil {
		return fmt.Errorf("sending submission for %s to %s: %w", msg.Attributes.PackageID, q.name, err)
	}
	return nil
}

// Receive fetches up to max available messages in a single call. It does
// not wait for more: an empty slice means the queue is drained for now,
// and the caller's own loop decides whether to call again.
func (q *Queue) Receive(ctx context.Context, max int32) ([]sqstypes.Message, error) {
	if max <= 0 || max > maxReceiveBatch {
		max = maxReceiveBatch
	}
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(q.URL()),
		MaxNumberOfMessages:   max,
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiving from %s: %w", q.name, err)
	}
	return out.Messages, nil
}

// Delete acknowledges a message so it is not redelivered. Callers must
// delete only after the corresponding ledger update has durably
// succeeded.
func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.URL()),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("deleting message from %s: %w", q.name, err)
	}
	return nil
}
