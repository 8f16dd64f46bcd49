// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sqsqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

const testBaseURL = "https://queue.example.com/123456789012/"

// fakeSQS is an in-memory queue implementing the api interface.
type fakeSQS struct {
	sent    []sqs.SendMessageInput
	pending []sqstypes.Message
	deleted []string
	sendErr error
	recvErr error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, *in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	n := int(in.MaxNumberOfMessages)
	if n > len(f.pending) {
		n = len(f.pending)
	}
	batch := f.pending[:n]
	f.pending = f.pending[n:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func sampleSubmission() types.SubmissionMessage {
	return types.SubmissionMessage{
		Attributes: types.SubmissionAttributes{
			PackageID:        "10.1002/term.3131",
			SubmissionSource: "wiley",
			OutputQueue:      "dss-output",
		},
		Body: types.SubmissionBody{
			SubmissionSystem: "DSpace@MIT",
			CollectionHandle: "123.4/5678",
			MetadataLocation: "s3://awd/10.1002-term.3131.json",
			Files: []types.SubmissionFile{{
				BitstreamName: "10.1002-term.3131.pdf",
				FileLocation:  "s3://awd/10.1002-term.3131.pdf",
			}},
		},
	}
}

func TestSend(t *testing.T) {
	fake := &fakeSQS{}
	q := New(fake, testBaseURL, "dss-input")

	require.NoError(t, q.Send(context.Background(), sampleSubmission()))
	require.Len(t, fake.sent, 1)

	in := fake.sent[0]
	assert.Equal(t, testBaseURL+"dss-input", aws.ToString(in.QueueUrl))

	attrs := in.MessageAttributes
	assert.Equal(t, "10.1002/term.3131", aws.ToString(attrs["PackageID"].StringValue))
	assert.Equal(t, "String", aws.ToString(attrs["PackageID"].DataType))
	assert.Equal(t, "wiley", aws.ToString(attrs["SubmissionSource"].StringValue))
	assert.Equal(t, "dss-output", aws.ToString(attrs["OutputQueue"].StringValue))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body))
	assert.Equal(t, "DSpace@MIT", body["SubmissionSystem"])
	assert.Equal(t, "123.4/5678", body["CollectionHandle"])
	assert.Equal(t, "s3://awd/10.1002-term.3131.json", body["MetadataLocation"])

	files, ok := body["Files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 1)
	file := files[0].(map[string]any)
	assert.Equal(t, "10.1002-term.3131.pdf", file["BitstreamName"])
	assert.Equal(t, "s3://awd/10.1002-term.3131.pdf", file["FileLocation"])
	assert.Nil(t, file["BitstreamDescription"])
}

func TestSendError(t *testing.T) {
	fake := &fakeSQS{sendErr: fmt.Errorf("queue does not exist")}
	q := New(fake, testBaseURL, "dss-input")

	err := q.Send(context.Background(), sampleSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dss-input")
}

func TestReceiveDrainsInBatches(t *testing.T) {
	fake := &fakeSQS{}
	for i := 0; i < 12; i++ {
		fake.pending = append(fake.pending, sqstypes.Message{
			Body:          aws.String(`{"ResultType":"success"}`),
			ReceiptHandle: aws.String(fmt.Sprintf("rh-%d", i)),
		})
	}
	q := New(fake, testBaseURL, "dss-output")

	ctx := context.Background()
	first, err := q.Receive(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, first, 10)

	second, err := q.Receive(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, second, 2)

	third, err := q.Receive(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestDelete(t *testing.T) {
	fake := &fakeSQS{}
	q := New(fake, testBaseURL, "dss-output")

	require.NoError(t, q.Delete(context.Background(), "rh-1"))
	assert.Equal(t, []string{"rh-1"}, fake.deleted)
}
