// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sqsqueue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// ErrInvalidResultMessage is returned when a received message does not
// satisfy the result-message contract. Such messages are skipped without
// acknowledgement so they remain visible for inspection.
var ErrInvalidResultMessage = errors.New("invalid result message")

// packageIDAttribute is the attribute carrying the DOI on both
// submission and result messages.
const packageIDAttribute = "PackageID"

// EncodeSubmissionAttributes renders submission attributes as SQS
// string-typed message attributes.
func EncodeSubmissionAttributes(attrs types.SubmissionAttributes) map[string]sqstypes.MessageAttributeValue {
	return map[string]sqstypes.MessageAttributeValue{
		packageIDAttribute: {
			DataType:    aws.String("String"),
			StringValue: aws.String(attrs.PackageID),
		},
		"SubmissionSource": {
			DataType:    aws.String("String"),
			StringValue: aws.String(attrs.SubmissionSource),
		},
		"OutputQueue": {
			DataType:    aws.String("String"),
			StringValue: aws.String(attrs.OutputQueue),
		},
	}
}

// EncodeSubmissionBody renders the submission body as its JSON wire form.
func EncodeSubmissionBody(body types.SubmissionBody) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding submission body: %w", err)
	}
	return string(data), nil
}

// ValidateResultMessage checks a received message against the result
// contract: a non-empty PackageID string attribute, a JSON body, and a
// receipt handle. On success it returns the extracted ResultMessage.
func ValidateResultMessage(msg sqstypes.Message) (types.ResultMessage, error) {
	attr, ok := msg.MessageAttributes[packageIDAttribute]
	if !ok || aws.ToString(attr.StringValue) == "" {
		return types.ResultMessage{}, fmt.Errorf("missing PackageID attribute: %w", ErrInvalidResultMessage)
	}

	body := aws.ToString(msg.Body)
	if !json.Valid([]byte(body)) {
		return types.ResultMessage{}, fmt.Errorf("body is not JSON: %w", ErrInvalidResultMessage)
	}

	if aws.ToString(msg.ReceiptHandle) == "" {
		return types.ResultMessage{}, fmt.Errorf("missing receipt handle: %w", ErrInvalidResultMessage)
	}

	return types.ResultMessage{
		PackageID:     aws.ToString(attr.StringValue),
		Body:          body,
		ReceiptHandle: aws.ToString(msg.ReceiptHandle),
	}, nil
}

// ResultSucceeded reports whether a result body describes a successful
// ingest. Any result type other than "error" counts as success. The
// downstream service writes the field as "ResultType"; the lowercase
// form is accepted for forward compatibility.
func ResultSucceeded(body string) bool {
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return false
	}
	resultType, ok := fields["ResultType"]
	if !ok {
		resultType = fields["result_type"]
	}
	if s, isString := resultType.(string); isString {
		return s != "error"
	}
	return true
}
