// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package listen drains result messages from the output queue and
// settles each DOI's final status in the ledger.
package listen

import (
	"context"
	"errors"

	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/dspace-tools/wiley-deposits/internal/ledger"
	"github.com/dspace-tools/wiley-deposits/internal/sqsqueue"
)

// ResultQueue receives and acknowledges result messages.
type ResultQueue interface {
	Receive(ctx context.Context, max int32) ([]sqstypes.Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Listener settles result messages against the ledger.
type Listener struct {
	Queue          ResultQueue
	Ledger         *ledger.Ledger
	RetryThreshold int
	Logger         *zap.Logger
}

// Summary counts the outcomes of one listen run.
type Summary struct {
	Processed int
	Invalid   int
	Succeeded int
	Retried   int
	Failed    int
}

// Run drains the output queue until a receive returns no messages.
//
// Each valid message updates the ledger first and is deleted only after
// that update succeeds; a crash between the two redelivers the message,
// and settling a result is idempotent, so redelivery converges on the
// same status. Invalid messages are logged and left unacknowledged so
// they stay visible for inspection.
func (l *Listener) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	for {
		messages, err := l.Queue.Receive(ctx, 0)
		if err != nil {
			return summary, err
		}
		if len(messages) == 0 {
			l.Logger.Info("output queue drained",
				zap.Int("processed", summary.Processed),
				zap.Int("invalid", summary.Invalid),
				zap.Int("succeeded", summary.Succeeded),
				zap.Int("retried", summary.Retried),
				zap.Int("failed", summary.Failed))
			return summary, nil
		}
		for _, msg := range messages {
			if err := l.settle(ctx, msg, &summary); err != nil {
				return summary, err
			}
		}
	}
}

// settle applies one message to the ledger and acknowledges it.
func (l *Listener) settle(ctx context.Context, msg sqstypes.Message, summary *Summary) error {
	result, err := sqsqueue.ValidateResultMessage(msg)
	if err != nil {
		summary.Invalid++
		l.Logger.Error("result message rejected", zap.Error(err))
		return nil
	}

	succeeded := sqsqueue.ResultSucceeded(result.Body)
	status, err := l.Ledger.RecordResult(ctx, result.PackageID, succeeded, l.RetryThreshold)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			// A result for a DOI this ledger never issued. Left
			// unacknowledged, like a malformed message.
			summary.Invalid++
			l.Logger.Error("result for unknown doi",
				zap.String("doi", result.PackageID), zap.Error(err))
			return nil
		}
		return err
	}

	summary.Processed++
	switch status {
	case ledger.StatusSuccess:
		summary.Succeeded++
	case ledger.StatusUnprocessed:
		summary.Retried++
	case ledger.StatusFailed:
		summary.Failed++
	}
	l.Logger.Info("result settled",
		zap.String("doi", result.PackageID),
		zap.Bool("succeeded", succeeded),
		zap.String("status", string(status)))

	return l.Queue.Delete(ctx, result.ReceiptHandle)
}
