package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"go.uber.org/zap"

	"github.com/dspace-tools/wiley-deposits/internal/report"
	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// sendRunLog emails the captured run log via SES. Skipped when no
// recipient is configured; a send failure is logged, not returned, since
// the run itself already finished.
func sendRunLog(ctx context.Context, awsCfg aws.Config, email types.EmailConfig, run, runID string, logBuf *bytes.Buffer, logger *zap.Logger) {
	if email.SourceAddress == "" || email.RecipientAddress == "" {
		return
	}
	date := time.Now().UTC().Format("2006-01-02")
	subject := fmt.Sprintf("Automated Wiley deposits %s run, %s (%s)", run, date, runID)
	attachment := fmt.Sprintf("awd-%s-%s.log", run, date)

	mailer := report.NewMailer(ses.NewFromConfig(awsCfg), email)
	if err := mailer.SendLog(ctx, subject, attachment, logBuf.Bytes()); err != nil {
		logger.Error("run log email failed", zap.Error(err))
		return
	}
	logger.Info("run log emailed", zap.String("recipient", email.RecipientAddress))
}
