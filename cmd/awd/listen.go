package main

import (
	"bytes"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dspace-tools/wiley-deposits/internal/ledger"
	"github.com/dspace-tools/wiley-deposits/internal/listen"
	"github.com/dspace-tools/wiley-deposits/internal/logging"
	"github.com/dspace-tools/wiley-deposits/internal/sqsqueue"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Settle ingest results from the DSpace Submission Service",
	Long: `Listen drains the result queue the submission messages named as their
output queue. Each result marks its DOI succeeded, retry-eligible, or, once
the retry threshold is exhausted, permanently failed. Messages are deleted
only after the ledger records the outcome, and the run log is emailed if a
recipient is configured.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := buildConfig()

	var logBuf bytes.Buffer
	runID := uuid.NewString()
	logger := logging.New(cfg.LogLevel, &logBuf).With(zap.String("run_id", runID))
	defer logger.Sync()

	flush := initSentry(cfg.SentryDSN)
	defer flush()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	led, err := ledger.Open(cfg.Ledger.DBPath)
	if err != nil {
		return err
	}
	defer led.Close()

	listener := &listen.Listener{
		Queue:          sqsqueue.New(sqs.NewFromConfig(awsCfg), cfg.Queue.BaseURL, cfg.Queue.OutputQueue),
		Ledger:         led,
		RetryThreshold: cfg.Listen.RetryThreshold,
		Logger:         logger,
	}

	summary, runErr := listener.Run(ctx)
	if runErr != nil {
		sentry.CaptureException(runErr)
		logger.Error("listen run aborted", zap.Error(runErr))
	}

	sendRunLog(ctx, awsCfg, cfg.Email, "listen", runID, &logBuf, logger)

	if runErr != nil {
		return runErr
	}
	if summary.Invalid > 0 {
		return fmt.Errorf("%d invalid result message(s) left on the queue", summary.Invalid)
	}
	return nil
}
