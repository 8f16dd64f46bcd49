package main

import (
	"bytes"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dspace-tools/wiley-deposits/internal/crossref"
	"github.com/dspace-tools/wiley-deposits/internal/deposit"
	"github.com/dspace-tools/wiley-deposits/internal/dspace"
	"github.com/dspace-tools/wiley-deposits/internal/ledger"
	"github.com/dspace-tools/wiley-deposits/internal/logging"
	"github.com/dspace-tools/wiley-deposits/internal/s3store"
	"github.com/dspace-tools/wiley-deposits/internal/sqsqueue"
	"github.com/dspace-tools/wiley-deposits/internal/wiley"
)

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Submit Wiley articles listed in S3 spreadsheets to DSpace",
	Long: `Deposit reads DOI spreadsheets from the configured S3 bucket, registers
each DOI in the local ledger, and runs every unprocessed DOI through the
pipeline: Crossref metadata, article PDF, package upload, and a submission
message to the DSpace Submission Service input queue. Consumed spreadsheets
are archived in the bucket, and the run log is emailed if a recipient is
configured.`,
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)
}

func runDeposit(cmd *cobra.Command, args []string) error {
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

	mapping, err := dspace.LoadMapping(cfg.Deposit.MappingPath)
	if err != nil {
		return err
	}

	store := s3store.New(s3.NewFromConfig(awsCfg), cfg.Deposit.Bucket)
	queue := sqsqueue.New(sqs.NewFromConfig(awsCfg), cfg.Queue.BaseURL, cfg.Queue.InputQueue)

	depositor := &deposit.Depositor{
		Ledger:      led,
		Metadata:    crossref.NewClient(cfg.Crossref),
		Content:     wiley.NewClient(cfg.Wiley),
		Store:       store,
		Queue:       queue,
		Mapping:     mapping,
		OutputQueue: cfg.Queue.OutputQueue,
		Cfg:         cfg.Deposit,
		Logger:      logger,
	}

	result, runErr := depositor.Run(ctx, store)
	if runErr != nil {
		sentry.CaptureException(runErr)
		logger.Error("deposit run aborted", zap.Error(runErr))
	}

	sendRunLog(ctx, awsCfg, cfg.Email, "deposit", runID, &logBuf, logger)

	if runErr != nil {
		return runErr
	}
	if result.HasFailures() {
		return fmt.Errorf("%d doi(s) failed deposit", result.Failed)
	}
	return nil
}
