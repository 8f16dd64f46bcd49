// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deposit

import (
	"bytes"
	"context"

	"go.uber.org/zap"
)

// spreadsheet handling constants shared with the bucket layout.
const (
	spreadsheetSuffix = ".csv"
	archivedPrefix    = "archived"
)

// SpreadsheetSource lists, reads, and archives the DOI spreadsheets that
// seed a run.
type SpreadsheetSource interface {
	Ping(ctx context.Context) error
	ListKeysWithSuffix(ctx context.Context, suffix, excludedPrefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Archive(ctx context.Context, key, archivedPrefix string) error
}

// Run executes one full deposit pass: register every DOI found in the
// source's unarchived spreadsheets, process everything the ledger
// considers unprocessed (fresh DOIs plus retry-eligible ones), then
// archive the consumed spreadsheets.
func (d *Depositor) Run(ctx context.Context, source SpreadsheetSource) (BatchResult, error) {
	if err := source.Ping(ctx); err != nil {
		return BatchResult{}, infra("checking bucket access", err)
	}

	keys, err := source.ListKeysWithSuffix(ctx, spreadsheetSuffix, archivedPrefix)
	if err != nil {
		return BatchResult{}, infra("listing spreadsheets", err)
	}

	for _, key := range keys {
		data, err := source.Get(ctx, key)
		if err != nil {
			return BatchResult{}, infra("reading spreadsheet", err)
		}
		dois, err := ReadDOIs(bytes.NewReader(data))
		if err != nil {
			return BatchResult{}, infra("parsing spreadsheet", err)
		}
		d.Logger.Info("spreadsheet read", zap.String("key", key), zap.Int("dois", len(dois)))
		for _, doi := range dois {
			if err := d.Ledger.EnsureRegistered(ctx, doi); err != nil {
				return BatchResult{}, infra("registering doi", err)
			}
		}
	}

	pending, err := d.Ledger.ListUnprocessed(ctx)
	if err != nil {
		return BatchResult{}, infra("listing unprocessed dois", err)
	}

	result, err := d.ProcessBatch(ctx, pending)
	if err != nil {
		return result, err
	}

	for _, key := range keys {
		if err := source.Archive(ctx, key, archivedPrefix); err != nil {
			// The spreadsheet will be reprocessed next run; registration
			// and admission are idempotent, so this only costs time.
			d.Logger.Error("spreadsheet archive failed", zap.String("key", key), zap.Error(err))
			continue
		}
		d.Logger.Debug("spreadsheet archived", zap.String("key", key))
	}

	d.Logger.Info("submission run completed",
		zap.Int("deposited", result.Deposited),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}
