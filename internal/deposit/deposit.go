// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deposit drives DOIs through the submission pipeline: metadata
// fetch, transform, content fetch, package upload, and the submission
// message handoff, with the ledger consulted before and after.
package deposit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dspace-tools/wiley-deposits/internal/dspace"
	"github.com/dspace-tools/wiley-deposits/internal/ledger"
	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// submissionSource tags every submission message from this application.
const submissionSource = "wiley"

// ErrInfrastructure marks failures of shared collaborators: the ledger,
// the package store, or the submission channel. A batch aborts on them,
// since no DOI can make progress past a dead collaborator.
var ErrInfrastructure = errors.New("infrastructure failure")

// MetadataFetcher returns the bibliographic record for a DOI.
type MetadataFetcher interface {
	Fetch(ctx context.Context, doi string) (*types.Work, error)
}

// ContentFetcher returns the article PDF for a DOI.
type ContentFetcher interface {
	Fetch(ctx context.Context, doi string) ([]byte, error)
}

// PackageStore durably stores package files under derived keys.
type PackageStore interface {
	Put(ctx context.Context, key string, body []byte) error
	URI(key string) string
}

// SubmissionSender hands a submission message to the downstream service.
type SubmissionSender interface {
	Send(ctx context.Context, msg types.SubmissionMessage) error
}

// Depositor processes DOIs. All collaborators are required.
type Depositor struct {
	Ledger   *ledger.Ledger
	Metadata MetadataFetcher
	Content  ContentFetcher
	Store    PackageStore
	Queue    SubmissionSender
	Mapping  dspace.Mapping

	// OutputQueue names the queue the downstream service must publish
	// the result to; it is carried in every submission's attributes.
	OutputQueue string

	Cfg    types.DepositConfig
	Logger *zap.Logger
}

// BatchResult summarizes one deposit batch.
type BatchResult struct {
	Deposited int
	Skipped   int
	Failed    int
}

// Total returns the number of DOIs examined.
func (r BatchResult) Total() int {
	return r.Deposited + r.Skipped + r.Failed
}

// HasFailures reports whether any DOI failed its pipeline.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// PackageStem derives the object key stem for a DOI by replacing each
// "/" with "-", e.g. "10.1002/term.3131" to "10.1002-term.3131". The
// derivation is deterministic so retries address the same objects.
func PackageStem(doi string) string {
	return strings.ReplaceAll(doi, "/", "-")
}

// ProcessDOI drives one DOI through the pipeline once.
//
// The DOI is admitted (attempt counted) before any network fetch, but
// its status stays unprocessed until the submission message is actually
// enqueued, so a fetch or transform failure burns one attempt and
// leaves the DOI eligible for a later pass rather than stranding it in
// an in-flight state.
func (d *Depositor) ProcessDOI(ctx context.Context, doi string) error {
	if err := d.Ledger.EnsureRegistered(ctx, doi); err != nil {
		return infra("registering doi", err)
	}

	attempts, err := d.Ledger.AdmitForProcessing(ctx, doi)
	if err != nil {
		if errors.Is(err, ledger.ErrNotEligible) {
			return err
		}
		return infra("admitting doi", err)
	}
	d.Logger.Debug("doi admitted", zap.String("doi", doi), zap.Int("attempts", attempts))

	work, err := d.Metadata.Fetch(ctx, doi)
	if err != nil {
		return fmt.Errorf("fetching metadata: %w", err)
	}

	metadata, err := dspace.Transform(work, d.Mapping)
	if err != nil {
		return fmt.Errorf("transforming metadata: %w", err)
	}

	content, err := d.Content.Fetch(ctx, doi)
	if err != nil {
		return fmt.Errorf("fetching content: %w", err)
	}

	stem := PackageStem(doi)
	metadataKey := stem + ".json"
	contentKey := stem + ".pdf"

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := d.Store.Put(ctx, metadataKey, metadataJSON); err != nil {
		return infra("uploading metadata", err)
	}
	if err := d.Store.Put(ctx, contentKey, content); err != nil {
		return infra("uploading content", err)
	}

	msg := types.SubmissionMessage{
		Attributes: types.SubmissionAttributes{
			PackageID:        doi,
			SubmissionSource: submissionSource,
			OutputQueue:      d.OutputQueue,
		},
		Body: types.SubmissionBody{
			SubmissionSystem: d.Cfg.SubmissionSystem,
			CollectionHandle: d.Cfg.CollectionHandle,
			MetadataLocation: d.Store.URI(metadataKey),
			Files: []types.SubmissionFile{{
				BitstreamName: contentKey,
				FileLocation:  d.Store.URI(contentKey),
			}},
		},
	}
	if err := d.Queue.Send(ctx, msg); err != nil {
		return infra("sending submission", err)
	}

	if err := d.Ledger.MarkSent(ctx, doi); err != nil {
		return infra("marking doi sent", err)
	}
	d.Logger.Info("submission sent",
		zap.String("doi", doi),
		zap.String("metadata", msg.Body.MetadataLocation),
		zap.String("bitstream", contentKey))
	return nil
}

// ProcessBatch processes each DOI in turn. A failure local to one DOI is
// logged and the batch continues; an infrastructure failure aborts the
// remaining work and is returned alongside the partial result.
func (d *Depositor) ProcessBatch(ctx context.Context, dois []string) (BatchResult, error) {
	var result BatchResult
	for _, doi := range dois {
		err := d.ProcessDOI(ctx, doi)
		switch {
		case err == nil:
			result.Deposited++
		case errors.Is(err, ledger.ErrNotEligible):
			d.Logger.Debug("doi skipped", zap.String("doi", doi), zap.Error(err))
			result.Skipped++
		case errors.Is(err, ErrInfrastructure):
			d.Logger.Error("batch aborted", zap.String("doi", doi), zap.Error(err))
			result.Failed++
			return result, err
		default:
			d.Logger.Error("doi failed", zap.String("doi", doi), zap.Error(err))
			result.Failed++
		}
	}
	return result, nil
}

func infra(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInfrastructure, err)
}
