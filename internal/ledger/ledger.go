// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists the per-DOI processing state that gates the
// deposit workflow. It is the single source of truth for whether a DOI
// should be attempted, how many attempts it has consumed, and how the
// asynchronous submission result folded back into its status.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no record exists for the requested DOI.
var ErrNotFound = errors.New("doi not found in ledger")

// ErrNotEligible is returned by AdmitForProcessing when the DOI is not in
// the unprocessed state, or when a concurrent caller won the admission.
var ErrNotEligible = errors.New("doi not eligible for processing")

// ErrInvalidTransition is returned when a requested status change is not
// a legal edge of the state machine.
var ErrInvalidTransition = errors.New("invalid ledger status transition")

// Record is one row of the ledger: a DOI, its workflow status, the number
// of process attempts consumed, and the time of the last mutation.
type Record struct {
	DOI          string
	Status       Status
	Attempts     int
	LastModified time.Time
}

// Ledger is a SQLite-backed DOI ledger. All mutations are single short
// transactions; records are never deleted, so the table doubles as an
// audit trail.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at dbPath, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Ledger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS dois (
		doi TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_modified TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// EnsureRegistered creates a record for doi with status unprocessed and
// zero attempts if none exists. Calling it repeatedly for the same DOI
// has no effect beyond the first call.
func (l *Ledger) EnsureRegistered(ctx context.Context, doi string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO dois (doi, status, attempts, last_modified)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT(doi) DO NOTHING`,
		doi, StatusUnprocessed, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("registering %s: %w", doi, err)
	}
	return nil
}

// Get returns the record for doi, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, doi string) (Record, error) {
	var (
		rec    Record
		status string
		mod    string
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT doi, status, attempts, last_modified FROM dois WHERE doi = ?`, doi,
	).Scan(&rec.DOI, &status, &rec.Attempts, &mod)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%s: %w", doi, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", doi, err)
	}

	rec.Status, err = ParseStatus(status)
	if err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", doi, err)
	}
	if t, parseErr := time.Parse(time.RFC3339, mod); parseErr == nil {
		rec.LastModified = t
	}
	return rec, nil
}

// AdmitForProcessing gates one processing attempt for doi. It fails with
// ErrNotEligible unless the record is currently unprocessed; on success
// it increments the attempt counter and returns the new count.
//
// The increment is a compare-and-swap on the attempt counter, so two
// concurrent callers can never both be admitted for the same DOI: the
// loser's update matches zero rows and reports ErrNotEligible.
func (l *Ledger) AdmitForProcessing(ctx context.Context, doi string) (int, error) {
	rec, err := l.Get(ctx, doi)
	if err != nil {
		return 0, err
	}
	if rec.Status != StatusUnprocessed {
		return 0, fmt.Errorf("%s has status %s: %w", doi, rec.Status, ErrNotEligible)
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE dois SET attempts = attempts + 1, last_modified = ?
		 WHERE doi = ? AND status = ? AND attempts = ?`,
		nowUTC(), doi, StatusUnprocessed, rec.Attempts,
	)
	if err != nil {
		return 0, fmt.Errorf("admitting %s: %w", doi, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("admitting %s: %w", doi, err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("%s admission lost to a concurrent caller: %w", doi, ErrNotEligible)
	}
	return rec.Attempts + 1, nil
}

// MarkSent transitions doi from unprocessed to message_sent. It is called
// only after the submission message has actually been enqueued.
func (l *Ledger) MarkSent(ctx context.Context, doi string) error {
	return l.transition(ctx, doi, StatusUnprocessed, StatusMessageSent)
}

// RecordResult folds a downstream result into the ledger. A successful
// result makes doi terminal success. An error result sends doi back to
// unprocessed for a later pass, unless its attempts have reached
// retryThreshold, in which case it is terminal failed.
//
// The write converges on redelivery: applying the same result twice
// leaves the record in the same state, which keeps the at-least-once
// channel safe.
func (l *Ledger) RecordResult(ctx context.Context, doi string, succeeded bool, retryThreshold int) (Status, error) {
	if succeeded {
		if err := l.setStatus(ctx, doi, StatusSuccess); err != nil {
			return "", err
		}
		return StatusSuccess, nil
	}

	rec, err := l.Get(ctx, doi)
	if err != nil {
		return "", err
	}

	target := StatusUnprocessed
	if rec.Attempts >= retryThreshold {
		target = StatusFailed
	}
	if err := l.setStatus(ctx, doi, target); err != nil {
		return "", err
	}
	return target, nil
}

// ListUnprocessed returns every DOI currently in unprocessed status, in
// lexical order. A deposit run uses this to pick up both fresh DOIs and
// retry-eligible ones.
func (l *Ledger) ListUnprocessed(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT doi FROM dois WHERE status = ? ORDER BY doi`, StatusUnprocessed)
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed dois: %w", err)
	}
	defer rows.Close()

	var dois []string
	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			return nil, fmt.Errorf("scanning doi: %w", err)
		}
		dois = append(dois, doi)
	}
	return dois, rows.Err()
}

// List returns every ledger record, in lexical DOI order.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT doi, status, attempts, last_modified FROM dois ORDER BY doi`)
	if err != nil {
		return nil, fmt.Errorf("listing ledger records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec    Record
			status string
			mod    string
		)
		if err := rows.Scan(&rec.DOI, &status, &rec.Attempts, &mod); err != nil {
			return nil, fmt.Errorf("scanning ledger record: %w", err)
		}
		rec.Status, err = ParseStatus(status)
		if err != nil {
			return nil, err
		}
		if t, parseErr := time.Parse(time.RFC3339, mod); parseErr == nil {
			rec.LastModified = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// transition applies the edge from -> to, failing with
// ErrInvalidTransition if the record is not currently in from.
func (l *Ledger) transition(ctx context.Context, doi string, from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE dois SET status = ?, last_modified = ? WHERE doi = ? AND status = ?`,
		to, nowUTC(), doi, from,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", doi, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", doi, err)
	}
	if affected == 0 {
		rec, getErr := l.Get(ctx, doi)
		if getErr != nil {
			return getErr
		}
		return fmt.Errorf("%s is %s, not %s: %w", doi, rec.Status, from, ErrInvalidTransition)
	}
	return nil
}

// setStatus writes a result status unconditionally. Used only by
// RecordResult, whose targets are all legal from message_sent and whose
// redelivered duplicates must converge rather than error.
func (l *Ledger) setStatus(ctx context.Context, doi string, to Status) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE dois SET status = ?, last_modified = ? WHERE doi = ?`,
		to, nowUTC(), doi,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", doi, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", doi, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", doi, ErrNotFound)
	}
	return nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
