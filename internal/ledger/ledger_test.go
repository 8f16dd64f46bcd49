// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDOI = "10.1002/term.3131"

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "awd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestEnsureRegisteredIdempotent(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	require.NoError(t, l.EnsureRegistered(ctx, testDOI))
	require.NoError(t, l.EnsureRegistered(ctx, testDOI))

	records, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, testDOI, records[0].DOI)
	assert.Equal(t, StatusUnprocessed, records[0].Status)
	assert.Equal(t, 0, records[0].Attempts)
	assert.False(t, records[0].LastModified.IsZero())
}

func TestEnsureRegisteredDoesNotResetExisting(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	require.NoError(t, l.EnsureRegistered(ctx, testDOI))
	_, err := l.AdmitForProcessing(ctx, testDOI)
	require.NoError(t, err)
	require.NoError(t, l.MarkSent(ctx, testDOI))

	// A later run encountering the same DOI must not touch the record.
	require.NoError(t, l.EnsureRegistered(ctx, testDOI))

	rec, err := l.Get(ctx, testDOI)
	require.NoError(t, err)
	assert.Equal(t, StatusMessageSent, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
}

func TestAdmitForProcessing(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		wantErr   error
		wantCount int
	}{
		{"unprocessed is admitted", StatusUnprocessed, nil, 1},
		{"message_sent is rejected", StatusMessageSent, ErrNotEligible, 0},
		{"success is rejected", StatusSuccess, ErrNotEligible, 0},
		{"failed is rejected", StatusFailed, ErrNotEligible, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := openTestLedger(t)
			require.NoError(t, l.EnsureRegistered(ctx, testDOI))
			if tt.status != StatusUnprocessed {
				require.NoError(t, l.setStatus(ctx, testDOI, tt.status))
			}

			attempts, err := l.AdmitForProcessing(ctx, testDOI)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, attempts)

			rec, err := l.Get(ctx, testDOI)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, rec.Attempts)
			assert.Equal(t, StatusUnprocessed, rec.Status)
		})
	}
}

func TestAdmitForProcessingUnknownDOI(t *testing.T) {
	l := openTestLedger(t)
	_, err := l.AdmitForProcessing(context.Background(), "10.9999/nope")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestAdmitForProcessingConcurrent checks that the compare-and-swap never
// loses an increment: the final attempt count must exactly equal the
// number of callers that were admitted.
func TestAdmitForProcessingConcurrent(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	require.NoError(t, l.EnsureRegistered(ctx, testDOI))

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AdmitForProcessing(ctx, testDOI)
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrNotEligible) {
				t.Errorf("unexpected admission error: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := l.Get(ctx, testDOI)
	require.NoError(t, err)
	assert.Equal(t, admitted, rec.Attempts)
	assert.Positive(t, admitted)
}

func TestMarkSent(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	require.NoError(t, l.EnsureRegistered(ctx, testDOI))

	require.NoError(t, l.MarkSent(ctx, testDOI))

	rec, err := l.Get(ctx, testDOI)
	require.NoError(t, err)
	assert.Equal(t, StatusMessageSent, rec.Status)

	// Already sent: the transition is no longer legal.
	err = l.MarkSent(ctx, testDOI)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordResultRetryBound(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		threshold int
		succeeded bool
		want      Status
	}{
		{"success is terminal", 1, 10, true, StatusSuccess},
		{"error below threshold retries", 3, 10, false, StatusUnprocessed},
		{"error at threshold fails", 10, 10, false, StatusFailed},
		{"error above threshold fails", 11, 10, false, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := openTestLedger(t)
			require.NoError(t, l.EnsureRegistered(ctx, testDOI))
			for i := 0; i < tt.attempts; i++ {
				_, err := l.AdmitForProcessing(ctx, testDOI)
				require.NoError(t, err)
			}
			require.NoError(t, l.MarkSent(ctx, testDOI))

			got, err := l.RecordResult(ctx, testDOI, tt.succeeded, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			rec, err := l.Get(ctx, testDOI)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Status)
			assert.Equal(t, tt.attempts, rec.Attempts)
		})
	}
}

func TestRecordResultConvergesOnRedelivery(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	require.NoError(t, l.EnsureRegistered(ctx, testDOI))
	_, err := l.AdmitForProcessing(ctx, testDOI)
	require.NoError(t, err)
	require.NoError(t, l.MarkSent(ctx, testDOI))

	for i := 0; i < 3; i++ {
		got, err := l.RecordResult(ctx, testDOI, true, 10)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, got)
	}

	rec, err := l.Get(ctx, testDOI)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
}

func TestRecordResultUnknownDOI(t *testing.T) {
	l := openTestLedger(t)
	_, err := l.RecordResult(context.Background(), "10.9999/nope", false, 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListUnprocessed(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	dois := []string{"10.1002/b", "10.1002/a", "10.1002/c", "10.1002/d"}
	for _, doi := range dois {
		require.NoError(t, l.EnsureRegistered(ctx, doi))
	}
	require.NoError(t, l.MarkSent(ctx, "10.1002/c"))
	require.NoError(t, l.setStatus(ctx, "10.1002/d", StatusFailed))

	got, err := l.ListUnprocessed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1002/a", "10.1002/b"}, got)
}
