// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deposit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspace-tools/wiley-deposits/internal/ledger"
)

// fakeSource serves spreadsheets from memory and records archives.
type fakeSource struct {
	sheets   map[string][]byte
	archived []string
	pingErr  error
}

func (f *fakeSource) Ping(_ context.Context) error {
	return f.pingErr
}

func (f *fakeSource) ListKeysWithSuffix(_ context.Context, suffix, _ string) ([]string, error) {
	var keys []string
	for key := range f.sheets {
		if strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeSource) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.sheets[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return data, nil
}

func (f *fakeSource) Archive(_ context.Context, key, prefix string) error {
	f.archived = append(f.archived, prefix+"/"+key)
	delete(f.sheets, key)
	return nil
}

func TestRunProcessesSpreadsheetDOIs(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	source := &fakeSource{sheets: map[string][]byte{
		"doi_batch_1.csv": []byte("DOI\n10.1002/term.3131\n10.1002/other\n"),
		"notes.txt":       []byte("not a spreadsheet"),
	}}

	result, err := p.depositor.Run(ctx, source)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deposited)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, p.sender.sent, 2)

	assert.Equal(t, []string{"archived/doi_batch_1.csv"}, source.archived)
	assert.Contains(t, source.sheets, "notes.txt")
}

func TestRunRetriesEligibleDOIsWithoutSpreadsheet(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	// A DOI from an earlier run that failed once: still unprocessed,
	// one attempt on the books, its spreadsheet long archived.
	require.NoError(t, p.ledger.EnsureRegistered(ctx, testDOI))
	_, err := p.ledger.AdmitForProcessing(ctx, testDOI)
	require.NoError(t, err)

	result, err := p.depositor.Run(ctx, &fakeSource{sheets: map[string][]byte{}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deposited)

	rec, err := p.ledger.Get(ctx, testDOI)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusMessageSent, rec.Status)
	assert.Equal(t, 2, rec.Attempts)
}

func TestRunAbortsWhenSourceUnreachable(t *testing.T) {
	p := newPipeline(t)
	source := &fakeSource{pingErr: fmt.Errorf("AccessDenied")}

	_, err := p.depositor.Run(context.Background(), source)
	require.ErrorIs(t, err, ErrInfrastructure)
	assert.Empty(t, p.sender.sent)
}

func TestReadDOIs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "header and rows",
			input: "DOI\n10.1002/term.3131\n10.1002/other\n",
			want:  []string{"10.1002/term.3131", "10.1002/other"},
		},
		{
			name:  "bom and blank lines",
			input: "\ufeffdoi\r\n10.1002/term.3131\r\n\r\n",
			want:  []string{"10.1002/term.3131"},
		},
		{
			name:  "no header",
			input: "10.1002/term.3131\n",
			want:  []string{"10.1002/term.3131"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDOIs(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
