// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCapturesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	logger.Info("run completed", zap.String("doi", "10.1002/term.3131"))
	logger.Sync()

	out := buf.String()
	assert.Contains(t, out, "run completed")
	assert.Contains(t, out, "10.1002/term.3131")
	assert.Contains(t, out, "INFO")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("error", &buf)

	logger.Info("quiet")
	logger.Error("loud")
	logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}
