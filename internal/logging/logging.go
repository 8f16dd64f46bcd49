// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the application logger. Every run logs to
// stderr and, when a capture writer is supplied, to that writer as well;
// the captured text becomes the end-of-run email report.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at the named level (debug, info, warn, or error;
// anything else means info). When capture is non-nil, log output is
// teed into it in the same console encoding.
func New(level string, capture io.Writer) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	lvl := parseLevel(level)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl),
	}
	if capture != nil {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(capture), lvl))
	}
	return zap.New(zapcore.NewTee(cores...))
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
