// Package logging constructs the process-wide zap logger used by the node,
// the transport, and both CLI front ends.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger at the given level.
// level is parsed by zapcore ("debug", "info", "warn", "error", "dpanic",
// "panic", "fatal", case-insensitive); anything it does not recognise
// falls back to "info".
func New(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Nop returns a logger that discards everything, used in tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}
