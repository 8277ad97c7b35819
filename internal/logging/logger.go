// Package logging builds the request-scoped logr.Logger used throughout the
// service, bridging go.uber.org/zap the way the teacher's own logging
// package wraps zap for logr consumers.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Development switches to zap's human-readable console encoder.
	Development bool
	// Level is the minimum zapcore.Level to emit (e.g. -1 for debug, 0 for info).
	Level int
}

// NewLogger builds a logr.Logger backed by zap, configured per Options.
func NewLogger(opts Options) logr.Logger {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(opts.Level))

	zl, err := cfg.Build()
	if err != nil {
		// Fall back to a usable logger rather than panicking; construction
		// failures here are configuration mistakes, not runtime faults.
		zl = zap.NewNop()
	}
	return zapr.NewLogger(zl)
}
