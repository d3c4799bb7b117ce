package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerAdapter adapts zap.Logger to the ports.Logger interface
type ZapLoggerAdapter struct {
	logger *zap.Logger
	debug  bool
}

// NewZapLogger wraps an existing zap logger. Error chains are rendered only when debug is set.
func NewZapLogger(logger *zap.Logger, debug bool) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: logger, debug: debug}
}

// NewLogger builds the process logger. Production uses the JSON encoder.
// The level is info unless the module debug flag is on.
func NewLogger(environment string, debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	} else {
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

// Zap returns the underlying zap logger for adapters that log directly
func (z *ZapLoggerAdapter) Zap() *zap.Logger {
	return z.logger
}

// Info logs an info message
func (z *ZapLoggerAdapter) Info(msg string, fields ...ports.Field) {
	z.logger.Info(msg, z.convertFields(fields)...)
}

// Error logs an error message
func (z *ZapLoggerAdapter) Error(msg string, fields ...ports.Field) {
	z.logger.Error(msg, z.convertFields(fields)...)
}

// Warn logs a warning message
func (z *ZapLoggerAdapter) Warn(msg string, fields ...ports.Field) {
	z.logger.Warn(msg, z.convertFields(fields)...)
}

// Debug logs a debug message
func (z *ZapLoggerAdapter) Debug(msg string, fields ...ports.Field) {
	z.logger.Debug(msg, z.convertFields(fields)...)
}

func (z *ZapLoggerAdapter) convertFields(fields []ports.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		err, ok := f.Value.(error)
		if !ok {
			zapFields = append(zapFields, zap.Any(f.Key, f.Value))
			continue
		}
		zapFields = append(zapFields, zap.String(f.Key, err.Error()))
		if z.debug {
			if chain := CauseChain(err); chain != "" {
				zapFields = append(zapFields, zap.String(f.Key+"_chain", chain))
			}
		}
	}
	return zapFields
}

// CauseChain renders the wrapped errors below err, one "caused by" line each
func CauseChain(err error) string {
	var b strings.Builder
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "caused by: %s", cause.Error())
	}
	return b.String()
}
