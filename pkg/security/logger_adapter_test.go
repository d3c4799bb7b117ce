package security

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level, debug bool) (*ZapLoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLogger(zap.New(core), debug), logs
}

func TestCauseChain(t *testing.T) {
	root := errors.New("connection refused")
	err := fmt.Errorf("save transaction: %w", fmt.Errorf("exec: %w", root))

	assert.Equal(t, "caused by: exec: connection refused\ncaused by: connection refused", CauseChain(err))
	assert.Empty(t, CauseChain(root))
}

func TestErrorFields_DebugAddsChain(t *testing.T) {
	logger, logs := observed(zapcore.DebugLevel, true)
	logger.Error("failed", ports.Err(fmt.Errorf("outer: %w", errors.New("inner"))))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "outer: inner", fields["error"])
	assert.Equal(t, "caused by: inner", fields["error_chain"])
}

func TestErrorFields_NoChainWithoutDebug(t *testing.T) {
	logger, logs := observed(zapcore.InfoLevel, false)
	logger.Error("failed", ports.Err(fmt.Errorf("outer: %w", errors.New("inner"))), ports.String("unique_id", "u-1"))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "outer: inner", fields["error"])
	assert.Equal(t, "u-1", fields["unique_id"])
	assert.NotContains(t, fields, "error_chain")
}

func TestNewLogger_LevelFollowsDebugFlag(t *testing.T) {
	quiet, err := NewLogger("production", false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.DebugLevel))

	verbose, err := NewLogger("development", true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
