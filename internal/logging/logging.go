// Package logging builds the zap logger used across a sweep and adapts it to
// per-request failure reporting.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/torosent/sweepfire/internal/completion"
	"github.com/torosent/sweepfire/internal/config"
	"github.com/torosent/sweepfire/internal/runner"
)

// New returns a logger writing to w at the configured level and format.
func New(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case config.LogFormatJSON:
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "", config.LogFormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core), nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// FailureLogger reports failed requests through zap. It implements
// runner.FailureLogger.
type FailureLogger struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewFailureLogger logs failures at warn level when verbose is set and at
// debug level otherwise.
func NewFailureLogger(logger *zap.Logger, verbose bool) *FailureLogger {
	level := zapcore.DebugLevel
	if verbose {
		level = zapcore.WarnLevel
	}
	return &FailureLogger{logger: logger, level: level}
}

// With returns a FailureLogger whose entries carry fields.
func (l *FailureLogger) With(fields ...zap.Field) *FailureLogger {
	return &FailureLogger{logger: l.logger.With(fields...), level: l.level}
}

func (l *FailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	ce := l.logger.Check(l.level, "request failed")
	if ce == nil {
		return
	}

	var (
		httpErr      *runner.HTTPError
		transportErr *completion.TransportError
	)
	switch {
	case errors.As(err, &httpErr):
		ce.Write(
			zap.Int("status", httpErr.StatusCode),
			zap.String("body", httpErr.Body),
		)
	case errors.As(err, &transportErr):
		ce.Write(
			zap.String("kind", transportErr.Kind),
			zap.Error(transportErr.Err),
		)
	default:
		ce.Write(zap.Error(err))
	}
}
