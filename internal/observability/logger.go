package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/riskibarqy/plus-predictor/internal/config"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

var logEncoderConfig = zapcore.EncoderConfig{
	TimeKey:        "time",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	FunctionKey:    zapcore.OmitKey,
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// NewLogger builds the process logger. Entries always go to stdout as JSON;
// Better Stack shipping and OpenTelemetry log export are added when enabled.
// The returned shutdown drains queued entries.
func NewLogger(cfg config.Config, stdout io.Writer) (*logging.Logger, func(context.Context) error, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(logEncoderConfig), zapcore.Lock(zapcore.AddSync(stdout)), cfg.LogLevel),
	}

	var shipper *betterStackWriteSyncer
	if cfg.BetterStackEnabled {
		endpoint := normalizeBetterStackEndpoint(cfg.BetterStackEndpoint)
		if endpoint == "" {
			return nil, nil, fmt.Errorf("betterstack endpoint cannot be empty")
		}
		shipper = newBetterStackWriteSyncer(endpoint, strings.TrimSpace(cfg.BetterStackToken), cfg.BetterStackTimeout)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(logEncoderConfig), shipper, cfg.BetterStackMinLevel))
	}
	if cfg.UptraceEnabled && cfg.UptraceLogsEnabled {
		cores = append(cores, newOTelLogCore(cfg.ServiceVersion, cfg.LogLevel))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).With(zap.String("service", cfg.ServiceName), zap.String("env", cfg.AppEnv))
	logger := logging.FromZap(z)

	logger.Info("logger configured",
		"level", cfg.LogLevel.String(),
		"betterstack", shipper != nil,
		"otel_logs", cfg.UptraceEnabled && cfg.UptraceLogsEnabled,
	)

	return logger, func(ctx context.Context) error {
		if shipper != nil {
			if _, hasDeadline := ctx.Deadline(); !hasDeadline {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
			}
			if err := shipper.Close(ctx); err != nil {
				return fmt.Errorf("drain betterstack queue: %w", err)
			}
		}
		if err := logger.Sync(); err != nil && !isIgnorableLoggerSyncError(err) {
			return err
		}
		return nil
	}, nil
}

func isIgnorableLoggerSyncError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad file descriptor") || strings.Contains(msg, "invalid argument")
}
