package monitoring

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/logger"
)

type zapLogger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

// NewZapLogger builds the production logger from the log configuration.
// Fields carrying credentials or key material are masked before they
// reach the sink.
func NewZapLogger(cfg *config.LogConfig) (logger.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console", "text":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	sink, err := openSink(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	parsed, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	level := zap.NewAtomicLevelAt(parsed)

	core := zapcore.NewCore(encoder, sink, level)
	return &zapLogger{
		zl:    zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)),
		level: level,
	}, nil
}

func openSink(path string) (zapcore.WriteSyncer, error) {
	switch path {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output %s: %w", path, err)
		}
		return zapcore.AddSync(f), nil
	}
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {
	l.zl.Debug(msg, l.convert(ctx, fields)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Field) {
	l.zl.Info(msg, l.convert(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	l.zl.Warn(msg, l.convert(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Field) {
	zapFields := l.convert(ctx, fields)
	if err != nil {
		zapFields = append(zapFields, zap.String("error", err.Error()))
	}
	l.zl.Error(msg, zapFields...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Field) {
	zapFields := l.convert(ctx, fields)
	if err != nil {
		zapFields = append(zapFields, zap.String("error", err.Error()))
	}
	l.zl.Fatal(msg, zapFields...)
}

func (l *zapLogger) WithFields(fields ...logger.Field) logger.Logger {
	static := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		static = append(static, zap.Any(f.Key, logger.Sanitize(f.Key, f.Value)))
	}
	return &zapLogger{zl: l.zl.With(static...), level: l.level}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{zl: l.zl.With(zap.String("component", component)), level: l.level}
}

func (l *zapLogger) SetLevel(level constants.LogLevel) {
	l.level.SetLevel(zapLevelOf(level))
}

func (l *zapLogger) GetLevel() constants.LogLevel {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return constants.LogLevelDebug
	case zapcore.WarnLevel:
		return constants.LogLevelWarn
	case zapcore.ErrorLevel, zapcore.FatalLevel:
		return constants.LogLevelError
	default:
		return constants.LogLevelInfo
	}
}

// convert merges trace identifiers and request-scoped context values with
// the call-site fields.
func (l *zapLogger) convert(ctx context.Context, fields []logger.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+5)

	if ctx != nil {
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			out = append(out,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}
		for _, key := range []constants.ContextKey{
			constants.ContextKeyRequestID,
			constants.ContextKeyTenantID,
			constants.ContextKeySessionID,
		} {
			if v := ctx.Value(key); v != nil {
				out = append(out, zap.Any(string(key), v))
			}
		}
	}

	for _, f := range fields {
		out = append(out, zap.Any(f.Key, logger.Sanitize(f.Key, f.Value)))
	}
	return out
}

func zapLevelOf(level constants.LogLevel) zapcore.Level {
	switch level {
	case constants.LogLevelDebug:
		return zapcore.DebugLevel
	case constants.LogLevelWarn:
		return zapcore.WarnLevel
	case constants.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
