package logger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

// Options selects the output of NewZapLogger.
type Options struct {
	Service string
	Env     string
	// Level overrides the default of info in production and debug elsewhere.
	Level string
}

func (o Options) production() bool {
	return o.Env == "production" || o.Env == "prod"
}

// NewZapLogger writes JSON with ISO8601 timestamps in production and a
// colored console elsewhere. Every entry carries the service name.
func NewZapLogger(opts Options) (Logger, error) {
	level := zapcore.DebugLevel
	if opts.production() {
		level = zapcore.InfoLevel
	}
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	encoding := zap.NewProductionEncoderConfig()
	encoding.TimeKey = "timestamp"
	encoding.EncodeTime = zapcore.ISO8601TimeEncoder
	format := "json"
	if !opts.production() {
		encoding = zap.NewDevelopmentEncoderConfig()
		encoding.EncodeLevel = zapcore.CapitalColorLevelEncoder
		format = "console"
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      !opts.production(),
		Encoding:         format,
		EncoderConfig:    encoding,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if opts.production() {
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	built, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if opts.Service != "" {
		built = built.With(zap.String("service", opts.Service))
	}
	return &ZapLogger{logger: built}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

func newFromCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core)}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, toZap(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, toZap(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, toZap(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, toZap(fields)...)
}

// Fatal exits the process after logging.
func (l *ZapLogger) Fatal(msg string, fields ...Field) {
	l.logger.Fatal(msg, toZap(fields)...)
}

// WithContext tags entries with the request id stored by the HTTP middleware.
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	id, ok := RequestIDFromContext(ctx)
	if !ok {
		return l
	}
	return &ZapLogger{logger: l.logger.With(zap.String("request_id", id))}
}

func (l *ZapLogger) WithFields(fields ...Field) Logger {
	return &ZapLogger{logger: l.logger.With(toZap(fields)...)}
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out[i] = zap.String(f.Key, v)
		case int:
			out[i] = zap.Int(f.Key, v)
		case int64:
			out[i] = zap.Int64(f.Key, v)
		case float64:
			out[i] = zap.Float64(f.Key, v)
		case bool:
			out[i] = zap.Bool(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		case error:
			out[i] = zap.NamedError(f.Key, v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}
