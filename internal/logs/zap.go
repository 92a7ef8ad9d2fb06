package logs

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger to Logger. Messages keep their printf style.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{sugar: l.WithOptions(zap.AddCallerSkip(2)).Sugar()}
}

// NewZapProduction builds a zap logger writing json or console lines at the given level
func NewZapProduction(level LogLevel, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

func (l *zapLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.log(Debug, msg, args...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(Info, msg, args...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(Warn, msg, args...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(Error, msg, args...)
}

func (l *zapLogger) log(level LogLevel, msg string, args ...interface{}) {
	switch level {
	case Debug:
		l.sugar.Debugf(msg, args...)
	case Info:
		l.sugar.Infof(msg, args...)
	case Warn:
		l.sugar.Warnf(msg, args...)
	default:
		l.sugar.Errorf(msg, args...)
	}
}
