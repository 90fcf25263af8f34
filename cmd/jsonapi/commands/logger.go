package commands

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to jsonapi.Logger.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger builds a console logger on stderr. Debug messages are only
// written when verbose is set.
func NewZapLogger(verbose bool) (*ZapLogger, error) {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: log.Sugar()}, nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(log *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: log.Sugar()}
}

// Debug implements jsonapi.Logger.
func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debugw(msg, keysAndValues(fields)...)
}

// Info implements jsonapi.Logger.
func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Infow(msg, keysAndValues(fields)...)
}

// Warn implements jsonapi.Logger.
func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warnw(msg, keysAndValues(fields)...)
}

// Error implements jsonapi.Logger.
func (l *ZapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Errorw(msg, keysAndValues(fields)...)
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() {
	_ = l.logger.Sync()
}

// keysAndValues flattens fields in key order so output is stable.
func keysAndValues(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]interface{}, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, key, fields[key])
	}

	return pairs
}
