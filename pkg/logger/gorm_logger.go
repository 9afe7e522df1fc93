package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

type quietQueriesKey struct{}

// QuietQueries marks ctx as a polling loop. Info level query logs that touched
// no rows are dropped for it, so an idle pulse queue does not flood debug logs.
func QuietQueries(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietQueriesKey{}, true)
}

func isQuiet(ctx context.Context) bool {
	quiet, _ := ctx.Value(quietQueriesKey{}).(bool)
	return quiet
}

// GormLogger routes gorm's query logs through the HyperFleet logger, keeping
// the request, resource and adapter fields of ctx.
type GormLogger struct {
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(logLevel gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		logLevel:      logLevel,
		slowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{
		logLevel:      level,
		slowThreshold: l.slowThreshold,
	}
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Info {
		With(ctx, "gorm_info", formatMessage(msg, data)).Info("GORM info")
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Warn {
		With(ctx, "gorm_warn", formatMessage(msg, data)).Warn("GORM warning")
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Error {
		With(ctx, "gorm_error", formatMessage(msg, data)).Error("GORM error")
	}
}

// Trace logs failed queries at error, slow ones at warn and the rest at info.
// Record not found is a normal answer for slot and task lookups and is not an error.
func (l *GormLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slowThreshold != 0 && elapsed > l.slowThreshold

	var level gormlogger.LogLevel
	switch {
	case failed:
		level = gormlogger.Error
	case slow:
		level = gormlogger.Warn
	default:
		level = gormlogger.Info
	}
	if l.logLevel < level {
		return
	}

	sql, rows := fc()
	if level == gormlogger.Info && rows == 0 && isQuiet(ctx) {
		return
	}

	entry := With(ctx, "sql", sql, "rows", rows, "duration_ms", milliseconds(elapsed))
	switch level {
	case gormlogger.Error:
		entry.WithError(err).Error("GORM query error")
	case gormlogger.Warn:
		entry.With("threshold_ms", milliseconds(l.slowThreshold)).Warn("GORM slow query")
	default:
		entry.Info("GORM query")
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func formatMessage(msg string, data []interface{}) string {
	if len(data) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, data...)
}
