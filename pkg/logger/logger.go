package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
)

// LogFormat selects the output encoding
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
	// FormatConsole is the HyperFleet human readable layout, see HyperFleetTextHandler
	FormatConsole LogFormat = "console"
)

// LogConfig holds the logger configuration
type LogConfig struct {
	Level     slog.Level
	Format    LogFormat
	Output    io.Writer
	Component string
	Version   string
	Hostname  string
}

var (
	globalLogger *slog.Logger
	globalMu     sync.RWMutex
)

// stackDepth bounds the number of frames captured for error records
const stackDepth = 32

// ParseLogLevel converts a level name to slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", level)
	}
}

// ParseLogFormat converts a format name to LogFormat
func ParseLogFormat(format string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(format))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatConsole:
		return FormatConsole, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %q", format)
	}
}

// ParseLogOutput converts an output name to a file
func ParseLogOutput(output string) (*os.File, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("unknown log output: %q", output)
	}
}

// InitGlobalLogger builds the process wide logger and installs it as slog's default
func InitGlobalLogger(cfg *LogConfig) {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	host := cfg.Hostname
	if host == "" {
		host = Hostname()
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	case FormatConsole:
		handler = NewHyperFleetTextHandler(output, cfg.Component, cfg.Version, host, cfg.Level)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	l := slog.New(&contextHandler{Handler: handler, console: cfg.Format == FormatConsole})
	if cfg.Format != FormatConsole {
		l = l.With(
			slog.String("component", cfg.Component),
			slog.String("version", cfg.Version),
			slog.String("hostname", host),
		)
	}

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
	slog.SetDefault(l)
}

// replaceAttr applies HyperFleet key names: timestamp, message, lowercase level
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToLower(lvl.String()))
		}
	case "stack_trace":
		if frames, ok := a.Value.Any().([]runtime.Frame); ok {
			a.Value = slog.AnyValue(formatStackTrace(frames))
		}
	}
	return a
}

// contextHandler adds the registered context fields to every record
type contextHandler struct {
	slog.Handler
	console bool
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	// the console handler renders context fields itself
	if !h.console {
		for _, field := range ContextFieldsRegistry {
			if val, ok := field.Getter(ctx); ok && val != "" {
				r.AddAttrs(slog.String(field.Name, val))
			}
		}
		if txid, ok := GetTransactionID(ctx); ok {
			r.AddAttrs(slog.Int64("transaction_id", txid))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), console: h.console}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), console: h.console}
}

// GetLogger returns the global logger, or slog's default when none was initialized
func GetLogger(_ context.Context) *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

func log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := GetLogger(ctx)
	if !l.Enabled(ctx, level) {
		return
	}
	if level >= slog.LevelError {
		if !hasKey(args, "error") {
			args = append(args, "error", msg)
		}
		args = append(args, "stack_trace", captureStack(4))
	}
	l.Log(ctx, level, msg, args...)
}

func hasKey(args []any, key string) bool {
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case slog.Attr:
			if a.Key == key {
				return true
			}
		case string:
			if a == key {
				return true
			}
			i++
		}
	}
	return false
}

func captureStack(skip int) []runtime.Frame {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]runtime.Frame, 0, n)
	for {
		frame, more := frames.Next()
		out = append(out, frame)
		if !more {
			break
		}
	}
	return out
}

func Debug(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelDebug, msg, args...) }
func Info(ctx context.Context, msg string, args ...any)  { log(ctx, slog.LevelInfo, msg, args...) }
func Warn(ctx context.Context, msg string, args ...any)  { log(ctx, slog.LevelWarn, msg, args...) }
func Error(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelError, msg, args...) }

func Debugf(ctx context.Context, format string, args ...interface{}) {
	log(ctx, slog.LevelDebug, fmt.Sprintf(format, args...))
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	log(ctx, slog.LevelInfo, fmt.Sprintf(format, args...))
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	log(ctx, slog.LevelWarn, fmt.Sprintf(format, args...))
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	log(ctx, slog.LevelError, fmt.Sprintf(format, args...))
}

// Entry carries temporary fields for a single log call:
//
//	logger.With(ctx, logger.FieldGeneration, gen).WithError(err).Warn("Dispatch failed")
type Entry struct {
	ctx  context.Context
	args []any
}

// With starts an entry with the given key/value pairs or slog.Attr values
func With(ctx context.Context, args ...any) *Entry {
	return &Entry{ctx: ctx, args: args}
}

// WithError starts an entry carrying err in the error field
func WithError(ctx context.Context, err error) *Entry {
	return (&Entry{ctx: ctx}).WithError(err)
}

func (e *Entry) With(args ...any) *Entry {
	merged := make([]any, 0, len(e.args)+len(args))
	merged = append(merged, e.args...)
	merged = append(merged, args...)
	return &Entry{ctx: e.ctx, args: merged}
}

func (e *Entry) WithError(err error) *Entry {
	if err == nil {
		return e
	}
	return e.With("error", err.Error())
}

func (e *Entry) Debug(msg string) { log(e.ctx, slog.LevelDebug, msg, e.args...) }
func (e *Entry) Info(msg string)  { log(e.ctx, slog.LevelInfo, msg, e.args...) }
func (e *Entry) Warn(msg string)  { log(e.ctx, slog.LevelWarn, msg, e.args...) }
func (e *Entry) Error(msg string) { log(e.ctx, slog.LevelError, msg, e.args...) }
