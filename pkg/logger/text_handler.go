package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"
)

// HyperFleetTextHandler writes one line per record:
// {timestamp} {LEVEL} [{component}] [{version}] [{hostname}] {message} {key=value}...
//
// Context fields come first, then handler attrs, then record attrs. Attrs
// inside a group are written as group.key=value. A stack trace is written on
// the lines following the record.
type HyperFleetTextHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	component string
	version   string
	hostname  string
	level     slog.Level
	prefix    string
	attrs     []string
}

func NewHyperFleetTextHandler(w io.Writer, component, version, hostname string, level slog.Level) *HyperFleetTextHandler {
	return &HyperFleetTextHandler{
		w:         w,
		mu:        &sync.Mutex{},
		component: component,
		version:   version,
		hostname:  hostname,
		level:     level,
	}
}

func (h *HyperFleetTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HyperFleetTextHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(r.Time.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(strings.ToUpper(r.Level.String()))
	fmt.Fprintf(&buf, " [%s] [%s] [%s] ", h.component, h.version, h.hostname)
	buf.WriteString(r.Message)

	for _, field := range ContextFieldsRegistry {
		if val, ok := field.Getter(ctx); ok {
			fmt.Fprintf(&buf, " %s=%s", field.Name, formatValue(val))
		}
	}
	for _, attr := range h.attrs {
		buf.WriteByte(' ')
		buf.WriteString(attr)
	}

	var stack []runtime.Frame
	r.Attrs(func(a slog.Attr) bool {
		if frames, ok := a.Value.Any().([]runtime.Frame); ok && a.Key == "stack_trace" {
			stack = frames
			return true
		}
		for _, s := range renderAttr(h.prefix, a) {
			buf.WriteByte(' ')
			buf.WriteString(s)
		}
		return true
	})
	buf.WriteByte('\n')

	if len(stack) > 0 {
		buf.WriteString("  stack_trace:\n")
		for _, frame := range formatStackTrace(stack) {
			fmt.Fprintf(&buf, "    %s\n", frame)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *HyperFleetTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, renderAttr(h.prefix, a)...)
	}
	return &clone
}

func (h *HyperFleetTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// renderAttr flattens a into key=value pairs, expanding groups.
func renderAttr(prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return nil
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}
		var out []string
		for _, ga := range group {
			out = append(out, renderAttr(prefix, ga)...)
		}
		return out
	}
	return []string{prefix + a.Key + "=" + formatValue(a.Value.Any())}
}

func formatValue(v interface{}) string {
	var str string
	switch val := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case time.Duration:
		return val.String()
	case error:
		str = val.Error()
	case json.RawMessage:
		str = string(val)
	default:
		str = fmt.Sprintf("%v", v)
	}
	if str == "" {
		return `""`
	}
	if strings.ContainsAny(str, " \t\n\"=") {
		return fmt.Sprintf("%q", str)
	}
	return str
}

func formatStackTrace(frames []runtime.Frame) []string {
	result := make([]string, 0, len(frames))
	for _, frame := range frames {
		result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
	}
	return result
}
