package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestTextLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(NewHyperFleetTextHandler(&buf, "hyperfleet-sentinel", "v1.2.3", "test-host", level)), &buf
}

func TestHyperFleetTextHandler_Format(t *testing.T) {
	log, buf := newTestTextLogger(slog.LevelInfo)
	log.InfoContext(context.Background(), "Pulse emitted", "adapter", "dns", "generation", 3, "due", true)

	line := strings.TrimSuffix(buf.String(), "\n")
	if strings.Contains(line, "\n") {
		t.Fatalf("expected a single line, got: %q", buf.String())
	}
	for _, want := range []string{
		" INFO [hyperfleet-sentinel] [v1.2.3] [test-host] Pulse emitted",
		"adapter=dns", "generation=3", "due=true",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
	if _, err := time.Parse(time.RFC3339, strings.SplitN(line, " ", 2)[0]); err != nil {
		t.Errorf("expected an RFC3339 timestamp prefix: %v", err)
	}
}

func TestHyperFleetTextHandler_ContextFields(t *testing.T) {
	log, buf := newTestTextLogger(slog.LevelInfo)

	ctx := context.Background()
	ctx = context.WithValue(ctx, ReqIDKey, "pulse-123")
	ctx = context.WithValue(ctx, TraceIDCtxKey, "trace-456")
	ctx = context.WithValue(ctx, SpanIDCtxKey, "span-789")
	ctx = context.WithValue(ctx, ResourceIDCtxKey, "cluster-abc")
	log.InfoContext(ctx, "Reporting status")

	for _, want := range []string{
		"request_id=pulse-123", "trace_id=trace-456", "span_id=span-789", "resource_id=cluster-abc",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %q", want, buf.String())
		}
	}

	buf.Reset()
	log.InfoContext(context.Background(), "No context fields")
	if strings.Contains(buf.String(), "request_id=") || strings.Contains(buf.String(), "trace_id=") {
		t.Errorf("expected no context fields, got: %s", buf.String())
	}
}

func TestHyperFleetTextHandler_LevelFiltering(t *testing.T) {
	tests := []struct {
		handlerLevel slog.Level
		recordLevel  slog.Level
		logged       bool
	}{
		{slog.LevelDebug, slog.LevelDebug, true},
		{slog.LevelInfo, slog.LevelDebug, false},
		{slog.LevelInfo, slog.LevelWarn, true},
		{slog.LevelError, slog.LevelWarn, false},
		{slog.LevelError, slog.LevelError, true},
	}
	for _, tt := range tests {
		t.Run(tt.handlerLevel.String()+"/"+tt.recordLevel.String(), func(t *testing.T) {
			log, buf := newTestTextLogger(tt.handlerLevel)
			log.Log(context.Background(), tt.recordLevel, "message")
			if got := buf.Len() > 0; got != tt.logged {
				t.Fatalf("logged = %v, expected %v: %s", got, tt.logged, buf.String())
			}
			if tt.logged && !strings.Contains(buf.String(), " "+strings.ToUpper(tt.recordLevel.String())+" ") {
				t.Errorf("expected level %s, got: %s", tt.recordLevel, buf.String())
			}
		})
	}
}

func TestHyperFleetTextHandler_AttrsAndGroups(t *testing.T) {
	log, buf := newTestTextLogger(slog.LevelInfo)

	log.With("component_id", "dns").WithGroup("task").
		InfoContext(context.Background(), "Task superseded", "generation", 2, slog.Group("job", "name", "dns-abc"))

	for _, want := range []string{"component_id=dns", "task.generation=2", "task.job.name=dns-abc"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %q", want, buf.String())
		}
	}
}

func TestHyperFleetTextHandler_ClonesShareWriter(t *testing.T) {
	var buf bytes.Buffer
	base := NewHyperFleetTextHandler(&buf, "hyperfleet-adapter", "v1", "host", slog.LevelInfo)
	a := slog.New(base.WithAttrs([]slog.Attr{slog.String("worker", "a")}))
	b := slog.New(base.WithAttrs([]slog.Attr{slog.String("worker", "b")}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); a.Info("tick") }()
		go func() { defer wg.Done(); b.Info("tick") }()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("expected 100 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "tick worker=a") && !strings.HasSuffix(line, "tick worker=b") {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"simple string", "hello", "hello"},
		{"empty string", "", `""`},
		{"string with spaces", "hello world", `"hello world"`},
		{"string with quotes", `say "hello"`, `"say \"hello\""`},
		{"string with equals", "a=b", `"a=b"`},
		{"number", 42, "42"},
		{"boolean", true, "true"},
		{"nil", nil, "null"},
		{"duration", 90 * time.Second, "1m30s"},
		{"time", time.Date(2026, 1, 9, 12, 30, 45, 0, time.FixedZone("CET", 3600)), "2026-01-09T11:30:45Z"},
		{"error", errors.New("connection refused"), `"connection refused"`},
		{"raw json", json.RawMessage(`{"region":"eu"}`), `"{\"region\":\"eu\"}"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := formatValue(tt.input); result != tt.expected {
				t.Errorf("formatValue(%v) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}
