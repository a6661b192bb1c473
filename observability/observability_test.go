package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.Info("trial complete", "trial_id", "abc", "mismatch", 1)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "trial complete" || entry["trial_id"] != "abc" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record emitted at warn level: %s", buf.String())
	}
}

func TestTraceContextHandlerOutsideSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.InfoContext(context.Background(), "no span")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("trace ids attached outside any span: %s", buf.String())
	}
}

func TestInitTracingWithoutExport(t *testing.T) {
	tp, err := InitTracing("staghunt-test", false)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("test")
	_, span := tracer.Start(context.Background(), "op")
	span.End()
}
