package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(t *testing.T, format logFormat) (*structuredHandler, *bytes.Buffer, func()) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := newFanoutWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: writer,
		format: format,
	})
	return h, buf, func() {
		_ = writer.Flush()
		_ = writer.Close()
	}
}

func TestHandlerKVOrder(t *testing.T) {
	h, buf, done := newTestHandler(t, formatKV)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "test.event", 0)
	rec.AddAttrs(
		slog.String("component", "app"),
		slog.String("status", "ok"),
		slog.String("rid", "rid-123"),
	)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	done()

	line := strings.TrimSpace(buf.String())
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	pos := -1
	for _, token := range want {
		idx := strings.Index(line, token)
		if idx < 0 {
			t.Fatalf("missing %q in %q", token, line)
		}
		if idx < pos {
			t.Fatalf("token %q out of order in %q", token, line)
		}
		pos = idx
	}
}

func TestHandlerJSONOrder(t *testing.T) {
	h, buf, done := newTestHandler(t, formatJSON)

	rec := slog.NewRecord(time.Now(), slog.LevelWarn, "queue.full", 0)
	rec.AddAttrs(
		slog.String("component", "dispatch"),
		slog.Int("count", 7),
	)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	done()

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", line, err)
	}
	if decoded["level"] != "WARN" {
		t.Fatalf("level = %v, want WARN", decoded["level"])
	}
	if decoded["event"] != "queue.full" {
		t.Fatalf("event = %v, want queue.full", decoded["event"])
	}
	if decoded["count"] != float64(7) {
		t.Fatalf("count = %v, want 7", decoded["count"])
	}
	tsIdx := strings.Index(line, `"ts"`)
	levelIdx := strings.Index(line, `"level"`)
	eventIdx := strings.Index(line, `"event"`)
	if tsIdx < 0 || levelIdx < 0 || eventIdx < 0 || !(tsIdx < levelIdx && levelIdx < eventIdx) {
		t.Fatalf("key order broken in %q", line)
	}
}

func TestHandlerCompactRIDKV(t *testing.T) {
	h, buf, done := newTestHandler(t, formatKV)

	rid := BuildRID(911911, 500200300, 123456789)
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "update.handled", 0)
	rec.AddAttrs(slog.String("component", "tg"), slog.String("rid", rid))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	done()

	line := strings.TrimSpace(buf.String())
	compact := CompactRID(rid)
	if !strings.Contains(line, "rid="+compact) {
		t.Fatalf("want compact rid %q in %q", compact, line)
	}
	if strings.Contains(line, "rid_full") {
		t.Fatalf("kv output should not carry rid_full: %q", line)
	}
}

func TestHandlerCompactRIDJSON(t *testing.T) {
	h, buf, done := newTestHandler(t, formatJSON)

	rid := BuildRID(911911, 500200300, 123456789)
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "update.handled", 0)
	rec.AddAttrs(slog.String("component", "tg"), slog.String("rid", rid))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	done()

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if decoded["rid"] != CompactRID(rid) {
		t.Fatalf("rid = %v, want %v", decoded["rid"], CompactRID(rid))
	}
	if decoded["rid_full"] != rid {
		t.Fatalf("rid_full = %v, want %v", decoded["rid_full"], rid)
	}
	if _, ok := decoded["ts_unix_nano"]; !ok {
		t.Fatalf("json output missing ts_unix_nano: %q", buf.String())
	}
}
