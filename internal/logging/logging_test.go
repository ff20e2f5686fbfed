package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNew_EmitsJSONAtRequestedLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("visible", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not a single JSON record: %v (%q)", err, buf.String())
	}
	if record["msg"] != "visible" {
		t.Errorf("expected the warn record, got %v", record)
	}
	if record["key"] != "value" {
		t.Errorf("attributes lost: %v", record)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chatty")

	logger.Debug("hidden")
	logger.Info("visible")

	if buf.Len() == 0 {
		t.Fatal("info record must be emitted")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Error("context must return the attached logger")
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("missing logger must fall back to slog.Default")
	}
}
