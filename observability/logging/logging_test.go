package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupEmitsRenamedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOptions("ajod", "test", Options{Output: &buf})
	logger.Info("plan created", "plan_id", "1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"message":  "plan created",
		"severity": "INFO",
		"service":  "ajod",
		"env":      "test",
		"plan_id":  "1",
	} {
		if got, _ := line[key].(string); got != want {
			t.Fatalf("%s: got %q want %q", key, got, want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("expected timestamp key in %v", line)
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOptions("ajod", "", Options{Output: &buf, Level: slog.LevelWarn})
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info line should be filtered, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestSetupMirrorsToRotatingFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "ajod.log")
	logger := SetupWithOptions("ajod", "", Options{Output: &buf, File: path, MaxSizeMB: 1})
	logger.Info("mirrored")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "mirrored") {
		t.Fatalf("file missing log line: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("%q: got %v want %v", raw, got, want)
		}
	}
}

func TestMaskFields(t *testing.T) {
	attrs := MaskFields(map[string]string{
		"authorization": "Bearer abc",
		"plan_id":       "7",
		"memo":          "",
	})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attrs, got %d", len(attrs))
	}
	got := map[string]string{}
	for _, raw := range attrs {
		attr := raw.(slog.Attr)
		got[attr.Key] = attr.Value.String()
	}
	if got["authorization"] != RedactedValue {
		t.Fatalf("authorization must be redacted, got %q", got["authorization"])
	}
	if got["plan_id"] != "7" || got["memo"] != "" {
		t.Fatalf("unexpected attrs %v", got)
	}
}
