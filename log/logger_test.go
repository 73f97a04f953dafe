package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLogger_IncludesRunContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("in.gif", "info", &buf)

	logger.Info("frames selected", map[string]any{"selected": 3})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if entry["message"] != "frames selected" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["input"] != "in.gif" {
		t.Errorf("input = %v, want in.gif", entry["input"])
	}
	if entry["run_id"] != logger.RunID() || logger.RunID() == "" {
		t.Errorf("run_id = %v, want %q", entry["run_id"], logger.RunID())
	}
	if entry["selected"] != float64(3) {
		t.Errorf("selected = %v, want 3", entry["selected"])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("in.gif", "warn", &buf)

	logger.Debug("hidden", nil)
	logger.Info("hidden", nil)
	logger.Sugar().Warnf("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("entries below warn were written: %s", out)
	}
	if !strings.Contains(out, "shown 1") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Info("discarded", map[string]any{"k": "v"})
	logger.Sugar().Errorf("discarded %s", "too")
}
