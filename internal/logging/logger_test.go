package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_prodVersionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "prod", slog.LevelInfo, "1.2.3", "riego-server")

	logger.Info("hello", "fecha", "2022-08-23")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"msg":     "hello",
		"app":     "riego-server",
		"version": "1.2.3",
		"env":     "prod",
		"fecha":   "2022-08-23",
	} {
		if rec[key] != want {
			t.Errorf("%s = %v; want %q", key, rec[key], want)
		}
	}
}

func TestNew_devVersionUsesTint(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "prod", slog.LevelInfo, "dev", "riego-server")

	logger.Info("hello")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("dev logger produced JSON: %q", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "app=riego-server") {
		t.Errorf("output = %q; want message and app attr", out)
	}
}

func TestNew_respectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "prod", slog.LevelWarn, "1.0.0", "riego-server")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}
