package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLogLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logLevelFromString(in); got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
}

func TestInitLoggerWritesJSONAndBuildInfo(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	dir := t.TempDir()
	info := filepath.Join(dir, "build-info.yaml")
	if err := os.WriteFile(info, []byte("version: 1.2.3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := initLogger(LoggerConfig{Level: "warn", BuildInfoFile: info}, &buf)
	logger.Info("dropped")
	logger.Warn("kept", slog.String("survey_id", "s1"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(lines[0], &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "kept" || rec["survey_id"] != "s1" || rec["build.version"] != "1.2.3" {
		t.Fatalf("unexpected record %v", rec)
	}
	if slog.Default() != logger {
		t.Fatalf("default logger not installed")
	}
}

func TestInitLoggerToFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	file := filepath.Join(t.TempDir(), "coffee.log")
	var buf bytes.Buffer
	logger := initLogger(LoggerConfig{LogToFile: true, Filename: file, MaxSize: 1}, &buf)
	logger.Info("hello")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"msg":"hello"`)) || !bytes.Contains(buf.Bytes(), []byte(`"msg":"hello"`)) {
		t.Fatalf("record missing: file=%s stdout=%s", data, buf.String())
	}
}
