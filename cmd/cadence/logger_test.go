package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npratt/cadence/internal/config"
)

func TestSetupFileLogger_WritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "cadence.log")

	result, err := SetupFileLogger(logPath, slog.LevelInfo, config.Default().LogRotation)
	if err != nil {
		t.Fatalf("SetupFileLogger failed: %v", err)
	}
	defer func() { _ = result.Close() }()

	if result.FilePath != logPath {
		t.Errorf("FilePath = %q, want %q", result.FilePath, logPath)
	}

	result.Logger.Info("test message", "key", "value")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(content), "test message") {
		t.Errorf("log file should contain 'test message', got: %s", content)
	}
	if !strings.Contains(string(content), `"key":"value"`) {
		t.Errorf("log file should contain key=value, got: %s", content)
	}
}

func TestSetupFileLogger_AppendsToExistingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "cadence.log")
	if err := os.WriteFile(logPath, []byte("existing content\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	result, err := SetupFileLogger(logPath, slog.LevelInfo, config.Default().LogRotation)
	if err != nil {
		t.Fatalf("SetupFileLogger failed: %v", err)
	}
	result.Logger.Info("new message")
	_ = result.Close()

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "existing content") {
		t.Error("should preserve existing content")
	}
	if !strings.Contains(string(content), "new message") {
		t.Error("should append new message")
	}
}

func TestSetupFileLogger_FailsWhenParentIsAFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(parent, nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	result, err := SetupFileLogger(filepath.Join(parent, "cadence.log"), slog.LevelInfo, config.Default().LogRotation)
	if err == nil {
		_ = result.Close()
		t.Error("expected error when the log directory cannot be created")
	}
}

func TestSetupFileLogger_RespectsLogLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "cadence.log")

	result, err := SetupFileLogger(logPath, slog.LevelWarn, config.Default().LogRotation)
	if err != nil {
		t.Fatalf("SetupFileLogger failed: %v", err)
	}
	defer func() { _ = result.Close() }()

	result.Logger.Info("info message")
	result.Logger.Warn("warn message")

	content, _ := os.ReadFile(logPath)
	if strings.Contains(string(content), "info message") {
		t.Error("INFO message should be filtered out at WARN level")
	}
	if !strings.Contains(string(content), "warn message") {
		t.Error("WARN message should appear")
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("test message", "foo", "bar")

	output := buf.String()
	if !strings.Contains(output, `"msg":"test message"`) {
		t.Errorf("output should contain the message, got: %s", output)
	}
	if !strings.Contains(output, `"foo":"bar"`) {
		t.Errorf("output should contain foo=bar, got: %s", output)
	}
}
