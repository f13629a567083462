package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func provisionForTest(t *testing.T, name string, opts Options) *Logger {
	t.Helper()

	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	if opts.Console == nil {
		opts.Console = &bytes.Buffer{}
	}

	logger, err := Provision(name, opts)
	if err != nil {
		t.Fatalf("Failed to provision logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestProvision(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2024, 5, 1, 10, 11, 12, 0, time.Local)

	logger := provisionForTest(t, "test-provision", Options{
		ConsoleLevel: LevelInfo,
		FileLevel:    LevelDebug,
		Dir:          dir,
		Now:          func() time.Time { return fixed },
	})

	want := filepath.Join(dir, "automation_log_20240501_101112.log")
	if logger.LogPath() != want {
		t.Errorf("Expected log path %s, got %s", want, logger.LogPath())
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("Log file not created: %v", err)
	}
	if logger.Level() != LevelDebug {
		t.Errorf("Expected effective level DEBUG, got %s", logger.Level())
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	first := provisionForTest(t, "test-idempotent", DefaultOptions(t.TempDir()))
	second := provisionForTest(t, "test-idempotent", DefaultOptions(t.TempDir()))

	if first != second {
		t.Fatal("Expected the same logger for the same name")
	}

	console, file := second.Handlers()
	if console != 1 || file != 1 {
		t.Errorf("Expected one handler per sink, got console=%d file=%d", console, file)
	}

	got, ok := Lookup("test-idempotent")
	if !ok || got != second {
		t.Error("Lookup did not return the provisioned logger")
	}
}

func TestFileSinkFormat(t *testing.T) {
	logger := provisionForTest(t, "automation", DefaultOptions(t.TempDir()))

	logger.Debugf("debug %d", 1)
	logger.Infof("info %s", "two")
	logger.Warnf("warn")
	logger.Errorf("error")
	logger.Criticalf("critical")

	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d: %q", len(lines), content)
	}

	expected := []string{
		" - automation - DEBUG - debug 1",
		" - automation - INFO - info two",
		" - automation - WARNING - warn",
		" - automation - ERROR - error",
		" - automation - CRITICAL - critical",
	}
	for i, suffix := range expected {
		if !strings.HasSuffix(lines[i], suffix) {
			t.Errorf("Line %d: expected suffix %q, got %q", i, suffix, lines[i])
		}
		if _, err := time.Parse(entryTimeLayout, lines[i][:len(entryTimeLayout)]); err != nil {
			t.Errorf("Line %d: bad timestamp: %v", i, err)
		}
	}
}

func TestSinkThresholds(t *testing.T) {
	console := &bytes.Buffer{}
	logger := provisionForTest(t, "test-thresholds", Options{
		ConsoleLevel: LevelWarning,
		FileLevel:    LevelError,
		Console:      console,
	})

	logger.Infof("dropped everywhere")
	logger.Warnf("console only")
	logger.Errorf("both sinks")

	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if strings.Contains(string(content), "console only") {
		t.Error("File sink accepted an entry below its threshold")
	}
	if !strings.Contains(string(content), "both sinks") {
		t.Error("File sink dropped an entry at its threshold")
	}
	if strings.Contains(console.String(), "dropped everywhere") {
		t.Error("Console sink accepted an entry below its threshold")
	}
	if !strings.Contains(console.String(), "console only") {
		t.Error("Console sink dropped an entry at its threshold")
	}
}

func TestCriticalDoesNotExit(t *testing.T) {
	console := &bytes.Buffer{}
	logger := provisionForTest(t, "test-critical", Options{Console: console})

	logger.Criticalf("still running")

	if !strings.Contains(console.String(), "CRITICAL") {
		t.Errorf("Expected CRITICAL label on console, got %q", console.String())
	}
}

func TestConsoleOnly(t *testing.T) {
	console := &bytes.Buffer{}
	logger := ConsoleOnly("test-console-only", LevelInfo, console)

	logger.Debugf("hidden")
	logger.Criticalf("no log dir")

	out := console.String()
	if !strings.Contains(out, "CRITICAL") || !strings.Contains(out, "no log dir") {
		t.Errorf("Expected critical line on console, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug line leaked to console: %q", out)
	}
	if logger.LogPath() != "" {
		t.Errorf("Expected no log file, got %q", logger.LogPath())
	}
	if _, ok := Lookup("test-console-only"); ok {
		t.Error("ConsoleOnly logger should not be registered")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logger := provisionForTest(t, "test-close", Options{})

	if err := logger.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}

	// Writing after close only reaches the console.
	logger.Infof("after close")
}

func TestProvisionUnwritableDir(t *testing.T) {
	_, err := Provision("test-unwritable", Options{
		Dir:     filepath.Join(t.TempDir(), "missing", "nested"),
		Console: &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarning, false},
		{"Warning", LevelWarning, false},
		{"error", LevelError, false},
		{"critical", LevelCritical, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
