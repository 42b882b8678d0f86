package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo)

	at := time.Date(2024, 6, 1, 20, 15, 4, 0, time.UTC)
	record := slog.NewRecord(at, slog.LevelInfo, "catalog loaded", 0)
	record.AddAttrs(slog.Int("songs", 12), slog.String("path", "catalog.csv"))

	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	got := buf.String()
	want := "20:15:04 INFO catalog loaded songs=12 path=catalog.csv\n"
	if got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestConsoleHandlerQuotesAwkwardValues(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo)

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "unknown confidence label", 0)
	record.AddAttrs(slog.String("label", "Pretty Sure"), slog.String("empty", ""))

	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, `label="Pretty Sure"`) {
		t.Errorf("spacey value not quoted: %q", got)
	}
	if !strings.Contains(got, `empty=""`) {
		t.Errorf("empty value not quoted: %q", got)
	}
}

func TestConsoleHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	base := newConsoleHandler(&buf, slog.LevelInfo)
	logger := slog.New(base).WithGroup("run").With("id", "run-1")

	logger.Info("started")
	got := buf.String()
	if !strings.Contains(got, "run.id=run-1") {
		t.Errorf("group prefix missing: %q", got)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, slog.LevelWarn))

	logger.Info("quiet")
	logger.Warn("loud")

	got := buf.String()
	if strings.Contains(got, "quiet") {
		t.Errorf("info line leaked through warn filter: %q", got)
	}
	if !strings.Contains(got, "loud") {
		t.Errorf("warn line missing: %q", got)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reprise.log")

	logger, closer, err := New(Options{Level: "debug", FilePath: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("run finished", "rows", 14)
	if err := closer(); err != nil {
		t.Fatalf("closer() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if entry["msg"] != "run finished" {
		t.Errorf("msg = %v, want %q", entry["msg"], "run finished")
	}
	if entry["rows"] != float64(14) {
		t.Errorf("rows = %v, want 14", entry["rows"])
	}
}

func TestNewWithoutFile(t *testing.T) {
	logger, closer, err := New(Options{Level: "info"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	if err := closer(); err != nil {
		t.Fatalf("closer() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTeeHandlerDuplicates(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(newTeeHandler(
		newConsoleHandler(&a, slog.LevelInfo),
		newConsoleHandler(&b, slog.LevelDebug),
	))

	logger.Debug("detail")
	logger.Info("headline")

	if strings.Contains(a.String(), "detail") {
		t.Errorf("info-level handler received debug record: %q", a.String())
	}
	if !strings.Contains(b.String(), "detail") || !strings.Contains(b.String(), "headline") {
		t.Errorf("debug-level handler missing records: %q", b.String())
	}
	if !strings.Contains(a.String(), "headline") {
		t.Errorf("info-level handler missing info record: %q", a.String())
	}
}
