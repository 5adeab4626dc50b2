package log

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRetrievalRequiresInit(t *testing.T) {
	if _, err := GetLastNLogs(1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitRequiresPath(t *testing.T) {
	if err := Init(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestConsoleOutputLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, zerolog.WarnLevel)
	defer SetOutput(nil, zerolog.InfoLevel)

	Info().Msg("hidden")
	Warn().Str("path", "/tmp/x").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "/tmp/x") {
		t.Errorf("expected warn line with field, got %s", out)
	}
}

func TestSQLiteSink(t *testing.T) {
	var console bytes.Buffer
	SetOutput(&console, zerolog.DebugLevel)
	defer SetOutput(nil, zerolog.InfoLevel)

	dbPath := filepath.Join(t.TempDir(), "logs", "test.db")
	if err := Init(dbPath); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	if !Initialized() {
		t.Fatal("expected Initialized after Init")
	}
	if err := Init(dbPath); err == nil {
		t.Fatal("expected error on double Init")
	}

	start := time.Now().Add(-time.Minute)
	Info().Str("mode", "encrypt").Msg("first")
	Printf("second %d", 2)

	if !strings.Contains(console.String(), "first") {
		t.Errorf("console sink missed the log line: %s", console.String())
	}

	entries, err := GetLastNLogs(10)
	if err != nil {
		t.Fatalf("GetLastNLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !strings.Contains(entries[0].LogData, "first") || !strings.Contains(entries[1].LogData, "second 2") {
		t.Fatalf("entries out of order: %+v", entries)
	}

	since, err := GetLogsSince(start, 0)
	if err != nil {
		t.Fatalf("GetLogsSince failed: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("expected 2 entries since start, got %d", len(since))
	}

	none, err := GetLogsBetween(start.Add(-time.Hour), start, 10)
	if err != nil {
		t.Fatalf("GetLogsBetween failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no entries before start, got %d", len(none))
	}

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if Initialized() {
		t.Fatal("expected not initialized after Close")
	}
}

func TestRecordWritesOnlyToSQLite(t *testing.T) {
	var console bytes.Buffer
	SetOutput(&console, zerolog.DebugLevel)
	defer SetOutput(nil, zerolog.InfoLevel)

	// Before Init there is nowhere to record to.
	Record().Msg("dropped")

	if err := Init(filepath.Join(t.TempDir(), "record.db")); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Record().Str("path", "/tmp/in").Msg("error reading source")

	if console.Len() != 0 {
		t.Fatalf("Record must not reach the console, got %q", console.String())
	}
	entries, err := GetLastNLogs(10)
	if err != nil {
		t.Fatalf("GetLastNLogs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	for _, want := range []string{`"level":"error"`, "error reading source", "/tmp/in"} {
		if !strings.Contains(entries[0].LogData, want) {
			t.Errorf("entry %s missing %s", entries[0].LogData, want)
		}
	}

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	Record().Msg("after close")
	if console.Len() != 0 {
		t.Fatalf("Record after Close reached the console: %q", console.String())
	}
}
