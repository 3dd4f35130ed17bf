package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestInit_ReadsLevel(t *testing.T) {
	_ = os.Unsetenv("LOG_PRETTY")
	t.Setenv("LOG_LEVEL", "debug")
	Init()
	if L().GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", L().GetLevel())
	}

	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PRETTY", "true")
	Init()
	if L().GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("expected error level, got %v", L().GetLevel())
	}
}

func TestL_LazyInit(t *testing.T) {
	mu.Lock()
	initialized = false
	base = zerolog.Logger{}
	mu.Unlock()

	t.Setenv("LOG_LEVEL", "warn")
	if L().GetLevel() != zerolog.WarnLevel {
		t.Fatalf("lazy init did not read LOG_LEVEL")
	}
}

func TestForRun_AddsFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	Init()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(Init)

	// chained directly, the way the command handlers call it
	ForRun("run-1", "march.zip").Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["run_id"] != "run-1" || entry["archive"] != "march.zip" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
