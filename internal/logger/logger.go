package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu          sync.RWMutex
	base        zerolog.Logger
	initialized bool
)

// Init configures the process logger.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
//   - LOG_OUTPUT: stdout|stderr (default: stderr, so CLI output stays clean)
func Init() {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	var w io.Writer = os.Stderr
	if strings.EqualFold(getenv("LOG_OUTPUT", "stderr"), "stdout") {
		w = os.Stdout
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	setBase(w, level)
}

// SetOutput redirects the logger, keeping the current level. Used by tests.
func SetOutput(w io.Writer) {
	mu.RLock()
	level := base.GetLevel()
	ok := initialized
	mu.RUnlock()
	if !ok {
		level = zerolog.InfoLevel
	}
	setBase(w, level)
}

func setBase(w io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(w).With().Timestamp().Logger().Level(level)
	mu.Lock()
	base = l
	initialized = true
	mu.Unlock()
}

// L returns the process logger, initialising it from the environment on first use.
func L() *zerolog.Logger {
	mu.RLock()
	ok := initialized
	mu.RUnlock()
	if !ok {
		Init()
	}
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// ForRun returns a child logger tagged with the run id and archive name.
func ForRun(runID, archive string) *zerolog.Logger {
	l := L().With().Str("run_id", runID).Str("archive", archive).Logger()
	return &l
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
