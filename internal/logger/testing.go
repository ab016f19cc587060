package logger

import (
	"log/slog"
	"os"
)

// TestLogEnv names the environment variable that turns on test logging.
const TestLogEnv = "GOSCOPE_TEST_LOG"

// NewTestLogger returns a logger for tests. Records are discarded unless
// GOSCOPE_TEST_LOG holds a level, e.g. GOSCOPE_TEST_LOG=debug go test ./...
func NewTestLogger() *slog.Logger {
	raw := os.Getenv(TestLogEnv)
	if raw == "" {
		return slog.New(slog.DiscardHandler)
	}
	level, err := ParseLevel(raw)
	if err != nil {
		level = slog.LevelDebug
	}
	return slog.New(newHandler(os.Stderr, Config{Level: level}))
}
