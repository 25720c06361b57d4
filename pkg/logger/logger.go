// Package logger holds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// L is the shared structured logger. Call Init before use; packages that may
// run before Init (tests, tools) get a sane default.
var L = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Init configures the shared logger from the LOG_LEVEL environment variable.
func Init() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	L = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(L)
}
