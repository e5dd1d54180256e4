package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. All packages receive it by injection so
// tests can swap in slog.New(slog.DiscardHandler).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
