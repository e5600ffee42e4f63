package logger

import (
	"io"
	"log/slog"
	"os"
)

var Log *slog.Logger

func init() {
	Log = New(os.Stdout, slog.LevelInfo)
}

func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetDefault installs Log as the process-wide slog logger.
func SetDefault() {
	slog.SetDefault(Log)
}
