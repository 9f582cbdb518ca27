package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide slog logger, writing text records to
// stderr so stdout stays reserved for command output.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
