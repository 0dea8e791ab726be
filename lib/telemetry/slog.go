package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default text handler for the process.
// debug=true lowers the level to slog.LevelDebug.
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
