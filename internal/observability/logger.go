package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the logger both binaries share. Dev gets readable text at
// debug level; everywhere else emits JSON for the log pipeline. Records carry
// trace/span ids whenever a span is on the context.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return slog.New(NewTraceHandler(handler))
}
