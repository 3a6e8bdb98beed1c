package cli

import (
	"io"
	"log/slog"
)

// setupLogging installs the default slog logger: info level, or debug when
// verbose, as text or JSON on w.
func setupLogging(w io.Writer, format string, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}
