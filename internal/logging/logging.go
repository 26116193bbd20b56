package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger and installs it as the slog default. Output
// goes to stderr and, when logFile is set, is appended to that file too.
// format "text" picks slog's key=value handler; everything else logs JSON.
// Call the returned func on exit to close the log file.
func New(level, format, logFile string) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closeFile := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFile = func() { _ = f.Close() }
	}

	logger := slog.New(newHandler(out, level, format))
	slog.SetDefault(logger)
	return logger, closeFile, nil
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel falls back to info for anything it does not recognise.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
