// Package logging builds the slog handler the bot logs through.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// NewHandler returns a JSON handler when format is "json" and a text handler
// otherwise.
func NewHandler(format, logLevel string, writer io.Writer) slog.Handler {
	if strings.EqualFold(format, "json") {
		return HandlerJSON(logLevel, writer)
	}
	return HandlerText(logLevel, writer)
}

// HandlerText is a human-readable handler backed by charmbracelet/log
func HandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	reportCaller := false
	reportTimestamp := true
	lvl := log.InfoLevel
	switch strings.ToLower(logLevel) {
	case "trace":
		reportCaller = true
		lvl = log.DebugLevel
	case "debug":
		lvl = log.DebugLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: reportTimestamp,
		ReportCaller:    reportCaller,
		Level:           lvl,
		Prefix:          "pongbot",
	})
}

// HandlerJSON is a structured handler for log shippers
func HandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     jsonLevel(logLevel),
		AddSource: strings.EqualFold(logLevel, "trace"),
	})
}

func jsonLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the handler as the process-wide default and returns it.
func Setup(format, logLevel string, writer io.Writer) *slog.Logger {
	logger := slog.New(NewHandler(format, logLevel, writer))
	slog.SetDefault(logger)
	return logger
}
