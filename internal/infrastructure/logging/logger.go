package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
)

// ServiceName is attached to every record as the "service" field.
const ServiceName = "heimdall"

const (
	logDirPermissions  = 0750
	logFilePermissions = 0600
)

// Logger is a slog.Logger carrying Heimdall's default fields. It is safe
// for concurrent use.
type Logger struct {
	*slog.Logger

	// file is set when records go to a log file opened by New.
	file io.Closer
}

// New builds a Logger from cfg. cfg.Output is "stdout" (default), "stderr"
// or a file path; log files are appended to. When the file cannot be opened
// the logger writes to stderr and says so in its first record.
func New(cfg config.LoggingConfig, version string) *Logger {
	output, file, err := openOutput(cfg.Output)
	l := NewWithWriter(cfg, version, output)
	l.file = file
	if err != nil {
		l.Warn("log file unavailable, writing to stderr", "output", cfg.Output, "error", err)
	}
	return l
}

// NewWithWriter is New with an explicit destination. cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.Caller,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{
		Logger: slog.New(handler).With("service", ServiceName, "version", version),
	}
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), logDirPermissions); err != nil {
		return os.Stderr, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return os.Stderr, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f, nil
}

// parseLevel maps debug, info, warn(ing) and error to slog levels.
// Anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger with extra default attributes. The child
// shares the parent's destination; only the parent should be closed.
//
//	launcherLogger := logger.With("component", "launcher")
//	launcherLogger.Info("viewer started") // Includes component=launcher
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Close releases the log file, if New opened one.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Default is the logger used before configuration is loaded: JSON at info
// level on stdout.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}

// Discard drops every record. Used in tests and by the CLI, which keeps
// stdout for its own output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
