package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/tbxark/travelpilot/config"
)

// Setup installs the process-wide slog logger and routes hertz client logs
// through it. The returned closer releases the log file, if any.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var writer io.Writer
	closer := io.Closer(nopCloser{})
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("log file path is required when output is 'file'")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer, closer = file, file
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	handler, err := NewHandler(writer, cfg.Format, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String("time", a.Value.Time().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			return a
		},
	})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	hlog.SetLogger(NewHertzSlogAdapter(l))

	slog.Debug("Logger initialized", "level", cfg.Level, "format", cfg.Format, "output", cfg.Output)
	return closer, nil
}

func NewHandler(w io.Writer, format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type contextKey string

const loggerKey contextKey = "logger"

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithConversation tags l with the conversation key used for checkpoints.
func WithConversation(l *slog.Logger, key string) *slog.Logger {
	return l.With("conversation", key)
}
