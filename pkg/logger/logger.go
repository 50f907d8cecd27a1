package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const LevelCritical = slog.Level(12)

const (
	FormatJSON   = "json"
	FormatText   = "text"
	FormatPretty = "pretty"
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	// BusinessError logs an expected domain failure (bad input, conflicts)
	// at warn level. A nil err logs nothing.
	BusinessError(message string, err error, args ...any)
	// InternalError logs an unexpected failure at error level. A nil err
	// logs nothing.
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	base *slog.Logger
}

// NewFromEnv reads ENV, LOG_LEVEL and LOG_FORMAT. Every line carries the
// service name and environment.
func NewFromEnv() Logger {
	env := normalize(os.Getenv("ENV"))
	if env == "" {
		env = "development"
	}
	format := os.Getenv("LOG_FORMAT")
	if format == "" && env == "development" {
		format = FormatPretty
	}
	return New(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL"), env), parseFormat(format)).
		With("service", "susu-app", "env", env)
}

func New(output io.Writer, level slog.Level, format string) Logger {
	var handler slog.Handler
	switch normalize(format) {
	case FormatPretty:
		handler = tint.NewHandler(output, &tint.Options{
			Level:       level,
			TimeFormat:  time.Kitchen,
			ReplaceAttr: renameCritical,
		})
	case FormatText:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: level, ReplaceAttr: renameCritical})
	default:
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level, ReplaceAttr: renameCritical})
	}
	return &slogLogger{base: slog.New(handler)}
}

// Nop discards everything.
func Nop() Logger {
	return New(io.Discard, LevelCritical+1, FormatText)
}

func (l *slogLogger) Debug(message string, args ...any) { l.base.Debug(message, args...) }

func (l *slogLogger) Info(message string, args ...any) { l.base.Info(message, args...) }

func (l *slogLogger) Warn(message string, args ...any) { l.base.Warn(message, args...) }

func (l *slogLogger) Error(message string, args ...any) { l.base.Error(message, args...) }

func (l *slogLogger) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	l.logErr(slog.LevelWarn, message, err, args)
}

func (l *slogLogger) InternalError(message string, err error, args ...any) {
	l.logErr(slog.LevelError, message, err, args)
}

func (l *slogLogger) logErr(level slog.Level, message string, err error, args []any) {
	if err == nil {
		return
	}
	l.base.Log(context.Background(), level, message, append([]any{"err", err}, args...)...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

// parseLevel defaults to debug in development and info elsewhere.
func parseLevel(value, env string) slog.Level {
	switch normalize(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	}
	if env == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func parseFormat(value string) string {
	switch format := normalize(value); format {
	case FormatJSON, FormatText, FormatPretty:
		return format
	}
	return FormatJSON
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func renameCritical(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
