package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Init installs the default logger. Text output is coloured on terminals;
// json output follows the severity/message convention of log collectors.
func Init(logLevel string, logFormat string) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, logLevel, logFormat)))
}

func NewHandler(w io.Writer, logLevel string, logFormat string) slog.Handler {
	if logFormat == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: Level(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
					return a
				case slog.MessageKey:
					a.Key = "message"
					return a
				default:
					return a
				}
			},
		})
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return tint.NewHandler(w, &tint.Options{
		Level:   Level(logLevel),
		NoColor: noColor,
	})
}

func Level(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
