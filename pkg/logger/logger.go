package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
	mu            sync.Mutex
)

// Init builds the process logger. Production gets JSON, everything else
// text, unless format names one explicitly.
func Init(env, lvl string, format ...string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	SetLevel(lvl)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	useJSON := env == "production"
	if len(format) > 0 && format[0] != "" {
		useJSON = format[0] == "json"
	}
	if useJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// SetLevel changes the level of every logger built by Init.
func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

func Level() slog.Level {
	return level.Level()
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		return Init("development", "debug")
	}
	return defaultLogger
}
