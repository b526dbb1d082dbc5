package main

import (
	slogmulti "github.com/samber/slog-multi"
	"io"
	"log/slog"
	"os"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const errorLogPath = "errors.log"

// setupLogger writes everything to stdout and errors also to errors.log.
func setupLogger(env string) (*slog.Logger, func() error) {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		slog.Warn("Cannot open error log file", "error", err)
		return newLogger(env, level, os.Stdout, nil), func() error { return nil }
	}

	return newLogger(env, level, os.Stdout, errorFile), errorFile.Close
}

func newLogger(env string, level slog.Level, out, errs io.Writer) *slog.Logger {
	var core slog.Handler
	switch env {
	case envDev:
		core = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	default:
		core = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	if errs == nil {
		return slog.New(core)
	}

	errorHandler := slog.NewTextHandler(errs, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(slogmulti.Fanout(core, errorHandler))
}
