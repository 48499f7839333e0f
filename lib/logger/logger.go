// Package logger builds the base slog.Handler for the process. The Log
// Buffer (internal/logbuf) wraps whatever this returns so every log record
// both reaches the real sink and lands in the bounded in-memory ring the
// debug API reads from.
package logger

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal    = "local"
	envDev      = "dev"
	envProd     = "prod"
	logFileName = "botfleet.log"
)

// SetupHandler returns the base handler for the given environment: a text
// handler on stdout for local, JSON handlers on a log file for dev/prod
// (debug level in dev, info level in prod) — same three-way switch the
// teacher's cmd/server/main.go used before logging moved into its own
// package.
func SetupHandler(env, path string) slog.Handler {
	var logFile *os.File
	var err error

	if env != envLocal {
		logPath := logFilePath(path)
		logFile, err = os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("error opening log file: ", err)
		}
		log.Printf("env: %s; log file: %s", env, logPath)
	}

	switch env {
	case envLocal:
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envDev:
		return slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envProd:
		return slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		log.Fatal("invalid environment: ", env)
		return nil
	}
}

func logFilePath(path string) string {
	return filepath.Join(path, logFileName)
}
