package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Logger is the process-wide structured logger. It discards everything
// until Initialize enables debug logging, so the console stays reserved
// for the report stream.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Initialize sets up debug logging to a file.
//
// Environment variables FLAPCHECK_DEBUG and FLAPCHECK_DEBUG_FILE override
// the arguments, so wrapper scripts can turn on logging without touching
// flags. With debug off and no file configured, logs are discarded.
func Initialize(debug bool, debugFile string) error {
	if os.Getenv("FLAPCHECK_DEBUG") == "1" {
		debug = true
	}
	if envFile := os.Getenv("FLAPCHECK_DEBUG_FILE"); envFile != "" && debugFile == "" {
		debugFile = envFile
	}

	if !debug && debugFile == "" {
		return nil
	}

	logFilePath := debugFile
	if logFilePath == "" {
		logDir, err := defaultLogDir()
		if err != nil {
			return err
		}
		logFilePath = filepath.Join(logDir, fmt.Sprintf("%s.log", uuid.New().String()))
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}

	Logger = slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	Logger.Debug("debug logging enabled", "file", logFilePath)

	return nil
}

func defaultLogDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve log directory: %w", err)
	}
	return filepath.Join(cacheDir, "flapcheck", "logs"), nil
}
