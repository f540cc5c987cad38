// Package protocol provides structured logging for the protocol package
package protocol

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/logging"
)

// Package-level logger for protocol operations
var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar) // Dynamic level control
	closeLogger    func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "protocol.log")
	initialLevel := slog.LevelInfo
	levelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "protocol", levelVar)
	if err != nil {
		// Fallback: log error to standard log and disable file output
		log.Printf("Failed to initialize protocol file logger at %s: %v. Using console logging.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
		logger = slog.New(fbHandler).With("service", "protocol")
		closeLogger = func() error { return nil }
	}
}

// GetLogger returns the package logger. Thread-safe initialization is
// guaranteed through sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		if logger == nil {
			logger = slog.Default().With("service", "protocol")
		}
	})
	return logger
}

// CloseLogger closes the log file and releases resources
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
