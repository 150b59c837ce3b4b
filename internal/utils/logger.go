package utils

import (
	"log/slog"
	"os"
	"strings"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// SetLogger swaps the process-wide event logger (JSON in production, text in dev).
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Logger returns the process-wide event logger.
func Logger() *slog.Logger { return logger }

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	logger.Info(message,
		"module", strings.ToUpper(module),
		"action", action,
		"request_id", strings.TrimSpace(requestID),
	)
}

// LogError is LogEvent at error level with the error attached.
func LogError(requestID, module, action string, err error) {
	if err == nil {
		return
	}
	logger.Error(err.Error(),
		"module", strings.ToUpper(module),
		"action", action,
		"request_id", strings.TrimSpace(requestID),
	)
}
