package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const defaultLogFile = "marketpulse.log"

// InitLogger builds the arbor logger described by config.Logging.
// The returned logger is passed explicitly to every component; there is
// no package-level logger.
func InitLogger(config *Config) arbor.ILogger {
	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}

	logger := arbor.NewLogger()

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			hasFileOutput = true
		case "stdout", "console":
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		logFile, err := resolveLogFile(config.Logging.FilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         logFile,
				TimeFormat:       timeFormat,
				MaxSize:          100 * 1024 * 1024, // 100 MB
				MaxBackups:       3,
				TextOutput:       true,
				DisableTimestamp: false,
			})
		}
	}

	// Always keep a console writer when nothing else is configured
	if hasStdoutOutput || !hasFileOutput {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       timeFormat,
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

// resolveLogFile returns the configured log path, or logs/marketpulse.log
// next to the executable.
func resolveLogFile(configured string) (string, error) {
	logFile := configured
	if logFile == "" {
		execPath, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to get executable path: %w", err)
		}
		logFile = filepath.Join(filepath.Dir(execPath), "logs", defaultLogFile)
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return logFile, nil
}

// GetLogFilePath returns the configured log file path from the logger
func GetLogFilePath(logger arbor.ILogger) string {
	if logger != nil {
		return logger.GetLogFilePath()
	}
	return ""
}
