package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// activeRotatingWriter tracks the rotating writer for proper cleanup
var activeRotatingWriter *DailyRotatingWriter

// Setup configures application logging: structured output to a daily
// rotating file under logDir plus a console writer on stdout.
func Setup(logDir string) (zerolog.Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zerolog.Nop(), fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileWriter, err := NewDailyRotatingWriter(logDir, "whatsapp-api-%s.log")
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("failed to create log writer: %w", err)
	}

	activeRotatingWriter = fileWriter

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log := zerolog.New(io.MultiWriter(console, fileWriter)).
		With().Timestamp().Logger()

	return log, nil
}

// SetupFallback creates a console-only logger when file logging fails.
func SetupFallback() zerolog.Logger {
	fmt.Println("Failed to set up file logging, using console logging only")
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(console).With().Timestamp().Logger()
}

// Close properly closes the log file
func Close() error {
	if activeRotatingWriter != nil {
		return activeRotatingWriter.Close()
	}
	return nil
}
