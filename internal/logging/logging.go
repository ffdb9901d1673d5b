package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current Level = LevelInfo
	logFile *os.File
)

// InitFromEnv sets the log level based on LOG_LEVEL (debug|info|warn|error)
// and, when LOG_FILE is set, tees output to that file as well as stdout.
func InitFromEnv() {
	SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	if path := os.Getenv("LOG_FILE"); path != "" {
		if err := SetFile(path); err != nil {
			log.Printf("log file %s: %v", path, err)
		}
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	current = l
}

func Enabled(l Level) bool {
	return current <= l
}

// SetFile appends log output to path in addition to stdout.
func SetFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	Close()
	logFile = f
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// Close detaches and closes the log file, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func Debugf(format string, args ...interface{}) {
	if Enabled(LevelDebug) {
		log.Printf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if Enabled(LevelInfo) {
		log.Printf(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Enabled(LevelWarn) {
		log.Printf("WARN "+format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
