// BYZRA ⸻ internal/daemon/logger.go
// daemon logging functionality

package daemon

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// rotation threshold in megabytes
const maxLogSizeMB = 10

// default location, relative to $HOME
var DefaultLogPath = filepath.Join(".metaclean", "logs", "daemon.log")

// daemon activity logging: structured lines to a rotating file,
// optionally mirrored to the console
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
	path string
}

func NewLogger(logPath string, level string, console io.Writer) (*Logger, error) {
	if logPath == "" {
		logPath = filepath.Join(os.Getenv("HOME"), DefaultLogPath)
	}

	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: 3,
		LocalTime:  true,
	}

	var out io.Writer = file
	if console != nil {
		out = zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"})
	}

	return &Logger{
		Logger: zerolog.New(out).Level(lvl).With().Timestamp().Str("component", "daemon").Logger(),
		file:   file,
		path:   logPath,
	}, nil
}

// empty means info
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func (l *Logger) Path() string {
	return l.path
}

// new log file and archives the old one
func (l *Logger) Rotate() error {
	if err := l.file.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	l.Info().Msg("log rotated")
	return nil
}

// close properly
func (l *Logger) Close() error {
	return l.file.Close()
}
