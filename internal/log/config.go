package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Format is the encoding used for log records.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and everything else to FormatText.
func ParseFormat(s string) Format {
	switch s {
	case "json", "JSON":
		return FormatJSON
	default:
		return FormatText
	}
}

// Config holds logger settings.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// DefaultConfig logs info and above as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// OpenFile opens (or creates) an append-only log file, creating parent
// directories. The console logs here because bubbletea owns the terminal.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("log.OpenFile: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("log.OpenFile: %w", err)
	}
	return f, nil
}
