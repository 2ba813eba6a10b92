package scanner

import (
	"fmt"
	"io"
	"os"
)

// alertSink mirrors every alert line to the console and the append-only log file
type alertSink struct {
	console io.Writer
	file    *os.File
	path    string
}

// openSink opens path for appending, creating it when missing.
// Existing content is never truncated.
func openSink(console io.Writer, path string) (*alertSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert log %s: %w", path, err)
	}
	return &alertSink{console: console, file: f, path: path}, nil
}

// Emit writes one line to the console, then to the log file.
// Each destination gets the line in a single Write call.
func (s *alertSink) Emit(line string) error {
	buf := []byte(line + "\n")
	if _, err := s.console.Write(buf); err != nil {
		return fmt.Errorf("failed to write alert to console: %w", err)
	}
	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("failed to append alert to %s: %w", s.path, err)
	}
	return nil
}

func (s *alertSink) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close alert log %s: %w", s.path, err)
	}
	return nil
}
