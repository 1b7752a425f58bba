package training

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// FileLog is an append-only text log receiving one summary line per epoch.
// It implements LogAppender.
type FileLog struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileLog opens (or creates) the log file for appending.
func NewFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open training log: %w", err)
	}
	return &FileLog{f: f}, nil
}

// Append writes one timestamped line to the log.
func (l *FileLog) Append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := fmt.Fprintf(l.f, "%s %s\n", time.Now().Format(time.RFC3339), line)
	return err
}

// Close closes the underlying file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
