package training

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLog_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.log")

	fl, err := NewFileLog(path)
	if err != nil {
		t.Fatalf("NewFileLog failed: %v", err)
	}

	if err := fl.Append("epoch 1: precision 1.0000 recall 0.5000 f1 0.6667 best=true"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := fl.Append("epoch 2: precision 0.0000 recall 0.0000 f1 0.0000 best=false"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "epoch 1") || !strings.Contains(lines[1], "epoch 2") {
		t.Errorf("lines out of order or missing: %q", lines)
	}
	// Each line starts with an RFC3339 timestamp
	for i, line := range lines {
		if !strings.Contains(line, "T") || len(line) < 20 {
			t.Errorf("line %d missing timestamp prefix: %q", i, line)
		}
	}
}

func TestFileLog_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.log")

	for i := 0; i < 2; i++ {
		fl, err := NewFileLog(path)
		if err != nil {
			t.Fatalf("NewFileLog failed: %v", err)
		}
		if err := fl.Append("run line"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := fl.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if got := strings.Count(string(data), "run line"); got != 2 {
		t.Errorf("expected 2 appended lines across reopens, got %d", got)
	}
}

func TestNewFileLog_BadPath(t *testing.T) {
	_, err := NewFileLog(filepath.Join(t.TempDir(), "missing", "train.log"))
	if err == nil {
		t.Error("expected error for unwritable path")
	}
}
