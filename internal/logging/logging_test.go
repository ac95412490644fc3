package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_FormatSelection(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"console", false},
		{"json", false},
		{"", false},
		{"xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := New(Options{Level: "info", Format: tt.format})
			if (err != nil) != tt.wantErr {
				t.Errorf("New(format=%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestNew_CreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tankobon.log")

	logger, err := New(Options{Level: "debug", Format: "json", Path: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hello", "k", "v")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file is empty after writing a record")
	}
}
