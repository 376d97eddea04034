package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte("host: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		path       string
		wantDir    bool
		wantExists bool
	}{
		{"directory", dir, true, true},
		{"file", file, false, true},
		{"missing", filepath.Join(dir, "nope.yaml"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isDir, exists, err := Exists(tt.path)
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if isDir != tt.wantDir || exists != tt.wantExists {
				t.Errorf("Exists() = (%v, %v), want (%v, %v)", isDir, exists, tt.wantDir, tt.wantExists)
			}
		})
	}

	if !IsFile(file) || IsFile(dir) {
		t.Error("IsFile should accept files only")
	}
}
