package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spatialphoto/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.mpo")
	empty := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(good, []byte{0xFF, 0xD8}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		passed bool
		detail string
	}{
		{"readable", good, true, "2 bytes"},
		{"missing", filepath.Join(dir, "missing.jpg"), false, "does not exist"},
		{"empty", empty, false, "empty file"},
		{"directory", dir, false, "not a regular file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckFileReadable("input", tt.path)
			if result.Passed != tt.passed {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tt.passed, result.Detail)
			}
			if !strings.Contains(result.Detail, tt.detail) {
				t.Fatalf("detail %q missing %q", result.Detail, tt.detail)
			}
		})
	}
}

func TestInputsUsesConfiguredOutputDir(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.mpo")
	if err := os.WriteFile(input, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "missing-out")

	results := Inputs(&cfg, input)
	if len(results) != 2 {
		t.Fatalf("expected input and output checks, got %d", len(results))
	}
	if !results[0].Passed {
		t.Fatalf("expected input to pass: %s", results[0].Detail)
	}
	if results[1].Passed {
		t.Fatal("expected missing output dir to fail")
	}
	err := FirstError(results)
	if err == nil || !strings.Contains(err.Error(), "Output directory") {
		t.Fatalf("unexpected FirstError: %v", err)
	}
}

func TestRunAllChecksEachOutputDirOnce(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a.mpo", "b.mpo", "c.jpg"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
		inputs = append(inputs, path)
	}
	results := RunAll(nil, inputs)
	if len(results) != 4 {
		t.Fatalf("expected 3 inputs plus 1 output dir, got %d", len(results))
	}
	if err := FirstError(results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
}
