package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputPath derives the output file for input: the input stem with ext
// appended, placed in dir when dir is non-empty and beside the input
// otherwise.
func OutputPath(input, dir, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+ext)
}

// AtomicFile writes to a temporary file in the target directory and renames
// it over the target on Commit. Until Commit succeeds nothing exists at the
// target path.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// CreateAtomic opens a temporary file next to target.
func CreateAtomic(target string) (*AtomicFile, error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{File: tmp, target: target}, nil
}

// Target returns the final path.
func (f *AtomicFile) Target() string {
	return f.target
}

// Commit syncs, closes and renames the temporary file into place.
func (f *AtomicFile) Commit(mode os.FileMode) error {
	if f.done {
		return errors.New("atomic file already finished")
	}
	f.done = true
	if err := f.Sync(); err != nil {
		_ = f.File.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(f.Name(), mode); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(f.Name(), f.target); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Abort discards the temporary file. Calling Abort after Commit is a no-op,
// so it is safe to defer.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.File.Close()
	_ = os.Remove(f.Name())
}

// WriteFileAtomic writes data to path through an AtomicFile.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	defer f.Abort()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return f.Commit(mode)
}
