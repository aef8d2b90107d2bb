package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps uploads on the local filesystem under basePath.
type LocalStore struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path must not be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create storage dir %q: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.OpenInRoot(l.basePath, filepath.Clean(key))
}

func (l *LocalStore) Save(_ context.Context, key string, body io.Reader) error {
	dest := filepath.Join(l.basePath, filepath.Clean(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("cannot create dir for %q: %w", key, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", key, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest) // don't leave a truncated file behind
		return fmt.Errorf("cannot write %q: %w", key, err)
	}

	return f.Close()
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(l.basePath, filepath.Clean(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists takes a key and returns true if the file exists and can be opened
func (l *LocalStore) Exists(_ context.Context, key string) bool {
	f, err := os.OpenInRoot(l.basePath, filepath.Clean(key))
	if err != nil {
		return false
	}

	defer f.Close() // overkill to consider errors if only checking existence
	return true
}
