package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File stores each key as <dir>/<key>.json. Writes go to a temporary file
// that is renamed over the target, so a reader never observes a partial value.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a file backend rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("backend: file backend requires a directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, unavailable("init directory "+dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) pathForKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("backend: invalid key (empty)")
	}
	if strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return "", fmt.Errorf("backend: invalid key %q (contains path separator)", key)
	}
	dir, err := filepath.Abs(f.dir)
	if err != nil {
		return "", fmt.Errorf("backend: abs dir: %w", err)
	}
	resolved := filepath.Join(dir, key+".json")
	if !strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("backend: path traversal detected for key %q", key)
	}
	return resolved, nil
}

// Get reads the value for key. A missing file is reported as absent.
func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, unavailable("get "+key, err)
	}
	path, err := f.pathForKey(key)
	if err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("read "+path, err)
	}
	return b, true, nil
}

// Set atomically replaces the value for key.
func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set "+key, err)
	}
	path, err := f.pathForKey(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return unavailable("write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return unavailable("atomic rename "+path, err)
	}
	return nil
}

// Close is a no-op; File holds no open handles between calls.
func (f *File) Close() error { return nil }
