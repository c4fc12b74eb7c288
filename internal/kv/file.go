package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// File stores each key as <dir>/<key>.json. A lock file in dir serializes
// writers across processes sharing the directory; mu serializes goroutines
// within this one.
type File struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

func (f *File) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *File) Get(_ context.Context, key string, dest any) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if err := f.lock.RLock(); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("lock data dir: %w", err)
	}
	data, err := os.ReadFile(path)
	f.lock.Unlock()
	f.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("file get %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

func (f *File) Set(_ context.Context, key string, value any) error {
	start := time.Now()
	path, err := f.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	defer f.lock.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	logSet("file", key, start)
	return nil
}

func (f *File) Close() error {
	return f.lock.Close()
}
