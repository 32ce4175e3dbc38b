package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"diarias/internal/core"
)

// FileStore keeps the snapshot as an indented JSON document. The same file
// can be edited by the presentation layer; Changed detects those edits by
// modification time and size.
type FileStore struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
}

var (
	_ SnapshotStore  = (*FileStore)(nil)
	_ ChangeDetector = (*FileStore)(nil)
)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(ctx context.Context) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	// Stat before reading: a write landing in between is seen again by Changed.
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("stat snapshot file: %w", err)
	}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot file %s: %w", f.path, err)
	}
	f.rememberInfo(info)
	return snap, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target so readers never observe a partial document.
func (f *FileStore) Save(ctx context.Context, s core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	f.remember()

	slog.DebugContext(ctx, "Snapshot saved", "path", f.path, "working_days", len(s.WorkingDays), "deposits", len(s.Deposits))
	return nil
}

// Changed reports a modification made outside this store. A missing file is
// not a change. The change keeps being reported until a Load succeeds, so an
// edit that could not be decoded is retried.
func (f *FileStore) Changed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat snapshot file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return !info.ModTime().Equal(f.modTime) || info.Size() != f.size, nil
}

func (f *FileStore) remember() {
	if info, err := os.Stat(f.path); err == nil {
		f.rememberInfo(info)
	}
}

func (f *FileStore) rememberInfo(info fs.FileInfo) {
	f.mu.Lock()
	f.modTime = info.ModTime()
	f.size = info.Size()
	f.mu.Unlock()
}
