package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// File stores each key as <dir>/<key>.json. Human-readable, portable.
// Every access holds a flock on the value file, so separate processes
// sharing a directory see whole read-modify-write cycles.
type File struct {
	dir string
}

// NewFile creates dir if needed. An empty dir means the working directory.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Path returns the file backing key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *File) Read(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_SH); err != nil {
		return nil, fmt.Errorf("lock file: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return readAll(file)
}

func (f *File) Write(ctx context.Context, key string, value []byte) error {
	return f.Update(ctx, key, func([]byte) ([]byte, error) { return value, nil })
}

func (f *File) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.withLock(key, func(file *os.File) error {
		cur, err := readAll(file)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		return overwrite(file, next)
	})
}

func (f *File) Close() error { return nil }

// withLock runs fn with the value file open read/write and exclusively locked.
func (f *File) withLock(key string, fn func(*os.File) error) error {
	file, err := os.OpenFile(f.Path(key), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock file: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return fn(file)
}

// readAll returns nil for an empty file, which callers treat as absent.
func readAll(file *os.File) ([]byte, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	b, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}

func overwrite(file *os.File, data []byte) error {
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
