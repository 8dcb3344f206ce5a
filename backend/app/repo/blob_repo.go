package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobRepository stores uploaded file contents under an opaque key.
type BlobRepository interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// DiskBlobRepository keeps one file per blob inside dir.
type DiskBlobRepository struct {
	dir string
}

func NewDiskBlobRepository(dir string) (*DiskBlobRepository, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "sagiri-relay")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &DiskBlobRepository{dir: dir}, nil
}

func (r *DiskBlobRepository) Dir() string { return r.dir }

// Path returns where key lives on disk.
func (r *DiskBlobRepository) Path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(r.dir, key), nil
}

func (r *DiskBlobRepository) Put(_ context.Context, key string, src io.Reader) (int64, error) {
	path, err := r.Path(key)
	if err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(r.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return n, fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return n, fmt.Errorf("commit blob: %w", err)
	}
	return n, nil
}

func (r *DiskBlobRepository) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := r.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (r *DiskBlobRepository) Delete(_ context.Context, key string) error {
	path, err := r.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (r *DiskBlobRepository) Close() error { return nil }
