package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage writes files to a directory on the server's disk.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	// Names are server-generated; Base strips any path the caller smuggled in.
	path := filepath.Join(s.dir, filepath.Base(name))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", err
	}
	return path, nil
}
