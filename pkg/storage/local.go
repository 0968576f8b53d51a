package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects on the local filesystem. It backs development
// setups and tests; the layout mirrors the bucket layout.
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: abs, baseURL: baseURL}, nil
}

// Dir is the directory objects are written under.
func (s *LocalStorage) Dir() string { return s.baseDir }

func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes base directory", key)
	}
	return full, nil
}

func (s *LocalStorage) Put(_ context.Context, key string, data []byte, opts PutOptions) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	if !opts.Upsert {
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return "", fmt.Errorf("%s: %w", key, ErrObjectExists)
			}
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return s.PublicURL(key), nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

func (s *LocalStorage) Delete(_ context.Context, keys []string) error {
	failed := make(map[string]error)
	for _, k := range keys {
		full, err := s.resolve(k)
		if err != nil {
			failed[k] = err
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			failed[k] = err
		}
	}
	if len(failed) > 0 {
		return &PartialDeleteError{Failed: failed}
	}
	return nil
}

func (s *LocalStorage) PublicURL(key string) string {
	return joinURL(s.baseURL, key)
}
