package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore maps keys onto files under Root. Keys use forward slashes.
type LocalStore struct {
	Root string
}

// NewLocalStore creates Root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", root, err)
	}
	return &LocalStore{Root: root}, nil
}

func (s *LocalStore) Name() string { return "local:" + s.Root }

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &TransportError{Op: "exists", Key: key, Err: err}
	}
	info, err := os.Stat(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &TransportError{Op: "exists", Key: key, Err: err}
	}
	if info.IsDir() {
		return false, &TransportError{Op: "exists", Key: key, Err: fmt.Errorf("is a directory")}
	}
	return true, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: "put", Key: key, Err: err}
	}
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return &TransportError{Op: "put", Key: key, Err: err}
	}
	// write-then-rename: a partial file must never look like a finished key
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &TransportError{Op: "put", Key: key, Err: err}
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return &TransportError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "get", Key: key, Err: err}
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &TransportError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, &TransportError{Op: "list", Key: prefix, Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}
