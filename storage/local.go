package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images below Root; the router serves Root at BaseURL.
type LocalStore struct {
	limits
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string, maxBytes int64) *LocalStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{limits: limits{maxBytes: maxBytes}, Root: root, BaseURL: baseURL}
}

func (s *LocalStore) Save(_ context.Context, u Upload) (string, error) {
	contentType, err := s.sniff(u)
	if err != nil {
		return "", err
	}
	name := newObjectName(contentType)
	full := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, u.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// Delete ignores files that are already gone.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	if !validName(name) {
		return fmt.Errorf("refusing to delete %q", name)
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.BaseURL + name
}
