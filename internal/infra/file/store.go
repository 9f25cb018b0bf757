package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yaroph/connect/internal/domain"
)

// Store persists documents as JSON files in a directory. Writes go through
// a temp file and rename so a crash never leaves a half-written document.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	// Keys are fixed document names, but never trust them as paths.
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrKeyNotFound
	}
	return data, err
}

func (s *Store) Set(_ context.Context, key string, data []byte) error {
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(key)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// ImageStore keeps uploaded images as plain files next to the documents.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return &ImageStore{dir: dir}, nil
}

func (s *ImageStore) Put(_ context.Context, filename string, data []byte, _ string) error {
	return os.WriteFile(filepath.Join(s.dir, filepath.Base(filename)), data, 0o644)
}

func (s *ImageStore) Fetch(_ context.Context, filename string) ([]byte, string, error) {
	clean := filepath.Base(filename)
	if strings.HasPrefix(clean, ".") {
		return nil, "", domain.ErrImageNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", domain.ErrImageNotFound
	}
	if err != nil {
		return nil, "", err
	}
	// Content type is recovered from the extension by the caller.
	return data, "", nil
}
