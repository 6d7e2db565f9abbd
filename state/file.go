/*
file.go - YAML file-backed Store

PURPOSE:
  Persists the household document as a single YAML file, the shape a
  household would keep in a dotfiles repo and edit by hand. A missing
  file reads as an empty default household. Saves go through a temp
  file and rename so a crash mid-write never leaves a torn document.
*/
package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(_ context.Context) (*StateFile, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", f.path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", f.path, err)
	}
	return s, nil
}

func (f *FileStore) Save(_ context.Context, s *StateFile) error {
	if _, err := s.Validate(); err != nil {
		return err
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write state %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write state %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
