// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

// Fixed state keys. The names match the ones the web harness used in
// localStorage so a state file can be filled from a browser export.
const (
	KeyAPIURL      = "apiUrl"
	KeyAccessToken = "accessToken"
)

// Store is a small persistent key-value store for session state.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore is a Store persisted as a flat TOML table.
// Every mutation rewrites the file atomically with 0600 permissions since
// it holds the bearer token.
type FileStore struct {
	path string
	log  *zap.Logger

	mu   sync.RWMutex
	data map[string]string
}

// OpenFileStore loads the store at path. A missing file is an empty store.
func OpenFileStore(path string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &FileStore{path: path, log: log, data: make(map[string]string)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the backing file, replacing the in-memory view.
func (s *FileStore) Reload() error {
	data := make(map[string]string)
	if _, err := toml.DecodeFile(s.path, &data); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) flushLocked() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.data); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Watch reloads the store whenever the backing file changes on disk, then
// calls onChange (if non-nil). It blocks until ctx is done.
//
// The parent directory is watched rather than the file because atomic
// writes replace the inode.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.log.Warn("state reload failed", zap.String("path", s.path), zap.Error(err))
				continue
			}
			s.log.Debug("state reloaded", zap.String("path", s.path))
			if onChange != nil {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("state watcher error", zap.Error(err))
		}
	}
}
