// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get(KeyAccessToken)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyAccessToken, "tok"))
	v, ok := s.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Delete(KeyAccessToken))
	_, ok = s.Get(KeyAccessToken)
	assert.False(t, ok)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(KeyAPIURL, "http://example.com")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(KeyAPIURL)
		}()
	}
	wg.Wait()
}

func TestFileStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")

	s, err := OpenFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAPIURL, "http://api.example.com"))
	require.NoError(t, s.Set(KeyAccessToken, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := OpenFileStore(path, nil)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyAPIURL)
	assert.True(t, ok)
	assert.Equal(t, "http://api.example.com", v)

	require.NoError(t, reopened.Delete(KeyAccessToken))

	again, err := OpenFileStore(path, nil)
	require.NoError(t, err)
	_, ok = again.Get(KeyAccessToken)
	assert.False(t, ok, "deleted token must not come back")
}

func TestFileStore_DeleteMissingKeyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	s, err := OpenFileStore(path, nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(KeyAccessToken))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no write expected for a no-op delete")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is = = not toml"), 0600))

	_, err := OpenFileStore(path, nil)
	assert.Error(t, err)
}

func TestFileStore_WatchReloadsExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")

	s, err := OpenFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAccessToken, "old"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, func() { changes.Add(1) }) }()

	// Another process logs out: it rewrites the file without the token.
	other, err := OpenFileStore(path, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		// Keep poking until the watcher is registered and sees a write.
		_ = other.Set(KeyAPIURL, "http://other")
		_, ok := s.Get(KeyAPIURL)
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, other.Delete(KeyAccessToken))
	require.Eventually(t, func() bool {
		_, ok := s.Get(KeyAccessToken)
		return !ok
	}, 5*time.Second, 20*time.Millisecond)

	assert.Positive(t, changes.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
