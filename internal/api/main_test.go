// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

// TestMain fails the package if any stream goroutine outlives its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestClient starts a server for h and returns a client pointed at it.
// Keep-alives are off so no transport goroutines survive a test.
func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *config.MemoryStore) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := config.NewMemoryStore()
	require.NoError(t, store.Set(config.KeyAPIURL, srv.URL))

	hc := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	opts = append([]Option{WithHTTPClient(hc)}, opts...)
	return New(store, opts...), store
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
