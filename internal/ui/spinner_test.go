// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_ViewAndDone(t *testing.T) {
	m := NewModel("Analyzing")
	assert.NotNil(t, m.Init())

	view := m.View()
	assert.Contains(t, view, "Analyzing...")
	assert.Contains(t, view, "(0s)")

	next, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "5s", formatElapsed(5*time.Second))
	assert.Equal(t, "2m 3s", formatElapsed(123*time.Second))
}

func TestRun_Disabled(t *testing.T) {
	var out bytes.Buffer

	got, err := Run(context.Background(), &out, false, "Loading", func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Empty(t, out.String(), "nothing drawn when disabled")

	wantErr := errors.New("boom")
	_, err = Run(context.Background(), &out, false, "Loading", func(context.Context) (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestRun_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &bytes.Buffer{}, false, "Loading", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
