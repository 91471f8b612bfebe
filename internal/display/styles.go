// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// PALETTE
// =============================================================================

// Colors adapt to light and dark terminal backgrounds.
var (
	Cyan      = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Emerald   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	Rose      = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	Amber     = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	Purple    = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// Status indicators carry meaning without color.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
)

// =============================================================================
// STYLES
// =============================================================================

// Styles are the lipgloss styles a Printer uses. They are bound to one
// renderer, so a Printer writing to a pipe gets no escape codes.
type Styles struct {
	Title       lipgloss.Style
	Key         lipgloss.Style
	Muted       lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Info        lipgloss.Style
	TableHeader lipgloss.Style
}

// NewStyles builds the styles for r. Without colors every style is plain,
// bold and underline included.
func NewStyles(r *lipgloss.Renderer) Styles {
	if r.ColorProfile() == termenv.Ascii {
		plain := r.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return Styles{
		Title:       r.NewStyle().Foreground(Purple).Bold(true),
		Key:         r.NewStyle().Foreground(Cyan),
		Muted:       r.NewStyle().Foreground(TextMuted),
		Success:     r.NewStyle().Foreground(Emerald).Bold(true),
		Error:       r.NewStyle().Foreground(Rose).Bold(true),
		Warning:     r.NewStyle().Foreground(Amber).Bold(true),
		Info:        r.NewStyle().Foreground(Cyan),
		TableHeader: r.NewStyle().Foreground(Cyan).Bold(true),
	}
}
