// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// TruncateWidth truncates s to at most maxWidth terminal columns.
// Wide characters count as two columns. "..." is appended when s is cut
// and there is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadWidth right-pads s with spaces to exactly width columns, truncating
// first if it is wider.
func PadWidth(s string, width int) string {
	s = TruncateWidth(s, width)
	return runewidth.FillRight(s, width)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// NormalizeInput trims surrounding whitespace and converts s to Unicode NFC.
//
// Terminals on macOS and some Vietnamese IMEs send decomposed sequences
// ("e" + combining circumflex); the backend compares names and messages
// byte-wise, so everything typed by the user goes through here.
func NormalizeInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
