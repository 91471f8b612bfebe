// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package display turns API results into terminal output.
//
// A Printer writes values as text, JSON or YAML. Text mode pretty-prints
// JSON (highlighted with chroma when color is on), renders chat answers as
// markdown with glamour, and lays out tables by display width so that
// Vietnamese and CJK text lines up. Errors always go to the error writer.
//
// Color is used only when it is enabled and the writer is a terminal.
package display
