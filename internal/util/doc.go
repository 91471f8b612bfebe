// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the ptso packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync, used for the
//     settings file and the state store
//   - TruncateWidth, PadWidth: display-width aware cell formatting for tables
//   - NormalizeInput: NFC normalization of user-typed text (Vietnamese input
//     methods frequently emit decomposed diacritics)
package util
