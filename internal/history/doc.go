// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps a local SQLite journal of the API calls ptso makes.
//
// Each row holds when a call was made, its method and path, the HTTP status
// and how long it took. Query strings, bodies and credentials are never
// written. The journal implements api.Recorder:
//
//	j, err := history.Open(cfg.HistoryPath(), cfg.History.Keep)
//	client := api.New(store, api.WithRecorder(j))
//
// The database uses modernc.org/sqlite, so no cgo is required.
package history
