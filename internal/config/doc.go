// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides settings and session-state persistence for ptso.
//
// Two files live under ~/.ptso (or $PTSO_HOME):
//
//   - config.toml: user-editable settings (Config), loaded with defaults,
//     PTSO_* environment overrides and validation
//   - state.toml: a flat key-value table (Store) holding the API base URL
//     and bearer token under fixed key names
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
//	path, _ := config.StatePath()
//	store, err := config.OpenFileStore(path, logger)
//	token, ok := store.Get(config.KeyAccessToken)
package config
