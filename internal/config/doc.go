// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for cmdai.
//
// Configuration lives in ~/.cmdai/config.toml and is resolved with this
// precedence, highest first:
//
//   - Environment variables: CMDAI_API_KEY, CMDAI_BASE_URL, CMDAI_MODEL,
//     CMDAI_TIMEOUT_SECS, CMDAI_PORT, CMDAI_NO_COLOR. The key is also
//     accepted from SILICONFLOW_API_KEY and API_KEY so .env files written
//     for earlier releases keep working.
//   - A .env file in the working directory (fills unset variables only).
//   - The config file itself.
//   - Built-in defaults.
//
// # Security
//
// The config file stores the API key, so it is created with 0600 permissions
// and loading tightens the mode if something loosened it. Debug output via
// Config.String redacts the key.
//
// # Usage
//
//	cfg := config.Global()
//	if !cfg.HasKey() {
//	    // prompt for a key
//	}
//
// `cmdai serve` additionally runs a Watcher that reloads the global config
// when config.toml or .env changes on disk.
package config
