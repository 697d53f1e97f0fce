// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the cmdai application.
//
// This package contains common helper functions used throughout the
// application for string handling and file operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: display-width truncation (CJK aware)
//   - StringWidth: terminal column width of a string
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long Chinese replies safely for display
//	display := util.TruncateRunes(longText, 50)
//
//	// Write the config file atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
