// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer extracts a shell command and its explanation from model replies.
//
// The model is prompted to reply with a ```bash fenced command followed by a
// 说明： line, but real replies drift: the language tag goes missing, the
// closing fence gets dropped, or the model answers conversationally with no
// command at all. Parse tolerates all of these and always returns a usable
// Answer; it has no error path.
//
// Both front ends (the CLI and the web page) render through this package so
// the same reply always produces the same command/explanation split.
//
// # Usage
//
//	ans := answer.Parse(reply)
//	if ans.HasCommand() {
//	    fmt.Println(ans.Command)
//	}
package answer
