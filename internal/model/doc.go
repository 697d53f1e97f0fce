// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat history.
//
// A Conversation is an ordered list of Messages belonging to one web
// session. Assistant messages store both the raw model reply and its parsed
// command/explanation split, so the page template renders history without
// touching the parser again.
//
// Everything in this package lives in process memory only; there is no
// persistence layer behind it.
package model
