// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the web chat surface started by `cmdai serve`.
//
// The server renders a single HTML chat page and forwards each submitted
// task description to the SiliconFlow API. No client-side scripting is used;
// submissions follow the POST/redirect/GET pattern so the transcript is
// plain server-rendered state.
//
// # Endpoints
//
//   - GET  /       - The chat page: transcript, input form, optional key field
//   - POST /chat   - One form submission {message, api_key?}, then 303 to /
//   - POST /reset  - Clears the session transcript back to the greeting
//   - GET  /health - JSON health probe {status, version, api_configured}
//
// # Sessions
//
// Each visitor gets a `cmdai_session` HttpOnly cookie mapping to an
// in-memory Conversation seeded with the assistant greeting. History is
// display state only: it is never sent to the model and never persisted,
// so restarting the server clears every transcript. When the store is
// full the least recently used session is evicted synchronously.
//
// # Security
//
//   - Listens on 127.0.0.1 only
//   - Panic recovery, security headers, request logging, per-IP rate limit
//   - Request bodies capped with http.MaxBytesReader
//   - All model output is HTML-escaped or passes through chroma's escaper
//
// # Usage
//
//	srv := server.New(cfg, version)
//	go func() { errCh <- srv.ListenAndServe() }()
//	...
//	srv.Shutdown(ctx)
package server
