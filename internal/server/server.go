// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// server.go - HTTP server for the cmdai web chat surface.
//
// One page, three actions. Every submission is a full POST/redirect/GET
// cycle: the handler appends to the session transcript, makes at most one
// upstream call, and redirects back to the page. Transport failures become
// error bubbles in the transcript, never HTTP errors.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/cmdai/internal/answer"
	"github.com/jeranaias/cmdai/internal/config"
	"github.com/jeranaias/cmdai/internal/llm"
	"github.com/jeranaias/cmdai/internal/model"
	"github.com/jeranaias/cmdai/internal/prompt"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// sessionCookieName carries the session ID between requests.
	sessionCookieName = "cmdai_session"

	// MaxRequestBodySize caps form submissions to prevent DoS. A chat form
	// holds one message and optionally one key; 64 KiB is generous.
	MaxRequestBodySize = 64 * 1024

	// Server timeouts. The write timeout must outlast one upstream call.
	readTimeout  = 30 * time.Second
	writeTimeout = 120 * time.Second
	idleTimeout  = 120 * time.Second
)

// missingKeyText is the error bubble shown when no API key is resolvable.
const missingKeyText = "请先配置 API Key"

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP server behind `cmdai serve`.
type Server struct {
	addr    string
	version string

	router *http.ServeMux
	server *http.Server
	store  *SessionStore
	logger zerolog.Logger

	// cfg is swapped wholesale on config reload; guarded by mu.
	mu  sync.RWMutex
	cfg *config.Config
}

// New creates a server for the given configuration. The listen address is
// fixed at construction; key, model and base URL changes can be applied
// later via UpdateConfig.
func New(cfg *config.Config, version string) *Server {
	logger := newLogger()

	s := &Server{
		addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Web.Port),
		version: version,
		router:  http.NewServeMux(),
		store:   NewSessionStore(cfg.Web.MaxSessions, logger),
		logger:  logger,
		cfg:     cfg.Clone(),
	}

	s.setupRoutes()
	return s
}

// newLogger builds the server's console logger.
func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
}

// WithLogger replaces the server's logger. Used by tests to silence output.
func (s *Server) WithLogger(logger zerolog.Logger) *Server {
	s.logger = logger
	s.store.logger = logger
	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// UpdateConfig swaps in a reloaded configuration. Key, model, base URL and
// timeout take effect on the next submission; a changed port cannot be
// applied to a bound listener and is logged instead.
func (s *Server) UpdateConfig(next *config.Config) {
	if next == nil {
		return
	}

	s.mu.Lock()
	prevPort := s.cfg.Web.Port
	s.cfg = next.Clone()
	s.mu.Unlock()

	s.logger.Info().
		Bool("api_configured", next.HasKey()).
		Str("model", next.API.Model).
		Msg("CONFIG_RELOAD")

	if next.Web.Port != prevPort {
		s.logger.Warn().
			Int("port", next.Web.Port).
			Msg("CONFIG_PORT_CHANGE_REQUIRES_RESTART")
	}
}

// currentConfig returns the live configuration snapshot.
func (s *Server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("POST /chat", s.handleChat)
	s.router.HandleFunc("POST /reset", s.handleReset)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the router wrapped in the full middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(DefaultRateLimiter(), s.logger),
	)(s.router)
}

// ============================================================================
// PAGE HANDLER
// ============================================================================

// handleIndex handles GET /. It renders the whole chat page from the
// session's transcript.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionForRequest(w, r)
	cfg := s.currentConfig()

	page := s.buildPageData(sess, cfg)

	// RELIABILITY: render to a buffer first so a template fault yields a
	// clean 500 instead of a half-written page.
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		s.logger.Error().Err(err).Msg("TEMPLATE_RENDER_FAILED")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// sessionForRequest resolves the request's session, creating one and
// setting the cookie when the visitor is new or their session was evicted.
func (s *Server) sessionForRequest(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if sess, ok := s.store.Get(cookie.Value); ok {
			return sess
		}
	}

	sess := s.store.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /chat: one submission, at most one upstream call,
// then a 303 back to the page.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn().Err(err).Msg("FORM_PARSE_FAILED")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess := s.sessionForRequest(w, r)
	cfg := s.currentConfig()

	message := strings.TrimSpace(r.FormValue("message"))
	pageKey := strings.TrimSpace(r.FormValue("api_key"))

	// The session lock spans the whole cycle, so a conversation processes
	// one submission at a time.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if pageKey != "" {
		sess.apiKey = pageKey
	}

	// Empty submissions are ignored, mirroring the CLI's re-prompt.
	if message == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess.conversation.Append(model.NewUserMessage(message))

	// Page-supplied key wins over the server-side config.
	key := sess.apiKey
	if key == "" {
		key = cfg.API.Key
	}
	if key == "" {
		sess.conversation.Append(model.NewErrorMessage(missingKeyText))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	start := time.Now()
	client := llm.NewClient(key).
		WithBaseURL(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout())
	client.SetModel(cfg.API.Model)

	raw, err := client.Chat(r.Context(), prompt.Build(message))
	if err != nil {
		s.logger.Warn().
			Err(err).
			Dur("latency", time.Since(start)).
			Msg("QUERY_FAILED")

		sess.conversation.Append(model.NewErrorMessage(webErrorText(err)))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ans := answer.Parse(raw)
	reply := model.NewAssistantMessage(ans)
	sess.conversation.Append(reply)

	s.logger.Info().
		Bool("has_command", ans.HasCommand()).
		Str("reply", reply.Preview(80)).
		Dur("latency", time.Since(start)).
		Msg("QUERY_COMPLETE")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// webErrorText converts a failed upstream call into the bubble text shown
// to the user. The HTTP branch keeps the upstream status and body verbatim.
func webErrorText(err error) string {
	var httpErr *llm.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("API 请求失败: %d - %s", httpErr.Status, httpErr.Body)
	}
	return fmt.Sprintf("发生错误: %v", err)
}

// ============================================================================
// RESET HANDLER
// ============================================================================

// handleReset handles POST /reset: drop the transcript back to the greeting.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionForRequest(w, r)
	sess.Reset()

	s.logger.Debug().Str("session", sess.ID).Msg("SESSION_RESET")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	APIConfigured bool   `json:"api_configured"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.currentConfig()

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       s.version,
		APIConfigured: cfg.HasKey(),
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	s.logger.Info().
		Str("addr", s.addr).
		Str("version", s.version).
		Msg("SERVER_START")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info().
		Int("sessions", s.store.Len()).
		Msg("SERVER_SHUTDOWN")

	return s.server.Shutdown(ctx)
}
