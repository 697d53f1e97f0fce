// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session.go - In-memory web session store for the cmdai chat page.
//
// Sessions live for the lifetime of the process only. Each session binds a
// cookie value to one Conversation and, optionally, to an API key typed into
// the page. Nothing here touches disk.
package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/cmdai/internal/answer"
	"github.com/jeranaias/cmdai/internal/model"
	"github.com/jeranaias/cmdai/internal/prompt"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is one browser's chat state.
//
// The session mutex serializes whole submission cycles, so a conversation
// processes one query at a time even though the HTTP server is concurrent.
type Session struct {
	// ID is the uuid value stored in the session cookie.
	ID string

	// CreatedAt records when the visitor first arrived.
	CreatedAt time.Time

	// lastSeen is used for eviction ordering. Guarded by the store's mutex,
	// not the session's.
	lastSeen time.Time

	mu           sync.Mutex
	conversation *model.Conversation

	// apiKey holds a key typed into the page's key field. It takes
	// precedence over the server-side config for this session.
	// SECURITY: kept in memory only, never logged, never persisted.
	apiKey string
}

// newSession creates a session with a greeted conversation.
func newSession() *Session {
	return &Session{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now(),
		conversation: newGreetedConversation(),
	}
}

// newGreetedConversation builds the empty transcript every session and every
// reset starts from.
func newGreetedConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.Append(model.NewAssistantMessage(answer.Answer{Raw: prompt.Greeting}))
	return conv
}

// Reset drops the transcript back to the greeting. The session identity and
// any stored API key survive.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversation = newGreetedConversation()
}

// Messages returns a snapshot of the transcript for rendering.
func (s *Session) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Message, len(s.conversation.Messages))
	copy(out, s.conversation.Messages)
	return out
}

// SetAPIKey stores a page-supplied key for this session.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// APIKey returns the page-supplied key, or "" if none was given.
func (s *Session) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}

// HasAPIKey reports whether this session carries its own key.
func (s *Session) HasAPIKey() bool {
	return s.APIKey() != ""
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore maps cookie values to sessions.
//
// The store is bounded: past maxSessions the least recently used session is
// evicted synchronously during Create, so no background sweeper is needed.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	logger      zerolog.Logger
}

// NewSessionStore creates a store holding at most maxSessions sessions.
func NewSessionStore(maxSessions int, logger zerolog.Logger) *SessionStore {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// Get looks up a session by cookie value and marks it as recently used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = time.Now()
	return sess, true
}

// Create registers a fresh greeted session, evicting the least recently
// used one first if the store is full.
func (st *SessionStore) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.maxSessions {
		st.evictOldestLocked()
	}

	sess := newSession()
	sess.lastSeen = time.Now()
	st.sessions[sess.ID] = sess

	st.logger.Debug().
		Str("session", sess.ID).
		Int("total", len(st.sessions)).
		Msg("SESSION_CREATED")

	return sess
}

// evictOldestLocked removes the session with the oldest lastSeen.
// Caller must hold st.mu.
func (st *SessionStore) evictOldestLocked() {
	var oldestID string
	var oldestSeen time.Time

	for id, sess := range st.sessions {
		if oldestID == "" || sess.lastSeen.Before(oldestSeen) {
			oldestID = id
			oldestSeen = sess.lastSeen
		}
	}

	if oldestID != "" {
		delete(st.sessions, oldestID)
		st.logger.Info().
			Str("session", oldestID).
			Msg("SESSION_EVICTED")
	}
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
