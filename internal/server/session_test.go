// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cmdai/internal/model"
	"github.com/jeranaias/cmdai/internal/prompt"
)

func newTestStore(max int) *SessionStore {
	return NewSessionStore(max, zerolog.Nop())
}

func TestSessionStoreCreateSeedsGreeting(t *testing.T) {
	store := newTestStore(4)

	sess := store.Create()
	require.NotEmpty(t, sess.ID, "session should get an ID")

	msgs := sess.Messages()
	require.Len(t, msgs, 1, "new session should hold only the greeting")
	require.Equal(t, model.RoleAssistant, msgs[0].Role)
	require.Equal(t, prompt.Greeting, msgs[0].Content)
}

func TestSessionStoreGet(t *testing.T) {
	store := newTestStore(4)
	sess := store.Create()

	got, ok := store.Get(sess.ID)
	require.True(t, ok, "created session should be retrievable")
	require.Same(t, sess, got)

	_, ok = store.Get("no-such-session")
	require.False(t, ok, "unknown ID should miss")
}

func TestSessionStoreEvictsOldest(t *testing.T) {
	store := newTestStore(3)

	first := store.Create()
	time.Sleep(time.Millisecond)
	second := store.Create()
	time.Sleep(time.Millisecond)
	third := store.Create()
	time.Sleep(time.Millisecond)

	// Touch everything except the second, making it the eviction victim.
	store.Get(first.ID)
	store.Get(third.ID)

	store.Create()

	_, ok := store.Get(second.ID)
	require.False(t, ok, "least recently seen session should be evicted")

	_, ok = store.Get(first.ID)
	require.True(t, ok)
	_, ok = store.Get(third.ID)
	require.True(t, ok)
	require.Equal(t, 3, store.Len())
}

func TestSessionStoreMinimumCapacity(t *testing.T) {
	store := newTestStore(0)

	store.Create()
	store.Create()
	require.Equal(t, 1, store.Len(), "capacity below one should clamp to one")
}

func TestSessionReset(t *testing.T) {
	store := newTestStore(4)
	sess := store.Create()
	sess.SetAPIKey("sk-test")

	sess.mu.Lock()
	sess.conversation.Append(model.NewUserMessage("列出进程"))
	sess.conversation.Append(model.NewErrorMessage("请先配置 API Key"))
	sess.mu.Unlock()

	id := sess.ID
	sess.Reset()

	require.Equal(t, id, sess.ID, "reset should keep the session identity")
	require.Equal(t, "sk-test", sess.APIKey(), "reset should keep the API key")

	msgs := sess.Messages()
	require.Len(t, msgs, 1, "reset should leave only the greeting")
	require.Equal(t, prompt.Greeting, msgs[0].Content)
}

func TestSessionAPIKey(t *testing.T) {
	store := newTestStore(4)
	sess := store.Create()

	require.False(t, sess.HasAPIKey())
	require.Empty(t, sess.APIKey())

	sess.SetAPIKey("sk-page")
	require.True(t, sess.HasAPIKey())
	require.Equal(t, "sk-page", sess.APIKey())
}

func TestSessionMessagesReturnsSnapshot(t *testing.T) {
	store := newTestStore(4)
	sess := store.Create()

	msgs := sess.Messages()
	msgs[0] = model.NewUserMessage("被改写了")

	fresh := sess.Messages()
	require.Equal(t, prompt.Greeting, fresh[0].Content,
		"mutating the snapshot should not touch the transcript")
}

func TestSessionStoreConcurrentAccess(t *testing.T) {
	store := newTestStore(16)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sess := store.Create()
			sess.SetAPIKey(fmt.Sprintf("sk-%d", n))
			store.Get(sess.ID)
			sess.Messages()
		}(i)
	}
	wg.Wait()

	require.LessOrEqual(t, store.Len(), 16, "store should never exceed its capacity")
}
