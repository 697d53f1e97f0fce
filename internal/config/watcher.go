// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for cmdai.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a changed file must stay quiet before a reload.
// Editors save via rename and often touch a file several times in a burst.
const watchDebounce = 500 * time.Millisecond

// Watcher reloads the global configuration when config.toml or a working
// directory .env changes. It is used by `cmdai serve` so a key or model
// change takes effect without a restart.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onReload func(*Config)

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher. onReload is invoked with the freshly loaded
// config after every successful reload; it may be nil.
func NewWatcher(onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		watcher:  fsw,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for configuration changes.
//
// The config directory is watched rather than the file itself because most
// editors replace files by rename, which drops a watch on the file path.
func (w *Watcher) Watch() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if mkErr := os.MkdirAll(dir, 0755); mkErr == nil {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	// Watch the working directory only when a .env actually exists there.
	if _, err := os.Stat(".env"); err == nil {
		if cwd, err := os.Getwd(); err == nil {
			if err := w.watcher.Add(cwd); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not watch .env: %v\n", err)
			}
		}
	}

	go w.processEvents()
	go w.processPending()

	return nil
}

// processEvents marks a reload pending for relevant filesystem events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "Warning: config watch error: %v\n", err)
		}
	}
}

// processPending performs the debounced reload.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			fire := !w.pending.IsZero() && time.Since(w.pending) >= watchDebounce
			if fire {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if fire {
				w.reload()
			}
		}
	}
}

// reload loads the configuration and publishes it globally.
func (w *Watcher) reload() {
	if err := ReloadGlobal(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config reload failed: %v\n", err)
		return
	}
	if w.onReload != nil {
		w.onReload(Global())
	}
}

// isConfigFile reports whether a changed path is one we care about.
func isConfigFile(path string) bool {
	switch filepath.Base(path) {
	case "config.toml", ".env":
		return true
	}
	return false
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
