/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package watch reindexes scripts that are edited outside ScriptDesk.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "scriptdesk/internal/log"
)

// DefaultDebounce collapses the bursts editors produce on save.
const DefaultDebounce = 300 * time.Millisecond

// OnChange is called with the script id (file name without .txt) once a file settled.
type OnChange func(ctx context.Context, scriptID string) error

// Watcher watches a scripts directory and calls OnChange per changed script after a quiet period.
// Callbacks run one at a time on the watcher goroutine.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange OnChange
	pending  map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	log      *slog.Logger
}

// minTick bounds how often pending changes are checked for very short debounces.
const minTick = time.Millisecond

// New creates a watcher for dir. A debounce <= 0 means DefaultDebounce.
func New(dir string, debounce time.Duration, onChange OnChange) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("onChange is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      applog.WithComponent("watch").With(slog.String("dir", dir)),
	}, nil
}

// Start begins watching; it does not block. Calling it twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := w.fsw.Add(w.dir); err != nil {
		w.mu.Unlock()
		return err
	}
	w.running = true
	w.mu.Unlock()
	w.log.Info("watching scripts")
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop, waits for it and releases the OS watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fsw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		w.log.Error("close watcher", slog.Any("err", err))
	}
}

// Done is closed when the watch loop exited, e.g. after ctx was cancelled.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	tick := time.NewTicker(max(w.debounce/3, minTick))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", slog.Any("err", err))
		case now := <-tick.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	id, ok := ScriptID(ev.Name)
	if !ok {
		return
	}
	w.mu.Lock()
	w.pending[id] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for id, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, id)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()
	for _, id := range ready {
		if err := w.onChange(ctx, id); err != nil {
			w.log.Warn("reindex failed", slog.String("script", id), slog.Any("err", err))
			continue
		}
		w.log.Debug("reindexed", slog.String("script", id))
	}
}

// ScriptID extracts the script id from a path like scripts/<id>.txt. Hidden and temp files are ignored.
func ScriptID(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".txt") {
		return "", false
	}
	id := strings.TrimSuffix(base, ".txt")
	return id, id != ""
}
