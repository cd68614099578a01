/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"scriptdesk/internal/backend"
	"scriptdesk/internal/config"
	"scriptdesk/internal/domain"
	"scriptdesk/internal/script"
	"scriptdesk/internal/storage"
)

// keptSnapshots is how many stored versions of a script survive pruning.
const keptSnapshots = 50

// app is the state shared by all commands of one invocation.
type app struct {
	root  string
	out   io.Writer
	cfg   config.AppConfig
	token string
	log   *slog.Logger

	h *storage.WorkspaceHandle
}

// workspace returns the opened workspace, or nil. It feeds the crash handler.
func (a *app) workspace() *storage.WorkspaceHandle { return a.h }

// open loads the workspace and makes sure its index is usable.
func (a *app) open(ctx context.Context) (*storage.WorkspaceHandle, error) {
	if a.h != nil {
		return a.h, nil
	}
	abs, err := filepath.Abs(a.root)
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", abs, err)
	}
	a.h = h
	if h.Recovered {
		a.log.Warn("manifest restored from backup", slog.String("root", abs))
	}
	if rebuilt, err := storage.DetectAndRebuildIndex(ctx, h); err != nil {
		a.log.Warn("index check failed", slog.Any("err", err))
	} else if rebuilt {
		a.log.Info("index rebuilt", slog.String("root", abs))
	}
	if err := storage.BuildIndexIfEmpty(ctx, h); err != nil {
		a.log.Warn("initial index build failed", slog.Any("err", err))
	}
	return h, nil
}

// load resolves a script id or prefix and parses its text.
func (a *app) load(ctx context.Context, idOrPrefix string) (domain.ScriptMeta, string, script.Document, error) {
	h, err := a.open(ctx)
	if err != nil {
		return domain.ScriptMeta{}, "", script.Document{}, err
	}
	meta, err := storage.FindScript(h, idOrPrefix)
	if err != nil {
		return domain.ScriptMeta{}, "", script.Document{}, err
	}
	text, err := storage.ReadScript(h, meta.ID)
	if err != nil {
		return domain.ScriptMeta{}, "", script.Document{}, err
	}
	return meta, text, storage.DocumentFor(meta, text), nil
}

// commit writes a new text for a script, keeps the previous one in the history and
// reindexes the script. previous may be empty for new scripts.
func (a *app) commit(ctx context.Context, id, previous, text string) error {
	h, err := a.open(ctx)
	if err != nil {
		return err
	}
	if previous != "" && previous != text {
		if err := storage.SaveScriptSnapshot(ctx, h, id, previous, time.Now()); err != nil {
			a.log.Warn("snapshot failed", slog.String("script", id), slog.Any("err", err))
		} else if _, err := storage.PruneOldScriptSnapshots(ctx, h, id, keptSnapshots); err != nil {
			a.log.Warn("snapshot prune failed", slog.String("script", id), slog.Any("err", err))
		}
	}
	if err := storage.WriteScript(h, id, text); err != nil {
		return err
	}
	return a.reindex(ctx, id)
}

func (a *app) reindex(ctx context.Context, id string) error {
	if err := storage.UpdateScriptIndex(ctx, a.h, id); err != nil {
		return fmt.Errorf("update index: %w", err)
	}
	return nil
}

// client builds a backend client from the user config and stored token.
func (a *app) client() *backend.Client {
	hc := &http.Client{Timeout: a.cfg.Backend.Timeout()}
	if a.cfg.Backend.TLSInsecure {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev servers
		hc.Transport = tr
	}
	return backend.NewClient(a.cfg.Backend.BaseURL, a.token).WithHTTPClient(hc)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
