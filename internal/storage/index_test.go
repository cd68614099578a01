/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"scriptdesk/internal/domain"

	_ "modernc.org/sqlite"
)

const indexedVideo = "[HOOK - 0:00-0:05]\nAre you ready to grow?\n\n[PROBLEM - 0:05-0:10]\nMost people stall.\n\n[CTA - 0:10-0:15]\nFollow for more."

// seedWorkspace adds one video script and one LinkedIn post.
func seedWorkspace(t testing.TB) (*WorkspaceHandle, domain.ScriptMeta, domain.ScriptMeta) {
	t.Helper()
	h, err := InitWorkspace(t.TempDir(), domain.Workspace{Name: "Index Test"})
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	video, err := AddScript(h, domain.ScriptMeta{Kind: domain.KindVideo, Platform: "instagram", Title: "Growth reel"}, indexedVideo)
	if err != nil {
		t.Fatalf("AddScript video: %v", err)
	}
	post, err := AddScript(h, domain.ScriptMeta{Kind: domain.KindLinkedIn, Title: "Remote work post"}, "Remote work changed how we hire.")
	if err != nil {
		t.Fatalf("AddScript post: %v", err)
	}
	return h, video, post
}

func openRaw(t *testing.T, root string) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(IndexPath(root)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIndexInitCreatesWALAndTables(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version','scripts','segments','fts_segments','script_snapshots','frames')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 7 {
		t.Fatalf("expected 7 tables, got %d", cnt)
	}
	var schema int
	if err := db.QueryRowContext(ctx, "SELECT schema FROM version WHERE id=1").Scan(&schema); err != nil || schema != schemaVersion {
		t.Fatalf("schema version = %d (%v)", schema, err)
	}
}

func TestRebuildIndexSegments(t *testing.T) {
	h, video, post := seedWorkspace(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RebuildIndex(ctx, h); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	db := openRaw(t, h.Root)
	rows, err := db.QueryContext(ctx, `SELECT position, name, timing, body FROM segments WHERE script_id=? ORDER BY position`, video.ID)
	if err != nil {
		t.Fatalf("query segments: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var pos int
		var name, timing, body string
		if err := rows.Scan(&pos, &name, &timing, &body); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if pos != len(names) {
			t.Fatalf("positions not dense: %d", pos)
		}
		names = append(names, name)
	}
	if fmt.Sprint(names) != "[HOOK PROBLEM CTA]" {
		t.Fatalf("unexpected segment names %v", names)
	}
	var name, timing string
	if err := db.QueryRowContext(ctx, `SELECT name, timing FROM segments WHERE script_id=?`, post.ID).Scan(&name, &timing); err != nil {
		t.Fatalf("post segment: %v", err)
	}
	if name != "Remote work post" || timing != "" {
		t.Fatalf("post indexed as %q/%q", name, timing)
	}
	// rebuilding twice must not duplicate rows
	if err := RebuildIndex(ctx, h); err != nil {
		t.Fatalf("RebuildIndex 2: %v", err)
	}
	var cnt int
	_ = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&cnt)
	if cnt != 4 {
		t.Fatalf("expected 4 segments, got %d", cnt)
	}
}

func TestUpdateScriptIndex(t *testing.T) {
	h, video, _ := seedWorkspace(t)
	ctx := context.Background()
	if err := RebuildIndex(ctx, h); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if err := WriteScript(h, video.ID, "[HOOK - 0:00-0:05]\nbrand new zebra hook"); err != nil {
		t.Fatalf("WriteScript: %v", err)
	}
	if err := UpdateScriptIndex(ctx, h, video.ID); err != nil {
		t.Fatalf("UpdateScriptIndex: %v", err)
	}
	res, err := Search(ctx, h.Root, SearchQuery{Text: "zebra"})
	if err != nil || len(res) != 1 || res[0].ScriptID != video.ID {
		t.Fatalf("expected updated text to be searchable: %+v %v", res, err)
	}
	// deleted rows must leave the FTS table too
	if res, _ := Search(ctx, h.Root, SearchQuery{Text: "stall"}); len(res) != 0 {
		t.Fatalf("stale FTS rows after update: %+v", res)
	}
}

func TestBuildIndexIfEmpty(t *testing.T) {
	h, _, _ := seedWorkspace(t)
	ctx := context.Background()
	if err := BuildIndexIfEmpty(ctx, h); err != nil {
		t.Fatalf("BuildIndexIfEmpty: %v", err)
	}
	res, err := Search(ctx, h.Root, SearchQuery{})
	if err != nil || len(res) != 4 {
		t.Fatalf("expected 4 indexed segments, got %d (%v)", len(res), err)
	}
}
