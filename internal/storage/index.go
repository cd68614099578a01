/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scriptdesk/internal/domain"
	applog "scriptdesk/internal/log"
	"scriptdesk/internal/script"
	"scriptdesk/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds all derived per-workspace data.
	IndexDirName  = ".sd"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump it together with a step in runMigrations.
	schemaVersion = 2

	// tsLayout is fixed-width so stored timestamps sort as text.
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// IndexPath returns the full path to the workspace's index database file.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that .sd/index.sqlite exists, opens it in WAL mode and brings the
// schema up to date. Callers close the returned DB.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema steps up to schemaVersion. Newer databases are left alone.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// segment name lookups and frame cache eviction
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_segments_name ON segments(lower(name));`,
				`CREATE INDEX IF NOT EXISTS idx_frames_access ON frames(last_access);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the index tables, the FTS table and its sync triggers.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS scripts (
			script_id  TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			kind       TEXT NOT NULL,
			platform   TEXT,
			updated_at TEXT NOT NULL
		);`,
		// One row per parsed segment, position is the playback order.
		`CREATE TABLE IF NOT EXISTS segments (
			seg_id    INTEGER PRIMARY KEY,
			script_id TEXT    NOT NULL,
			position  INTEGER NOT NULL,
			name      TEXT    NOT NULL,
			timing    TEXT    NOT NULL,
			body      TEXT    NOT NULL,
			UNIQUE(script_id, position)
		);`,
		// External-content FTS5 over segments so snippet() can read the text back.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_segments USING fts5(
			name,
			body,
			content='segments',
			content_rowid='seg_id',
			tokenize = 'unicode61'
		);`,
		`CREATE TABLE IF NOT EXISTS script_snapshots (
			id        INTEGER PRIMARY KEY,
			script_id TEXT NOT NULL,
			ts        TEXT NOT NULL,
			text      TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_snapshots_script_ts ON script_snapshots(script_id, ts);`,
		`CREATE TABLE IF NOT EXISTS frames (
			id          INTEGER PRIMARY KEY,
			script_id   TEXT    NOT NULL,
			position    INTEGER NOT NULL,
			hash        TEXT    NOT NULL,
			w           INTEGER NOT NULL,
			h           INTEGER NOT NULL,
			png         BLOB    NOT NULL,
			size        INTEGER NOT NULL,
			updated_at  TEXT    NOT NULL,
			last_access TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_frames_variant ON frames(script_id, position, hash, w, h);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS segments_ai AFTER INSERT ON segments BEGIN
			INSERT INTO fts_segments(rowid, name, body) VALUES (new.seg_id, new.name, new.body);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS segments_ad AFTER DELETE ON segments BEGIN
			INSERT INTO fts_segments(fts_segments, rowid, name, body) VALUES ('delete', old.seg_id, old.name, old.body);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS segments_au AFTER UPDATE ON segments BEGIN
			INSERT INTO fts_segments(fts_segments, rowid, name, body) VALUES ('delete', old.seg_id, old.name, old.body);
			INSERT INTO fts_segments(rowid, name, body) VALUES (new.seg_id, new.name, new.body);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// indexedScript is one script read from disk and split into index rows.
type indexedScript struct {
	meta     domain.ScriptMeta
	segments []script.Segment
}

// DocumentFor returns the segments of a stored script. Video scripts use the section codec;
// posts have no bracketed headers and become one segment named after the title with no timing.
func DocumentFor(meta domain.ScriptMeta, text string) script.Document {
	if meta.Kind == domain.KindVideo {
		return script.Parse(text)
	}
	body := strings.TrimSpace(text)
	if body == "" {
		return script.Document{}
	}
	return script.Document{Segments: []script.Segment{{Name: meta.Title, Body: body}}}
}

func loadForIndex(h *WorkspaceHandle, meta domain.ScriptMeta) (indexedScript, error) {
	b, err := os.ReadFile(ScriptPath(h, meta))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return indexedScript{}, fmt.Errorf("read script %s: %w", meta.ID, err)
	}
	return indexedScript{meta: meta, segments: DocumentFor(meta, string(b)).Segments}, nil
}

// RebuildIndex re-reads every script of the workspace and replaces all index rows.
// Files are read and parsed concurrently; rows are written in one transaction.
func RebuildIndex(ctx context.Context, h *WorkspaceHandle) error {
	if h == nil {
		return errors.New("nil WorkspaceHandle")
	}
	metas := h.Workspace.Scripts
	parsed := make([]indexedScript, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range metas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			is, err := loadForIndex(h, m)
			if err != nil {
				return err
			}
			parsed[i] = is
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{"DELETE FROM segments;", "DELETE FROM scripts;"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear index: %w", err)
		}
	}
	for _, is := range parsed {
		if err := insertScriptRows(ctx, tx, is); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	applog.WithComponent("storage").Info("index rebuilt", slog.String("root", h.Root), slog.Int("scripts", len(parsed)))
	return nil
}

// UpdateScriptIndex replaces the index rows of one script.
func UpdateScriptIndex(ctx context.Context, h *WorkspaceHandle, id string) error {
	meta, err := FindScript(h, id)
	if err != nil {
		return err
	}
	is, err := loadForIndex(h, meta)
	if err != nil {
		return err
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := deleteScriptRows(ctx, tx, meta.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertScriptRows(ctx, tx, is); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func deleteScriptRows(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE script_id=?`, id); err != nil {
		return fmt.Errorf("delete segments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scripts WHERE script_id=?`, id); err != nil {
		return fmt.Errorf("delete script row: %w", err)
	}
	return nil
}

func insertScriptRows(ctx context.Context, tx *sql.Tx, is indexedScript) error {
	m := is.meta
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scripts(script_id, title, kind, platform, updated_at) VALUES(?,?,?,?,?)`,
		m.ID, m.Title, string(m.Kind), m.Platform, m.UpdatedAt.UTC().Format(tsLayout)); err != nil {
		return fmt.Errorf("insert script row: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO segments(script_id, position, name, timing, body) VALUES(?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for pos, s := range is.segments {
		if _, err := ins.ExecContext(ctx, m.ID, pos, s.Name, s.Timing, s.Body); err != nil {
			return fmt.Errorf("insert segment: %w", err)
		}
	}
	return nil
}

// BuildIndexIfEmpty rebuilds the index when it has no scripts yet.
func BuildIndexIfEmpty(ctx context.Context, h *WorkspaceHandle) error {
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	var cnt int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scripts;").Scan(&cnt)
	_ = db.Close()
	if err != nil {
		return fmt.Errorf("check scripts count: %w", err)
	}
	if cnt > 0 || len(h.Workspace.Scripts) == 0 {
		return nil
	}
	return RebuildIndex(ctx, h)
}

// DetectAndRebuildIndex checks the index for corruption or missing tables and rebuilds it
// from the workspace when needed. It reports whether a rebuild happened.
// The damaged file is kept in .sd/backups. Script history lives in the index and is lost with it.
func DetectAndRebuildIndex(ctx context.Context, h *WorkspaceHandle) (bool, error) {
	path := IndexPath(h.Root)
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		discardIndex(path)
		if rbErr := RebuildIndex(ctx, h); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.EqualFold(strings.TrimSpace(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM segments LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	discardIndex(path)
	if err := RebuildIndex(ctx, h); err != nil {
		return false, err
	}
	return true, nil
}

// discardIndex moves the index and its WAL files into .sd/backups.
func discardIndex(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := backupStamp()
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp)), data, 0o644)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(indexPath + suffix)
	}
}
