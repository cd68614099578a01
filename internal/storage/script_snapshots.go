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
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertScriptSnapshotSQL = `INSERT INTO script_snapshots(script_id, ts, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestScriptSnapshotSQL = `SELECT ts, text FROM script_snapshots WHERE script_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listScriptSnapshotsSQL = `SELECT ts, text FROM script_snapshots WHERE script_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldScriptSnapshotsSQL = `DELETE FROM script_snapshots WHERE script_id = ? AND id NOT IN (
	SELECT id FROM script_snapshots WHERE script_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Snapshot is one stored version of a script's text.
type Snapshot struct {
	TS   time.Time
	Text string
}

// SaveScriptSnapshot persists the full text of a script with a timestamp.
// The index database is derived; this history is for change tracking, not canonical storage.
func SaveScriptSnapshot(ctx context.Context, h *WorkspaceHandle, scriptID, text string, ts time.Time) error {
	if h == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if scriptID == "" {
		return errors.New("script id is required")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertScriptSnapshotSQL, scriptID, ts.UTC().Format(tsLayout), text)
	return err
}

// GetLatestScriptSnapshot returns the newest snapshot of a script. ok is false when there is none.
func GetLatestScriptSnapshot(ctx context.Context, h *WorkspaceHandle, scriptID string) (Snapshot, bool, error) {
	if h == nil {
		return Snapshot{}, false, errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr, txt string
	err = db.QueryRowContext(ctx, selectLatestScriptSnapshotSQL, scriptID).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return Snapshot{TS: ts, Text: txt}, true, nil
}

// ListScriptSnapshots returns up to limit most recent snapshots of a script, newest first.
func ListScriptSnapshots(ctx context.Context, h *WorkspaceHandle, scriptID string, limit int) ([]Snapshot, error) {
	if h == nil {
		return nil, errors.New("nil WorkspaceHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listScriptSnapshotsSQL, scriptID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var tsStr, txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, Snapshot{TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// PruneOldScriptSnapshots keeps at most keepLast snapshots of a script and deletes older ones.
func PruneOldScriptSnapshots(ctx context.Context, h *WorkspaceHandle, scriptID string, keepLast int) (int64, error) {
	if h == nil {
		return 0, errors.New("nil WorkspaceHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldScriptSnapshotsSQL, scriptID, scriptID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
