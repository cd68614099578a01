/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes a segment search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Name matches segment names case-insensitively; ScriptID restricts to one script.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	Name     string
	ScriptID string
	Kind     string
	Limit    int
	Offset   int
}

// SearchResult is one matching segment.
// Snippet is a highlighted excerpt using [ ] markers when Text is used.
type SearchResult struct {
	ScriptID string
	Title    string
	Position int
	Name     string
	Timing   string
	Snippet  string
}

// Search performs full-text search with optional filters over the workspace index.
// When q.Text is empty, it falls back to a plain scan over segments with filters applied.
func Search(ctx context.Context, root string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT s.script_id, COALESCE(sc.title,''), s.position, s.name, s.timing, snippet(fts_segments, 1, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_segments JOIN segments s ON fts_segments.rowid = s.seg_id\n")
		sb.WriteString("LEFT JOIN scripts sc ON sc.script_id = s.script_id\n")
		sb.WriteString("WHERE fts_segments MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT s.script_id, COALESCE(sc.title,''), s.position, s.name, s.timing, ''\n")
		sb.WriteString("FROM segments s LEFT JOIN scripts sc ON sc.script_id = s.script_id\nWHERE 1=1\n")
	}
	if n := strings.TrimSpace(q.Name); n != "" {
		sb.WriteString(" AND lower(s.name) = ?\n")
		args = append(args, strings.ToLower(n))
	}
	if id := strings.TrimSpace(q.ScriptID); id != "" {
		sb.WriteString(" AND s.script_id = ?\n")
		args = append(args, id)
	}
	if k := strings.TrimSpace(q.Kind); k != "" {
		sb.WriteString(" AND sc.kind = ?\n")
		args = append(args, strings.ToLower(k))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY sc.updated_at DESC, s.script_id, s.position\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.ScriptID, &r.Title, &r.Position, &r.Name, &r.Timing, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
