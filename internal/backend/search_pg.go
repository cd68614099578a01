/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SearchTemplatesPG finds a user's templates whose name or text matches query, using the
// generated tsvector column. Results are ranked, best first.
func SearchTemplatesPG(ctx context.Context, db *sql.DB, userID, query string) ([]RemoteTemplate, error) {
	var b strings.Builder
	b.WriteString("SELECT id, name, kind, platform, text, segment_count, created_at ")
	b.WriteString("FROM templates WHERE user_id = $1 AND search_vector @@ plainto_tsquery('simple', $2) ")
	b.WriteString("ORDER BY ts_rank(search_vector, plainto_tsquery('simple', $2)) DESC, created_at DESC, id DESC ")
	b.WriteString("LIMIT 100")

	rows, err := db.QueryContext(ctx, b.String(), userID, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("search templates query: %w", err)
	}
	return scanTemplates(rows)
}
