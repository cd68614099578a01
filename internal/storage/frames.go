/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FrameKey addresses one rendered preview frame. Hash covers everything that was drawn,
// so an edited segment never hits a stale entry.
type FrameKey struct {
	ScriptID string
	Position int
	Hash     string
	W, H     int
}

// FrameHash returns the cache hash for a frame drawn from the given parts.
func FrameHash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:16])
}

// GetFrame returns the cached PNG for k and updates last_access. It returns nil when missing.
func GetFrame(ctx context.Context, root string, k FrameKey) ([]byte, error) {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var blob []byte
	err = db.QueryRowContext(ctx, `SELECT png FROM frames WHERE script_id=? AND position=? AND hash=? AND w=? AND h=?`,
		k.ScriptID, k.Position, k.Hash, k.W, k.H).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query frame: %w", err)
	}
	now := time.Now().UTC().Format(tsLayout)
	_, _ = db.ExecContext(ctx, `UPDATE frames SET last_access=? WHERE script_id=? AND position=? AND hash=? AND w=? AND h=?`,
		now, k.ScriptID, k.Position, k.Hash, k.W, k.H)
	return blob, nil
}

// PutFrame upserts a frame and enforces the cache size cap via LRU eviction.
// Older variants of the same script position are dropped.
func PutFrame(ctx context.Context, root string, k FrameKey, png []byte) error {
	if len(png) == 0 {
		return errors.New("empty frame")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `DELETE FROM frames WHERE script_id=? AND position=? AND (hash<>? OR w<>? OR h<>?)`,
		k.ScriptID, k.Position, k.Hash, k.W, k.H); err != nil {
		return fmt.Errorf("drop stale frames: %w", err)
	}
	now := time.Now().UTC().Format(tsLayout)
	_, err = db.ExecContext(ctx, `INSERT INTO frames(script_id,position,hash,w,h,png,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT(script_id,position,hash,w,h) DO UPDATE SET png=excluded.png, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		k.ScriptID, k.Position, k.Hash, k.W, k.H, png, len(png), now, now)
	if err != nil {
		return fmt.Errorf("upsert frame: %w", err)
	}
	if capBytes := MaxFramesBytesFromEnv(); capBytes > 0 {
		return EvictFramesToFit(ctx, db, capBytes)
	}
	return nil
}

// GetOrCreateFrame fetches a frame or renders and stores it with gen.
func GetOrCreateFrame(ctx context.Context, root string, k FrameKey, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := GetFrame(ctx, root, k); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if err := PutFrame(ctx, root, k, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictFramesToFit deletes least-recently-used rows until the total size is <= capBytes.
func EvictFramesToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM frames`).Scan(&total); err != nil {
		return fmt.Errorf("sum frames size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	rows, err := db.QueryContext(ctx, `SELECT id, size FROM frames ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// the cursor must be closed before writing on a single connection
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM frames WHERE id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(victims)), ",") + `)`
	if _, err := db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalFrameBytes returns the bytes held by the frame cache.
func TotalFrameBytes(ctx context.Context, root string) (int64, error) {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM frames`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MaxFramesBytesFromEnv reads SD_FRAMES_MAX_BYTES, defaulting to 64MB.
func MaxFramesBytesFromEnv() int64 {
	const def = 64 * 1024 * 1024
	v := os.Getenv("SD_FRAMES_MAX_BYTES")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
