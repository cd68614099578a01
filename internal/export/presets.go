/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scriptdesk/internal/domain"
	applog "scriptdesk/internal/log"
	"scriptdesk/internal/storage"
)

// Format names accepted by Batch.
const (
	FormatPDF      = "pdf"
	FormatFrames   = "frames"
	FormatMarkdown = "md"
)

// DefaultFormats returns the formats exported when none are requested: frames only make
// sense for video scripts.
func DefaultFormats(kind domain.ScriptKind) []string {
	if kind == domain.KindVideo {
		return []string{FormatPDF, FormatFrames, FormatMarkdown}
	}
	return []string{FormatPDF, FormatMarkdown}
}

// BatchOptions controls exporting one script into several formats.
//
// Path semantics:
//   - If OutDir is empty it becomes exports/<first 8 chars of the script id>/ in the workspace;
//     a relative OutDir is resolved under exports/.
//   - PDF and markdown are written as script.pdf and script.md; frames go into frames/.
type BatchOptions struct {
	Formats []string // pdf, frames, md; empty means DefaultFormats
	OutDir  string
	// NoCache renders frames without the workspace frame cache.
	NoCache bool
}

// Batch exports the script idOrPrefix of the workspace and returns the written files.
func Batch(ctx context.Context, h *storage.WorkspaceHandle, idOrPrefix string, opt BatchOptions) ([]string, error) {
	if h == nil {
		return nil, fmt.Errorf("workspace handle is nil")
	}
	meta, err := storage.FindScript(h, idOrPrefix)
	if err != nil {
		return nil, err
	}
	text, err := storage.ReadScript(h, meta.ID)
	if err != nil {
		return nil, err
	}
	doc := storage.DocumentFor(meta, text)

	formats := opt.Formats
	if len(formats) == 0 {
		formats = DefaultFormats(meta.Kind)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = meta.ID[:min(8, len(meta.ID))]
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(h.Root, storage.ExportsDirName, baseOut)
	}
	l := applog.WithOperation(applog.WithComponent("export"), "batch").With(slog.String("script", meta.ID))

	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatPDF:
			out := filepath.Join(baseOut, "script.pdf")
			if err := PDF(doc, meta, out); err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
			written = append(written, out)
		case FormatFrames:
			fo := FrameOptions{}
			if !opt.NoCache {
				fo.CacheRoot, fo.ScriptID = h.Root, meta.ID
			}
			paths, err := Frames(ctx, doc, filepath.Join(baseOut, "frames"), fo)
			if err != nil {
				return written, fmt.Errorf("frames: %w", err)
			}
			written = append(written, paths...)
		case FormatMarkdown:
			out := filepath.Join(baseOut, "script.md")
			if err := os.MkdirAll(baseOut, 0o755); err != nil {
				return written, fmt.Errorf("ensure out dir: %w", err)
			}
			if err := os.WriteFile(out, []byte(Markdown(doc, meta.Title)), 0o644); err != nil {
				return written, fmt.Errorf("markdown: %w", err)
			}
			written = append(written, out)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	l.Info("export done", slog.Int("files", len(written)), slog.String("dir", baseOut))
	return written, nil
}
