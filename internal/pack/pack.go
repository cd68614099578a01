/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package pack moves saved templates between workspaces as zip archives.
//
// Layout of a pack:
//
//	pack.manifest.txt     human-readable summary
//	templates.json        template metadata and text
//	templates/<id>.txt    one plain-text copy per template
package pack

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptdesk/internal/domain"
	applog "scriptdesk/internal/log"
	"scriptdesk/internal/script"
	"scriptdesk/internal/storage"
)

const (
	manifestEntry  = "pack.manifest.txt"
	templatesEntry = "templates.json"
	textDir        = "templates/"
)

// DefaultPackPath is where ExportTemplates writes when no path is given.
func DefaultPackPath(h *storage.WorkspaceHandle) string {
	return filepath.Join(h.Root, storage.TemplatesDirName, fmt.Sprintf("pack-%s.zip", time.Now().Format("20060102-150405")))
}

// ExportTemplates zips all templates of the workspace into destZipPath.
// An empty workspace still produces a pack with only the manifest and an empty list.
func ExportTemplates(h *storage.WorkspaceHandle, destZipPath string) (err error) {
	if h == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	l := applog.WithOperation(applog.WithComponent("pack"), "export").With(slog.String("workspace", h.Root))
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() {
		if cerr := zf.Close(); err == nil {
			err = cerr
		}
	}()
	zw := zip.NewWriter(zf)

	tpls := h.Workspace.Templates
	manifest := fmt.Sprintf("ScriptDesk Template Pack\nCreated: %s\nWorkspace: %s\nTemplates: %d\n",
		time.Now().Format(time.RFC3339), h.Workspace.Name, len(tpls))
	for _, t := range tpls {
		manifest += fmt.Sprintf("- %s (%s)\n", t.Name, t.Kind)
	}
	if err := writeEntry(zw, manifestEntry, []byte(manifest)); err != nil {
		return err
	}
	meta, err := json.MarshalIndent(tplsOrEmpty(tpls), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}
	if err := writeEntry(zw, templatesEntry, meta); err != nil {
		return err
	}
	for _, t := range tpls {
		if err := writeEntry(zw, textDir+t.ID+".txt", []byte(t.Text)); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("template pack exported", slog.Int("templates", len(tpls)), slog.String("zip", destZipPath))
	return nil
}

func tplsOrEmpty(t []domain.Template) []domain.Template {
	if t == nil {
		return []domain.Template{}
	}
	return t
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// InstallPack imports the templates of a pack into the workspace and saves the manifest once.
// Templates whose name already exists are skipped, as are blank ones and video templates
// without a single section header. Packs without templates.json are read from their
// templates/*.txt files, named after the file. Returns the count of templates installed.
func InstallPack(h *storage.WorkspaceHandle, packZipPath string) (int, error) {
	if h == nil {
		return 0, errors.New("nil WorkspaceHandle")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	l := applog.WithOperation(applog.WithComponent("pack"), "install").With(slog.String("workspace", h.Root))

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	incoming, err := readTemplates(&r.Reader)
	if err != nil {
		return 0, err
	}

	prev := append([]domain.Template(nil), h.Workspace.Templates...)
	installed := 0
	for _, t := range incoming {
		t.Name = strings.TrimSpace(t.Name)
		switch {
		case t.Name == "" || strings.TrimSpace(t.Text) == "":
			l.Warn("skip empty template", slog.String("id", t.ID))
			continue
		case h.Workspace.FindTemplateByName(t.Name) >= 0:
			l.Warn("skip existing template", slog.String("name", t.Name))
			continue
		}
		if t.Kind == "" {
			t.Kind = domain.KindVideo
		}
		if !t.Kind.Valid() {
			l.Warn("skip template with unknown kind", slog.String("name", t.Name), slog.String("kind", string(t.Kind)))
			continue
		}
		if t.Kind == domain.KindVideo && script.Parse(t.Text).Len() == 0 {
			l.Warn("skip video template without sections", slog.String("name", t.Name))
			continue
		}
		// ids are local to a workspace
		t.ID = uuid.NewString()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		h.Workspace.Templates = append(h.Workspace.Templates, t)
		installed++
	}
	if installed == 0 {
		l.Info("template pack installed", slog.Int("templates", 0))
		return 0, nil
	}
	if err := storage.Save(h); err != nil {
		h.Workspace.Templates = prev
		return 0, err
	}
	l.Info("template pack installed", slog.Int("templates", installed))
	return installed, nil
}

func readTemplates(r *zip.Reader) ([]domain.Template, error) {
	var fromText []domain.Template
	for _, f := range r.File {
		switch {
		case f.Name == templatesEntry:
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			var out []domain.Template
			if err := json.Unmarshal(data, &out); err != nil {
				return nil, fmt.Errorf("parse %s: %w", templatesEntry, err)
			}
			return out, nil
		case strings.HasPrefix(f.Name, textDir) && strings.HasSuffix(f.Name, ".txt") && !f.FileInfo().IsDir():
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(path.Base(f.Name), ".txt")
			fromText = append(fromText, domain.Template{Name: name, Text: string(data)})
		}
	}
	return fromText, nil
}

// maxEntrySize bounds a single pack entry.
const maxEntrySize = 8 << 20

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return data, nil
}
