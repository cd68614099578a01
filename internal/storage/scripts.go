/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptdesk/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAmbiguous     = errors.New("ambiguous id prefix")
	ErrEmptyTemplate = errors.New("template text is empty")
)

// ScriptPath returns the text file of a script.
func ScriptPath(h *WorkspaceHandle, meta domain.ScriptMeta) string {
	if h == nil {
		return ""
	}
	return filepath.Join(h.Root, ScriptsDirName, meta.File)
}

// AddScript stores text as a new script and records it in the manifest.
// ID, File and timestamps are assigned here.
func AddScript(h *WorkspaceHandle, meta domain.ScriptMeta, text string) (domain.ScriptMeta, error) {
	if h == nil {
		return domain.ScriptMeta{}, errors.New("nil WorkspaceHandle")
	}
	if !meta.Kind.Valid() {
		return domain.ScriptMeta{}, fmt.Errorf("unknown script kind %q", meta.Kind)
	}
	meta.ID = uuid.NewString()
	meta.File = meta.ID + ".txt"
	if meta.Kind != domain.KindVideo {
		meta.Platform = ""
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = strings.TrimSpace(meta.Topic)
		if meta.Title == "" {
			meta.Title = "Untitled"
		}
	}
	now := time.Now().UTC()
	meta.CreatedAt, meta.UpdatedAt = now, now

	if err := os.MkdirAll(filepath.Join(h.Root, ScriptsDirName), 0o755); err != nil {
		return domain.ScriptMeta{}, err
	}
	if err := writeAtomic(ScriptPath(h, meta), []byte(text)); err != nil {
		return domain.ScriptMeta{}, fmt.Errorf("write script: %w", err)
	}
	h.Workspace.Scripts = append(h.Workspace.Scripts, meta)
	if err := Save(h); err != nil {
		h.Workspace.Scripts = h.Workspace.Scripts[:len(h.Workspace.Scripts)-1]
		_ = os.Remove(ScriptPath(h, meta))
		return domain.ScriptMeta{}, err
	}
	return meta, nil
}

// FindScript resolves a full id or a unique id prefix.
func FindScript(h *WorkspaceHandle, idOrPrefix string) (domain.ScriptMeta, error) {
	if h == nil {
		return domain.ScriptMeta{}, errors.New("nil WorkspaceHandle")
	}
	key := strings.TrimSpace(idOrPrefix)
	if key == "" {
		return domain.ScriptMeta{}, fmt.Errorf("script %w: empty id", ErrNotFound)
	}
	if i := h.Workspace.FindScript(key); i >= 0 {
		return h.Workspace.Scripts[i], nil
	}
	var hits []domain.ScriptMeta
	for _, s := range h.Workspace.Scripts {
		if strings.HasPrefix(s.ID, key) {
			hits = append(hits, s)
		}
	}
	switch len(hits) {
	case 0:
		return domain.ScriptMeta{}, fmt.Errorf("script %q: %w", key, ErrNotFound)
	case 1:
		return hits[0], nil
	default:
		return domain.ScriptMeta{}, fmt.Errorf("script %q matches %d scripts: %w", key, len(hits), ErrAmbiguous)
	}
}

// ReadScript returns the text of a script. A missing file reads as empty text.
func ReadScript(h *WorkspaceHandle, id string) (string, error) {
	meta, err := FindScript(h, id)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(ScriptPath(h, meta))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

// WriteScript replaces the text of a script and bumps UpdatedAt in the manifest.
func WriteScript(h *WorkspaceHandle, id string, text string) error {
	meta, err := FindScript(h, id)
	if err != nil {
		return err
	}
	if err := writeAtomic(ScriptPath(h, meta), []byte(text)); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	i := h.Workspace.FindScript(meta.ID)
	h.Workspace.Scripts[i].UpdatedAt = time.Now().UTC()
	return Save(h)
}

// UpdateScriptMeta applies fn to the manifest entry of a script and saves the manifest.
// ID and File cannot be changed; the entry is restored when fn or the save fails.
func UpdateScriptMeta(h *WorkspaceHandle, id string, fn func(*domain.ScriptMeta) error) (domain.ScriptMeta, error) {
	meta, err := FindScript(h, id)
	if err != nil {
		return domain.ScriptMeta{}, err
	}
	i := h.Workspace.FindScript(meta.ID)
	next := meta
	next.Hashtags = append([]string(nil), meta.Hashtags...)
	if err := fn(&next); err != nil {
		return domain.ScriptMeta{}, err
	}
	next.ID, next.File, next.CreatedAt = meta.ID, meta.File, meta.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	h.Workspace.Scripts[i] = next
	if err := Save(h); err != nil {
		h.Workspace.Scripts[i] = meta
		return domain.ScriptMeta{}, err
	}
	return next, nil
}

// AddTemplate records a reusable template in the manifest.
// Blank text is rejected; a template with the same name is replaced.
func AddTemplate(h *WorkspaceHandle, tpl domain.Template) (domain.Template, error) {
	if h == nil {
		return domain.Template{}, errors.New("nil WorkspaceHandle")
	}
	if strings.TrimSpace(tpl.Text) == "" {
		return domain.Template{}, ErrEmptyTemplate
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return domain.Template{}, errors.New("template name is required")
	}
	if tpl.Kind == "" {
		tpl.Kind = domain.KindVideo
	}
	if !tpl.Kind.Valid() {
		return domain.Template{}, fmt.Errorf("unknown template kind %q", tpl.Kind)
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	prev := append([]domain.Template(nil), h.Workspace.Templates...)
	if i := h.Workspace.FindTemplateByName(tpl.Name); i >= 0 {
		h.Workspace.Templates[i] = tpl
	} else {
		h.Workspace.Templates = append(h.Workspace.Templates, tpl)
	}
	if err := Save(h); err != nil {
		h.Workspace.Templates = prev
		return domain.Template{}, err
	}
	return tpl, nil
}
