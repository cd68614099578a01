/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptdesk/internal/domain"
	applog "scriptdesk/internal/log"
)

const (
	ManifestFileName = "workspace.json"
	BackupsDirName   = "backups"
	ScriptsDirName   = "scripts"
	ExportsDirName   = "exports"
	TemplatesDirName = "templates"
)

var standardSubDirs = []string{
	ScriptsDirName,
	ExportsDirName,
	TemplatesDirName,
	BackupsDirName,
}

// WorkspaceHandle is a workspace loaded from disk.
// Root is the directory containing workspace.json and the subfolders.
type WorkspaceHandle struct {
	Root         string
	ManifestPath string
	Workspace    domain.Workspace
	// Recovered is set when Open fell back to a backup manifest.
	Recovered bool
}

// InitWorkspace creates root (if needed), scaffolds the standard subfolders and writes the manifest.
func InitWorkspace(root string, ws domain.Workspace) (*WorkspaceHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if _, err := os.Stat(filepath.Join(root, ManifestFileName)); err == nil {
		return nil, fmt.Errorf("workspace already exists at %s", root)
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	h := &WorkspaceHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Workspace:    ws,
	}
	if err := Save(h); err != nil {
		return nil, err
	}
	applog.WithComponent("storage").Info("workspace initialized", slog.String("root", root), slog.String("name", ws.Name))
	return h, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads an existing workspace. If the manifest is missing, unreadable or does not
// validate against the manifest schema, the latest backup is used instead.
func Open(root string) (*WorkspaceHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	ws, err := readManifest(mpath)
	if err == nil {
		return &WorkspaceHandle{Root: root, ManifestPath: mpath, Workspace: *ws}, nil
	}
	bws, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
	}
	applog.WithComponent("storage").Warn("manifest unusable, recovered from backup",
		slog.String("root", root), slog.Any("err", err))
	return &WorkspaceHandle{Root: root, ManifestPath: mpath, Workspace: *bws, Recovered: true}, nil
}

func readManifest(path string) (*domain.Workspace, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateManifest(b); err != nil {
		return nil, err
	}
	var ws domain.Workspace
	if err := json.Unmarshal(b, &ws); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &ws, nil
}

// Save writes the manifest with transactional semantics (temp file + rename) and keeps
// a timestamped backup of the previous manifest.
func Save(h *WorkspaceHandle) error {
	if h == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid WorkspaceHandle: missing paths")
	}
	normalize(&h.Workspace)
	data, err := json.MarshalIndent(h.Workspace, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := ValidateManifest(data); err != nil {
		return err
	}

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.ManifestPath); statErr == nil {
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ManifestFileName, backupStamp()))
		if cerr := copyFile(h.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}
	if err := writeAtomic(h.ManifestPath, data); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// backupStamp sorts lexicographically in time order.
func backupStamp() string { return time.Now().Format("20060102-150405.000000") }

func normalize(ws *domain.Workspace) {
	if ws.Scripts == nil {
		ws.Scripts = []domain.ScriptMeta{}
	}
	if ws.Templates == nil {
		ws.Templates = []domain.Template{}
	}
}

// AutosaveCrashSnapshot writes the in-memory manifest next to the backups without touching
// workspace.json. It is used when the process is about to die.
func AutosaveCrashSnapshot(h *WorkspaceHandle) (string, error) {
	if h == nil || h.Root == "" {
		return "", errors.New("invalid WorkspaceHandle")
	}
	normalize(&h.Workspace)
	data, err := json.MarshalIndent(h.Workspace, "", "  ")
	if err != nil {
		return "", err
	}
	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-autosave-%s.json", ManifestFileName, backupStamp()))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// writeAtomic writes to a temp file in the target directory and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%s", filepath.Base(path), os.Getpid(), uuid.NewString()[:8]))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, path); err != nil {
		// Windows cannot rename over an existing file.
		_ = os.Remove(path)
		if err2 := os.Rename(temp, path); err2 != nil {
			_ = os.Remove(temp)
			return err2
		}
	}
	return nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup returns the newest backup manifest that validates.
func openFromLatestBackup(root string) (*domain.Workspace, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))
	var lastErr error
	for _, c := range candidates {
		ws, err := readManifest(c)
		if err == nil {
			return ws, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no usable backup: %w", lastErr)
}
