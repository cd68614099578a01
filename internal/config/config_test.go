/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the config dir at a temp dir and swaps in an in-memory keyring.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	old := SetTokenStore(NewMemoryStore())
	t.Cleanup(func() { SetTokenStore(old) })
	return dir
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("backend.base_url"); !ok || name != EnvBackendURL {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("backend.timeout_ms"); ok {
		t.Fatalf("timeout should not report an override")
	}
}

func TestEnvOverridesGeneral(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	t.Setenv(EnvDefaultPlatform, "YouTube")
	t.Setenv(EnvPreviewInterval, "1500")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
	if cfg.General.DefaultPlatform != "youtube" {
		t.Fatalf("DefaultPlatform = %q", cfg.General.DefaultPlatform)
	}
	if cfg.General.PreviewInterval() != 1500*time.Millisecond {
		t.Fatalf("PreviewInterval = %v", cfg.General.PreviewInterval())
	}
}

func TestMergeIncludesGeneral(t *testing.T) {
	dst := Defaults()
	src := AppConfig{General: GeneralConfig{DefaultTone: "storytelling", PreviewIntervalMs: 5000}}
	mergeInto(&dst, &src)
	if dst.General.DefaultTone != "storytelling" || dst.General.PreviewIntervalMs != 5000 {
		t.Fatalf("general fields not merged: %#v", dst.General)
	}
	if dst.General.DefaultPlatform != "instagram" {
		t.Fatalf("empty platform in file should keep default, got %q", dst.General.DefaultPlatform)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/sd.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/sd.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/var/tmp/sd.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/tmp/sd.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveLoadRoundTripWithToken(t *testing.T) {
	dir := isolate(t)
	cfg := Defaults()
	cfg.Backend.BaseURL = "https://api.scriptdesk.test"
	cfg.General.DefaultTone = "conversational"
	if err := Save(cfg, "tok-123"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Backend.BaseURL != cfg.Backend.BaseURL || got.General.DefaultTone != "conversational" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if tok != "tok-123" {
		t.Fatalf("token = %q", tok)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, err := LoadToken(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after delete, got %v", err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("second DeleteToken should be a no-op, got %v", err)
	}
}

func TestLoadMalformedFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("general: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Backend.BaseURL != Defaults().Backend.BaseURL {
		t.Fatalf("defaults not kept on parse error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, ".env")
	if err := os.WriteFile(f, []byte("SD_DOTENV_VALUE=from-file\nSD_DOTENV_KEEP=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SD_DOTENV_KEEP", "process")
	t.Cleanup(func() { _ = os.Unsetenv("SD_DOTENV_VALUE") })
	loaded, err := LoadDotEnv(f, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != f {
		t.Fatalf("loaded = %v", loaded)
	}
	if os.Getenv("SD_DOTENV_VALUE") != "from-file" {
		t.Fatalf("value from .env not applied")
	}
	if os.Getenv("SD_DOTENV_KEEP") != "process" {
		t.Fatalf("existing env var was overwritten")
	}
}
