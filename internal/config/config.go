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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn    bool   `yaml:"telemetry_opt_in"`
	DefaultPlatform   string `yaml:"default_platform"` // "instagram" | "youtube"
	DefaultTone       string `yaml:"default_tone"`
	PreviewIntervalMs int    `yaml:"preview_interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General: GeneralConfig{
			TelemetryOptIn:    false,
			DefaultPlatform:   "instagram",
			DefaultTone:       "professional",
			PreviewIntervalMs: 3000,
		},
		Backend: BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir        = "SD_CONFIG_DIR"
	EnvBackendURL       = "SD_BACKEND_URL"
	EnvBackendTimeoutMs = "SD_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "SD_TLS_INSECURE"
	EnvTelemetryOptIn   = "SD_TELEMETRY_OPT_IN"
	EnvDefaultPlatform  = "SD_DEFAULT_PLATFORM"
	EnvDefaultTone      = "SD_DEFAULT_TONE"
	EnvPreviewInterval  = "SD_PREVIEW_INTERVAL_MS"
	EnvLogLevel         = "SD_LOG_LEVEL"
	EnvLogFormat        = "SD_LOG_FORMAT"
	EnvLogSource        = "SD_LOG_SOURCE"
	EnvLogFile          = "SD_LOG_FILE"
)

// ConfigPath returns the per-user config file path. SD_CONFIG_DIR replaces the directory.
func ConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ScriptDesk")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ScriptDesk")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "scriptdesk")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "scriptdesk")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The backend token comes from the keyring and is returned separately.
// A malformed config file is reported but the defaults plus env are still returned.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := LoadToken()
	return cfg, tok, loadErr
}

// Save writes the user config YAML and persists the token into the keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		return SaveToken(token)
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if v := strings.ToLower(strings.TrimSpace(src.General.DefaultPlatform)); v != "" {
		dst.General.DefaultPlatform = v
	}
	if v := strings.TrimSpace(src.General.DefaultTone); v != "" {
		dst.General.DefaultTone = v
	}
	if src.General.PreviewIntervalMs > 0 {
		dst.General.PreviewIntervalMs = src.General.PreviewIntervalMs
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func envBool(key string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return false, false
	}
	return v == "1" || v == "true" || v == "on" || v == "yes", true
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if n, ok := envInt(EnvBackendTimeoutMs); ok {
		cfg.Backend.TimeoutMs = n
	}
	if b, ok := envBool(EnvBackendTLSInsec); ok {
		cfg.Backend.TLSInsecure = b
	}
	if b, ok := envBool(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = b
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultPlatform)); v != "" {
		cfg.General.DefaultPlatform = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultTone)); v != "" {
		cfg.General.DefaultTone = v
	}
	if n, ok := envInt(EnvPreviewInterval); ok && n > 0 {
		cfg.General.PreviewIntervalMs = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if b, ok := envBool(EnvLogSource); ok {
		cfg.Logging.Source = b
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"backend.base_url":            EnvBackendURL,
	"backend.timeout_ms":          EnvBackendTimeoutMs,
	"backend.tls_insecure":        EnvBackendTLSInsec,
	"general.telemetry_opt_in":    EnvTelemetryOptIn,
	"general.default_platform":    EnvDefaultPlatform,
	"general.default_tone":        EnvDefaultTone,
	"general.preview_interval_ms": EnvPreviewInterval,
	"logging.level":               EnvLogLevel,
	"logging.format":              EnvLogFormat,
	"logging.source":              EnvLogSource,
	"logging.file":                EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the backend request timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// PreviewInterval returns how long the preview shows each segment.
func (g GeneralConfig) PreviewInterval() time.Duration {
	if g.PreviewIntervalMs <= 0 {
		return time.Duration(Defaults().General.PreviewIntervalMs) * time.Millisecond
	}
	return time.Duration(g.PreviewIntervalMs) * time.Millisecond
}
