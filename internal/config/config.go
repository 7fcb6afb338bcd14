/*
 * Copyright (c) 2025 by the Explainer Kit authors.
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
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the
// user scope. Environment variables are read-only overrides at runtime.
// The archive DSN is not stored on disk; it lives in the OS keychain.

type WorkflowConfig struct {
	OutputBaseDir   string `yaml:"output_base_dir"`
	OutputFilename  string `yaml:"output_filename"`
	SkipExisting    bool   `yaml:"skip_existing"`
	ContinueOnError bool   `yaml:"continue_on_error"`
}

type ArchiveConfig struct {
	Enabled   bool `yaml:"enabled"`
	TimeoutMs int  `yaml:"timeout_ms"`
	// DSN lives in the OS keychain, never in this file.
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Workflow      WorkflowConfig `yaml:"workflow"`
	Archive       ArchiveConfig  `yaml:"archive"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Workflow: WorkflowConfig{
			OutputBaseDir:   "output",
			OutputFilename:  "final.png",
			SkipExisting:    true,
			ContinueOnError: true,
		},
		Archive: ArchiveConfig{Enabled: false, TimeoutMs: 10000},
		Logging: LoggingConfig{Level: "info", Format: "console", File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvOutputBaseDir   = "EXK_OUTPUT_DIR"
	EnvOutputFilename  = "EXK_OUTPUT_FILE"
	EnvSkipExisting    = "EXK_SKIP_EXISTING"
	EnvContinueOnError = "EXK_CONTINUE_ON_ERROR"
	EnvArchiveEnabled  = "EXK_ARCHIVE_ENABLED"
	EnvArchiveDSN      = "EXK_ARCHIVE_DSN"
	EnvTelemetryOptIn  = "EXK_TELEMETRY_OPT_IN"
	EnvLogLevel        = "EXK_LOG_LEVEL"
	EnvLogFormat       = "EXK_LOG_FORMAT"
	EnvLogFile         = "EXK_LOG_FILE"
)

// Service/keys for the OS keyring.
const (
	keyringService = "ExplainerKit"
	keyringDSNKey  = "archive_dsn"
)

// TokenStore abstracts the keyring, so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// SetTokenStore replaces the keyring implementation (used by tests).
func SetTokenStore(s TokenStore) { tokenStore = s }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ExplainerKit")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ExplainerKit")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "explainkit")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) over the defaults and applies
// environment overrides. The archive DSN is loaded from the keyring; the
// EXK_ARCHIVE_DSN env var wins over the keyring when set.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, rerr := os.ReadFile(path); rerr == nil {
		// Unmarshal over defaults so absent keys keep their default values.
		if uerr := yaml.Unmarshal(data, &cfg); uerr != nil {
			cfg = Defaults()
		}
	}
	applyEnvOverrides(&cfg)

	dsn, _ := tokenStore.Get(keyringService, keyringDSNKey)
	if v := strings.TrimSpace(os.Getenv(EnvArchiveDSN)); v != "" {
		dsn = v
	}
	return cfg, dsn, nil
}

// Save writes the user config YAML and persists the DSN into the OS keyring
// (if non-empty).
func Save(cfg AppConfig, dsn string) error {
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
	if dsn != "" {
		return tokenStore.Set(keyringService, keyringDSNKey, dsn)
	}
	return nil
}

// ForgetDSN removes the archive DSN from the OS keyring.
func ForgetDSN() error { return tokenStore.Delete(keyringService, keyringDSNKey) }

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvOutputBaseDir)); v != "" {
		cfg.Workflow.OutputBaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputFilename)); v != "" {
		cfg.Workflow.OutputFilename = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSkipExisting)); v != "" {
		cfg.Workflow.SkipExisting = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvContinueOnError)); v != "" {
		cfg.Workflow.ContinueOnError = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvArchiveEnabled)); v != "" {
		cfg.Archive.Enabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}
