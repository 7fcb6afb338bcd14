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
	"testing"
)

type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) key(service, key string) string { return service + "/" + key }

func (f *fakeStore) Get(service, key string) (string, error) {
	v, ok := f.values[f.key(service, key)]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeStore) Set(service, key, value string) error {
	f.values[f.key(service, key)] = value
	return nil
}

func (f *fakeStore) Delete(service, key string) error {
	delete(f.values, f.key(service, key))
	return nil
}

func useFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	fs := &fakeStore{values: map[string]string{}}
	SetTokenStore(fs)
	t.Cleanup(func() { SetTokenStore(osKeyring{}) })
	return fs
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Workflow.OutputBaseDir != "output" || cfg.Workflow.OutputFilename != "final.png" {
		t.Fatalf("unexpected workflow defaults: %#v", cfg.Workflow)
	}
	if !cfg.Workflow.SkipExisting || !cfg.Workflow.ContinueOnError {
		t.Fatalf("skip_existing and continue_on_error should default to true")
	}
	if cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry must be opt-in")
	}
}

func TestEnvOverridesWorkflow(t *testing.T) {
	useFakeStore(t)
	t.Setenv(EnvOutputBaseDir, "/tmp/exports")
	t.Setenv(EnvOutputFilename, "done.png")
	t.Setenv(EnvSkipExisting, "false")
	t.Setenv(EnvContinueOnError, "0")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Workflow.OutputBaseDir != "/tmp/exports" || cfg.Workflow.OutputFilename != "done.png" {
		t.Fatalf("env overrides not applied: %#v", cfg.Workflow)
	}
	if cfg.Workflow.SkipExisting || cfg.Workflow.ContinueOnError {
		t.Fatalf("bool env overrides not applied: %#v", cfg.Workflow)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	useFakeStore(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogFile, "/tmp/exk.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/exk.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestArchiveDSNFromKeyringAndEnv(t *testing.T) {
	fs := useFakeStore(t)
	if err := fs.Set(keyringService, keyringDSNKey, "postgres://keyring"); err != nil {
		t.Fatalf("seed keyring: %v", err)
	}
	t.Setenv(EnvArchiveDSN, "")
	_, dsn, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if dsn != "postgres://keyring" {
		t.Fatalf("dsn from keyring = %q", dsn)
	}

	t.Setenv(EnvArchiveDSN, "postgres://env")
	_, dsn, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if dsn != "postgres://env" {
		t.Fatalf("env DSN should win over keyring, got %q", dsn)
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "yes", "TRUE", "On"} {
		if !parseBool(v) {
			t.Fatalf("parseBool(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "false", "off", "no", ""} {
		if parseBool(v) {
			t.Fatalf("parseBool(%q) = true", v)
		}
	}
}
