/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

const sampleScript = "# Demo\n\n## SCENE 1: Hook (5 seconds)\n\n**Narration:** \"Hello.\"\n"

func TestExportAndInstallBundle(t *testing.T) {
	wsDir := t.TempDir()
	scriptsDir := filepath.Join(wsDir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		t.Fatalf("mkdir scripts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scriptsDir, "demo.md"), []byte(sampleScript), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	sub := filepath.Join(scriptsDir, "drafts")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir drafts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "idea.md"), []byte("# Idea\n"), 0o644); err != nil {
		t.Fatalf("write draft: %v", err)
	}

	zipPath := filepath.Join(wsDir, "out.zip")
	if err := ExportScripts(wsDir, zipPath); err != nil {
		t.Fatalf("export bundle: %v", err)
	}
	st, err := os.Stat(zipPath)
	if err != nil || st.Size() == 0 {
		t.Fatalf("zip not created or empty: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	if !names[ManifestName] {
		t.Fatalf("expected manifest entry in archive, got %v", names)
	}
	if !names["scripts/demo.md"] {
		t.Fatalf("expected scripts/demo.md entry, got %v", names)
	}

	ws2 := t.TempDir()
	installed, err := InstallBundle(ws2, zipPath)
	if err != nil {
		t.Fatalf("install bundle: %v", err)
	}
	if installed != 2 {
		t.Fatalf("installed = %d, want 2", installed)
	}
	if _, err := os.Stat(filepath.Join(ws2, "scripts", "demo.md")); err != nil {
		t.Fatalf("expected demo.md installed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws2, "scripts", "drafts", "idea.md")); err != nil {
		t.Fatalf("expected idea.md installed: %v", err)
	}
}

func TestInstallBundleSkipsExisting(t *testing.T) {
	wsDir := t.TempDir()
	scriptsDir := filepath.Join(wsDir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		t.Fatalf("mkdir scripts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scriptsDir, "demo.md"), []byte(sampleScript), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	zipPath := filepath.Join(wsDir, "out.zip")
	if err := ExportScripts(wsDir, zipPath); err != nil {
		t.Fatalf("export bundle: %v", err)
	}

	ws2 := t.TempDir()
	keep := []byte("local edits")
	if err := os.MkdirAll(filepath.Join(ws2, "scripts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws2, "scripts", "demo.md"), keep, 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}
	installed, err := InstallBundle(ws2, zipPath)
	if err != nil {
		t.Fatalf("install bundle: %v", err)
	}
	if installed != 0 {
		t.Fatalf("installed = %d, want 0", installed)
	}
	got, err := os.ReadFile(filepath.Join(ws2, "scripts", "demo.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(keep) {
		t.Fatalf("existing file was overwritten")
	}
}

func TestExportRequiresArgs(t *testing.T) {
	if err := ExportScripts("", "x.zip"); err == nil {
		t.Fatalf("expected error for empty workspace root")
	}
	if err := ExportScripts(t.TempDir(), ""); err == nil {
		t.Fatalf("expected error for empty destination")
	}
	if _, err := InstallBundle("", "x.zip"); err == nil {
		t.Fatalf("expected error for empty workspace root")
	}
}
