/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle packs a workspace's scripts directory into a single
// zip archive for sharing, and installs scripts from such an archive
// into another workspace.
package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "explainkit/internal/log"
	"explainkit/internal/storage"
)

// ManifestName is the human-readable manifest placed at the archive root.
const ManifestName = "bundle.manifest.txt"

// ExportScripts zips the workspace's scripts directory into destZipPath.
// The archive preserves the scripts/ prefix and carries a small manifest
// at the root for quick inspection. An empty scripts directory still
// produces an archive containing only the manifest.
func ExportScripts(workspaceRoot string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("bundle"), "export").With(slog.String("workspace", workspaceRoot))
	if strings.TrimSpace(workspaceRoot) == "" {
		return errors.New("workspaceRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	scriptsDir := filepath.Join(workspaceRoot, storage.ScriptsDirName)
	if _, err := os.Stat(scriptsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
			return fmt.Errorf("ensure scripts dir: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("ExplainerKit Script Bundle\nCreated: %s\nWorkspace: %s\n\nContents mirror the workspace's /scripts directory.\n",
		time.Now().Format(time.RFC3339), workspaceRoot)
	w, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	err = filepath.Walk(scriptsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return err
		}
		// Forward slashes inside the archive regardless of host OS.
		zipName := filepath.ToSlash(rel)
		fw, err := zw.Create(zipName)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("script bundle exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// InstallBundle extracts the given bundle into the workspace's scripts
// directory. Existing files are never overwritten; they are skipped with
// a warning. Returns the count of files installed.
func InstallBundle(workspaceRoot string, bundleZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "install").With(slog.String("workspace", workspaceRoot))
	if strings.TrimSpace(workspaceRoot) == "" {
		return 0, errors.New("workspaceRoot is required")
	}
	if strings.TrimSpace(bundleZipPath) == "" {
		return 0, errors.New("bundleZipPath is required")
	}
	scriptsDir := filepath.Join(workspaceRoot, storage.ScriptsDirName)
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure scripts dir: %w", err)
	}

	r, err := zip.OpenReader(bundleZipPath)
	if err != nil {
		return 0, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	prefix := storage.ScriptsDirName + "/"
	installed := 0
	for _, f := range r.File {
		name := f.Name
		if name == ManifestName {
			continue
		}
		// Entries without the scripts/ prefix are placed under it so an
		// archive of loose files still lands in the right place.
		targetRel := name
		if !strings.HasPrefix(targetRel, prefix) {
			targetRel = filepath.ToSlash(filepath.Join(storage.ScriptsDirName, targetRel))
		}
		targetPath := filepath.Join(workspaceRoot, filepath.FromSlash(targetRel))
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing file", slog.String("path", targetPath))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return installed, err
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("script bundle installed", slog.Int("files", installed))
	return installed, nil
}
