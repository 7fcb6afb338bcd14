/*
 * Copyright (c) 2025 by the Explainer Kit authors.
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
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"explainkit/internal/domain"
)

const (
	ManifestFileName = "explainer.json"
	BackupsDirName   = "backups"
	ScriptsDirName   = "scripts"
)

// Standard subfolders scaffolded into every workspace.
var standardSubDirs = []string{
	ScriptsDirName,
	"output",
	"exports",
	BackupsDirName,
}

// WorkspaceHandle keeps track of the workspace state loaded/saved from disk.
// Root is the workspace directory containing explainer.json and subfolders.
// Project holds the in-memory representation of the manifest.
type WorkspaceHandle struct {
	Root         string
	ManifestPath string
	Project      domain.Project
}

// ScriptPath resolves a manifest-relative script path against the root.
func (wh *WorkspaceHandle) ScriptPath(ref domain.ScriptRef) string {
	return filepath.Join(wh.Root, filepath.FromSlash(ref.Path))
}

// InitWorkspace creates a new workspace directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, and writes the given
// manifest file transactionally.
func InitWorkspace(root string, proj domain.Project) (*WorkspaceHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	wh := &WorkspaceHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Project:      proj,
	}
	if err := Save(wh); err != nil {
		return nil, err
	}
	return wh, nil
}

// Open loads an existing workspace from the given root directory.
// If the current manifest cannot be read or parsed, it falls back to the
// latest timestamped backup.
func Open(root string) (*WorkspaceHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		proj, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &WorkspaceHandle{Root: root, ManifestPath: mpath, Project: *proj}, nil
	}
	var p domain.Project
	if uerr := json.Unmarshal(b, &p); uerr != nil {
		proj, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &WorkspaceHandle{Root: root, ManifestPath: mpath, Project: *proj}, nil
	}
	return &WorkspaceHandle{Root: root, ManifestPath: mpath, Project: p}, nil
}

// Save writes the current manifest to disk with transactional semantics and
// a timestamped backup of the previous manifest (if present).
func Save(wh *WorkspaceHandle) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if wh.Root == "" || wh.ManifestPath == "" {
		return errors.New("invalid WorkspaceHandle: missing paths")
	}
	data, err := json.MarshalIndent(wh.Project, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(wh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// Copy the current manifest to a timestamped backup before replacing.
	if _, statErr := os.Stat(wh.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		bpath := filepath.Join(bdir, bname)
		if cerr := copyFile(wh.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Transactional write: temp file in the same directory, rename over target.
	dir := filepath.Dir(wh.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(wh.ManifestPath); err == nil {
		_ = os.Remove(wh.ManifestPath)
	}
	if rerr := os.Rename(temp, wh.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// AddScript copies a script file into the workspace's scripts/ folder,
// registers it in the manifest and saves. An existing registration with the
// same name is replaced.
func AddScript(wh *WorkspaceHandle, srcPath string, ref domain.ScriptRef) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if ref.Name == "" {
		base := filepath.Base(srcPath)
		ref.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if ref.Path == "" {
		ref.Path = ScriptsDirName + "/" + filepath.Base(srcPath)
	}
	dst := filepath.Join(wh.Root, filepath.FromSlash(ref.Path))
	if err := copyFile(srcPath, dst); err != nil {
		return fmt.Errorf("copy script: %w", err)
	}
	replaced := false
	for i := range wh.Project.Scripts {
		if wh.Project.Scripts[i].Name == ref.Name {
			wh.Project.Scripts[i] = ref
			replaced = true
			break
		}
	}
	if !replaced {
		wh.Project.Scripts = append(wh.Project.Scripts, ref)
	}
	return Save(wh)
}

// AutosaveCrashSnapshot writes the in-memory manifest to a crash-stamped
// file under backups/ without touching the live manifest. Returns the path
// of the snapshot.
func AutosaveCrashSnapshot(wh *WorkspaceHandle) (string, error) {
	if wh == nil {
		return "", errors.New("nil WorkspaceHandle")
	}
	data, err := json.MarshalIndent(wh.Project, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	bdir := filepath.Join(wh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.bak", ManifestFileName, stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file and ensures it is flushed to disk.
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
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
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
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*domain.Project, error) {
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
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var p domain.Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &p, nil
}
