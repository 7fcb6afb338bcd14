/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "explainkit/internal/log"
	"explainkit/internal/script"
	"explainkit/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-workspace ephemeral/index data under the root.
	IndexDirName  = ".exk"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 3
)

// IndexPath returns the full path to the workspace's embedded index database file.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-workspace SQLite index exists at
// .exk/index.sqlite, opens the database, enables WAL mode, and ensures the
// meta/version tables exist. The returned *sql.DB is ready for use.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create .exk dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .exk dir: %w", err)
	}

	path := IndexPath(root)
	// URI with shared cache and busy timeout; forward slashes for SQLite URIs.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Embedded usage: a single connection avoids writer contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Never downgrade.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_runs_script ON runs(script);`,
				`CREATE INDEX IF NOT EXISTS idx_scenes_script_number ON scenes(script, scene_number);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			// Best-effort FTS optimize (outside the tx)
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_scenes(fts_scenes) VALUES('optimize')`); err != nil {
				// ignore
			}
		case 3:
			// Replace the earlier contentless FTS table with an external-content
			// one over scenes, then rebuild it from the content table.
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`DROP TRIGGER IF EXISTS scenes_ai;`,
				`DROP TRIGGER IF EXISTS scenes_ad;`,
				`DROP TRIGGER IF EXISTS scenes_au;`,
				`DROP TABLE IF EXISTS fts_scenes;`,
				`CREATE VIRTUAL TABLE fts_scenes USING fts5(
					narration,
					content='scenes',
					content_rowid='doc_id',
					tokenize = 'unicode61'
				);`,
				`CREATE TRIGGER scenes_ai AFTER INSERT ON scenes BEGIN
					INSERT INTO fts_scenes(rowid, narration) VALUES (new.doc_id, new.narration);
				END;`,
				`CREATE TRIGGER scenes_ad AFTER DELETE ON scenes BEGIN
					INSERT INTO fts_scenes(fts_scenes, rowid, narration) VALUES ('delete', old.doc_id, old.narration);
				END;`,
				`CREATE TRIGGER scenes_au AFTER UPDATE OF narration ON scenes BEGIN
					INSERT INTO fts_scenes(fts_scenes, rowid, narration) VALUES ('delete', old.doc_id, old.narration);
					INSERT INTO fts_scenes(rowid, narration) VALUES (new.doc_id, new.narration);
				END;`,
				`INSERT INTO fts_scenes(fts_scenes) VALUES('rebuild');`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per scene per registered script, rebuilt from the script files.
		`CREATE TABLE IF NOT EXISTS scenes (
			doc_id       INTEGER PRIMARY KEY,
			script       TEXT    NOT NULL,
			scene_number INTEGER NOT NULL,
			title        TEXT    NOT NULL,
			duration     REAL    NOT NULL,
			narration    TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scenes_script ON scenes(script);`,

		// External-content FTS5 index over scenes.narration, kept in sync via
		// triggers. External content (rather than contentless) is required so
		// snippet() can read the narration text back at query time.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_scenes USING fts5(
			narration,
			content='scenes',
			content_rowid='doc_id',
			tokenize = 'unicode61'
		);`,

		// Orchestration run history.
		`CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY,
			script     TEXT    NOT NULL,
			started_at TEXT    NOT NULL,
			total      INTEGER NOT NULL,
			completed  INTEGER NOT NULL,
			skipped    INTEGER NOT NULL,
			failed     INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,

		// Script snapshots (history of script text for change tracking).
		`CREATE TABLE IF NOT EXISTS script_snapshots (
			id     INTEGER PRIMARY KEY,
			script TEXT    NOT NULL,
			ts     TEXT    NOT NULL,
			text   TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_snapshots_ts ON script_snapshots(script, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	// Triggers for FTS synchronization with scenes.narration
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS scenes_ai AFTER INSERT ON scenes BEGIN
			INSERT INTO fts_scenes(rowid, narration) VALUES (new.doc_id, new.narration);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS scenes_ad AFTER DELETE ON scenes BEGIN
			INSERT INTO fts_scenes(fts_scenes, rowid, narration) VALUES ('delete', old.doc_id, old.narration);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS scenes_au AFTER UPDATE OF narration ON scenes BEGIN
			INSERT INTO fts_scenes(fts_scenes, rowid, narration) VALUES ('delete', old.doc_id, old.narration);
			INSERT INTO fts_scenes(rowid, narration) VALUES (new.doc_id, new.narration);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds
// the index if needed. It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, wh *WorkspaceHandle) (bool, error) {
	if wh == nil {
		return false, errors.New("nil WorkspaceHandle")
	}
	path := IndexPath(wh.Root)
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, wh); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM scenes LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := RebuildIndex(ctx, wh); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .exk/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty ensures the index exists and, if the scenes table is
// empty, populates it from the workspace's registered scripts.
func BuildIndexIfEmpty(ctx context.Context, wh *WorkspaceHandle) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scenes;").Scan(&cnt); err != nil {
		return fmt.Errorf("check scenes count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildScenesFromWorkspace(ctx, db, wh)
}

// UpdateIndex replaces the scenes content from the workspace's registered scripts.
func UpdateIndex(ctx context.Context, wh *WorkspaceHandle) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildScenesFromWorkspace(ctx, db, wh)
}

// RebuildIndex drops scene tables and rebuilds content from the workspace's
// scripts. Runs and snapshots are preserved; the scene index is derived data.
func RebuildIndex(ctx context.Context, wh *WorkspaceHandle) error {
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TRIGGER IF EXISTS scenes_ai;",
		"DROP TRIGGER IF EXISTS scenes_ad;",
		"DROP TRIGGER IF EXISTS scenes_au;",
		"DROP TABLE IF EXISTS scenes;",
		"DROP TABLE IF EXISTS fts_scenes;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildScenesFromWorkspace(ctx, db, wh)
}

// rebuildScenesFromWorkspace replaces the scenes table content by parsing
// every registered script file. Unreadable scripts are skipped with a log
// line rather than failing the whole rebuild.
func rebuildScenesFromWorkspace(ctx context.Context, db *sql.DB, wh *WorkspaceHandle) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_rebuild")
	type row struct {
		script    string
		number    int
		title     string
		duration  float64
		narration sql.NullString
	}
	rows := make([]row, 0, 64)
	for _, ref := range wh.Project.Scripts {
		doc, err := script.ParseFile(wh.ScriptPath(ref))
		if err != nil {
			l.Warn("skip unreadable script", slog.String("script", ref.Name), slog.Any("err", err))
			continue
		}
		for _, s := range doc.Scenes {
			r := row{script: ref.Name, number: s.Number, title: s.Title, duration: s.Duration}
			if s.Narration != nil {
				r.narration = sql.NullString{String: *s.Narration, Valid: true}
			}
			rows = append(rows, r)
		}
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM scenes;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear scenes: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO scenes(script, scene_number, title, duration, narration) VALUES(?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.script, r.number, r.title, r.duration, r.narration); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert scene: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
