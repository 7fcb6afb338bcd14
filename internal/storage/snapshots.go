/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertScriptSnapshotSQL = `INSERT INTO script_snapshots(script, ts, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestScriptSnapshotSQL = `SELECT ts, text FROM script_snapshots WHERE script = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listScriptSnapshotsSQL = `SELECT ts, text FROM script_snapshots WHERE script = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldScriptSnapshotsSQL = `DELETE FROM script_snapshots WHERE script = ? AND id NOT IN (
	SELECT id FROM script_snapshots WHERE script = ? ORDER BY ts DESC LIMIT ?
)`

// ScriptSnapshot is one historical copy of a script's full text.
type ScriptSnapshot struct {
	TS   time.Time
	Text string
}

// SaveScriptSnapshot persists a full script text with a timestamp. The index
// database is otherwise derived; this history is meant for change tracking,
// not canonical storage.
func SaveScriptSnapshot(ctx context.Context, wh *WorkspaceHandle, scriptName, text string, ts time.Time) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertScriptSnapshotSQL, scriptName, ts.UTC().Format(time.RFC3339Nano), text)
	return err
}

// GetLatestScriptSnapshot returns the latest snapshot text and timestamp for
// a script, or empty if none.
func GetLatestScriptSnapshot(ctx context.Context, wh *WorkspaceHandle, scriptName string) (string, time.Time, error) {
	if wh == nil {
		return "", time.Time{}, errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var txt string
	err = db.QueryRowContext(ctx, selectLatestScriptSnapshotSQL, scriptName).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return txt, time.Time{}, nil
	}
	return txt, ts, nil
}

// ListScriptSnapshots returns up to limit most recent snapshots for a script.
func ListScriptSnapshots(ctx context.Context, wh *WorkspaceHandle, scriptName string, limit int) ([]ScriptSnapshot, error) {
	if wh == nil {
		return nil, errors.New("nil WorkspaceHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listScriptSnapshotsSQL, scriptName, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ScriptSnapshot
	for rows.Next() {
		var tsStr string
		var txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, ScriptSnapshot{TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// PruneOldScriptSnapshots keeps at most keepLast snapshots for a script and
// deletes older ones.
func PruneOldScriptSnapshots(ctx context.Context, wh *WorkspaceHandle, scriptName string, keepLast int) (int64, error) {
	if wh == nil {
		return 0, errors.New("nil WorkspaceHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldScriptSnapshotsSQL, scriptName, scriptName, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
