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
	"errors"
	"time"

	"explainkit/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertRunSQL = `INSERT INTO runs(script, started_at, total, completed, skipped, failed, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// RecordRun persists the outcome of one orchestration pass into the
// workspace index. The index is derived data except for this history, which
// has no other home.
func RecordRun(ctx context.Context, wh *WorkspaceHandle, run domain.Run) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertRunSQL,
		run.Script, run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Total, run.Completed, run.Skipped, run.Failed, run.ElapsedMs)
	return err
}

// ListRuns returns up to limit most recent runs, newest first. script
// filters to one script when non-empty.
func ListRuns(ctx context.Context, wh *WorkspaceHandle, script string, limit int) ([]domain.Run, error) {
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

	query := `SELECT id, script, started_at, total, completed, skipped, failed, elapsed_ms
FROM runs ORDER BY started_at DESC LIMIT ?`
	args := []any{limit}
	if script != "" {
		query = `SELECT id, script, started_at, total, completed, skipped, failed, elapsed_ms
FROM runs WHERE script = ? ORDER BY started_at DESC LIMIT ?`
		args = []any{script, limit}
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Run
	for rows.Next() {
		var r domain.Run
		var tsStr string
		if err := rows.Scan(&r.ID, &r.Script, &tsStr, &r.Total, &r.Completed, &r.Skipped, &r.Failed, &r.ElapsedMs); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, r)
	}
	return out, rows.Err()
}
