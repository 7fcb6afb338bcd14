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
	"strings"
)

// SearchQuery describes a narration search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Script restricts results to one registered script; empty means all.
// SceneFrom/To are inclusive; 0 means unset. Limit/Offset paginate.
type SearchQuery struct {
	Text      string
	Script    string
	SceneFrom int
	SceneTo   int
	Limit     int
	Offset    int
}

// SearchResult represents a single match row. Snippet is a highlighted
// excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	DocID   int64
	Script  string
	Scene   int
	Title   string
	Snippet string
}

// SearchNarration performs full-text search over indexed scene narration.
// When q.Text is empty, it falls back to a plain scan with filters applied.
func SearchNarration(ctx context.Context, root string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT s.doc_id, s.script, s.scene_number, s.title, COALESCE(snippet(fts_scenes, 0, '[', ']', '...', 10), '')\n")
		sb.WriteString("FROM fts_scenes JOIN scenes s ON fts_scenes.rowid = s.doc_id\n")
		sb.WriteString("WHERE fts_scenes MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT s.doc_id, s.script, s.scene_number, s.title, ''\n")
		sb.WriteString("FROM scenes s\nWHERE 1=1\n")
	}
	if s := strings.TrimSpace(q.Script); s != "" {
		sb.WriteString(" AND s.script = ?\n")
		args = append(args, s)
	}
	if q.SceneFrom > 0 && q.SceneTo > 0 && q.SceneTo >= q.SceneFrom {
		sb.WriteString(" AND s.scene_number BETWEEN ? AND ?\n")
		args = append(args, q.SceneFrom, q.SceneTo)
	} else if q.SceneFrom > 0 {
		sb.WriteString(" AND s.scene_number >= ?\n")
		args = append(args, q.SceneFrom)
	} else if q.SceneTo > 0 {
		sb.WriteString(" AND s.scene_number <= ?\n")
		args = append(args, q.SceneTo)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString(" ORDER BY s.script, s.scene_number\n LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Script, &r.Scene, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
