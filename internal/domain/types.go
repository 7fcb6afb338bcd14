/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// Project represents an explainer video workspace and its metadata.
// It serializes to a human-readable JSON manifest (explainer.json).
type Project struct {
	Name     string      `json:"name"`
	Metadata Metadata    `json:"metadata,omitempty"`
	Defaults Defaults    `json:"defaults,omitempty"`
	Scripts  []ScriptRef `json:"scripts"`
}

// Metadata contains optional descriptive metadata for a workspace.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Audience string `json:"audience,omitempty"`
	Creators string `json:"creators,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Defaults captures workspace-wide production settings applied when a
// script does not override them.
type Defaults struct {
	Format         string  `json:"format,omitempty"`         // aspect ratio, e.g. "9:16"
	SceneDuration  float64 `json:"sceneDuration,omitempty"`  // seconds
	OutputFilename string  `json:"outputFilename,omitempty"` // per-scene done marker
}

// ScriptRef registers one script file in the workspace. Path is relative
// to the workspace root; Name doubles as the output subdirectory name.
type ScriptRef struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	Format        string  `json:"format,omitempty"`
	SceneCount    int     `json:"sceneCount,omitempty"`
	TotalDuration float64 `json:"totalDuration,omitempty"`
	SequencePath  string  `json:"sequencePath,omitempty"` // layout sequence JSON, if generated
}

// ScriptByName returns the script reference with the given name, or nil.
func (p *Project) ScriptByName(name string) *ScriptRef {
	for i := range p.Scripts {
		if p.Scripts[i].Name == name {
			return &p.Scripts[i]
		}
	}
	return nil
}

// Run records the outcome of one orchestration pass over a script.
type Run struct {
	ID        int64     `json:"id,omitempty"`
	Script    string    `json:"script"`
	StartedAt time.Time `json:"startedAt"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	ElapsedMs int64     `json:"elapsedMs"`
}
