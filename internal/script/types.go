/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Defaults applied when the header region omits or garbles a declaration.
const (
	UnknownTitle         = "Unknown"
	DefaultTotalDuration = 72.0
	DefaultFormat        = "9:16"
	DefaultSceneDuration = 6.0
)

// Document is the parsed representation of one explainer script. It is
// constructed once per Parse call and not mutated afterwards.
type Document struct {
	Title         string  `json:"title"`
	TotalDuration float64 `json:"totalDuration"` // seconds
	Format        string  `json:"format"`        // aspect/orientation tag, e.g. "9:16"
	Scenes        []Scene `json:"scenes"`        // encounter order; numbers verbatim
}

// Scene is one scene's extracted content. Narration, InitialPrompt and
// FinalPrompt are nil when the corresponding marker is absent from the scene
// span; an empty string means the marker was present with empty content.
type Scene struct {
	Number        int     `json:"sceneNumber"`
	Title         string  `json:"title"`
	Duration      float64 `json:"durationSeconds"`
	Prompt        string  `json:"rawPromptText"` // full block between this header and the next
	Narration     *string `json:"narration,omitempty"`
	InitialPrompt *string `json:"initialPrompt,omitempty"`
	FinalPrompt   *string `json:"finalPrompt,omitempty"`
}

// HasNarration reports whether the scene declares narration at all.
// A scene with Narration: "" has narration (the empty string); a scene
// without the marker does not.
func (s Scene) HasNarration() bool { return s.Narration != nil }

// SceneByNumber returns the first scene with the given number.
func (d Document) SceneByNumber(n int) (Scene, bool) {
	for _, s := range d.Scenes {
		if s.Number == n {
			return s, true
		}
	}
	return Scene{}, false
}
