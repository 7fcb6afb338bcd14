/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"fmt"
)

// The narration extractor is a thin projection over the same scene scanner the
// full parser uses, for callers that want narration only without paying for
// prompt-section scanning.

var (
	// ErrSceneNotFound is returned when no scene with the requested number
	// exists in the text. A missing scene number is a caller logic error,
	// not a formatting quirk.
	ErrSceneNotFound = errors.New("scene not found")

	// ErrNoNarration is returned when the scene exists but declares no
	// narration marker (a designated silent scene).
	ErrNoNarration = errors.New("scene has no narration")
)

// NarrationLine is one scene's narration view. Narration is nil for silent
// scenes and the empty string for scenes declaring Narration: "".
type NarrationLine struct {
	SceneNumber int     `json:"sceneNumber"`
	Title       string  `json:"title"`
	Duration    float64 `json:"durationSeconds"`
	Narration   *string `json:"narration,omitempty"`
}

// ExtractAll returns one NarrationLine per scene marker, in encounter order.
// Its length always equals len(Parse(text).Scenes).
func ExtractAll(text string) []NarrationLine {
	_, spans := scanScenes(text)
	lines := make([]NarrationLine, 0, len(spans))
	for _, sp := range spans {
		lines = append(lines, NarrationLine{
			SceneNumber: sp.number,
			Title:       sp.title,
			Duration:    spanDuration(sp.durationRaw),
			Narration:   extractNarration(sp.body),
		})
	}
	return lines
}

// ExtractOne returns the narration for the scene with the given number.
// When the text contains duplicate scene numbers, the first occurrence wins.
// It fails with ErrSceneNotFound when no such scene exists and with
// ErrNoNarration when the scene is silent.
func ExtractOne(text string, sceneNumber int) (string, error) {
	_, spans := scanScenes(text)
	for _, sp := range spans {
		if sp.number != sceneNumber {
			continue
		}
		n := extractNarration(sp.body)
		if n == nil {
			return "", fmt.Errorf("scene %d: %w", sceneNumber, ErrNoNarration)
		}
		return *n, nil
	}
	return "", fmt.Errorf("scene %d: %w", sceneNumber, ErrSceneNotFound)
}
