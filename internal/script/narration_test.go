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
	"testing"
)

func TestExtractAllMatchesParse(t *testing.T) {
	lines := ExtractAll(sampleScript)
	doc := Parse(sampleScript)
	if len(lines) != len(doc.Scenes) {
		t.Fatalf("ExtractAll returned %d lines, Parse found %d scenes", len(lines), len(doc.Scenes))
	}
	for i, l := range lines {
		s := doc.Scenes[i]
		if l.SceneNumber != s.Number || l.Title != s.Title || l.Duration != s.Duration {
			t.Fatalf("line %d disagrees with parser: %+v vs %+v", i, l, s)
		}
		if (l.Narration == nil) != (s.Narration == nil) {
			t.Fatalf("line %d narration presence disagrees with parser", i)
		}
		if l.Narration != nil && *l.Narration != *s.Narration {
			t.Fatalf("line %d narration = %q, parser has %q", i, *l.Narration, *s.Narration)
		}
	}
}

func TestExtractOne(t *testing.T) {
	n, err := ExtractOne(sampleScript, 1)
	if err != nil {
		t.Fatalf("ExtractOne(1) error: %v", err)
	}
	if n != "This is the first scene narration." {
		t.Fatalf("narration = %q", n)
	}
}

func TestExtractOneEmptyNarration(t *testing.T) {
	n, err := ExtractOne(sampleScript, 2)
	if err != nil {
		t.Fatalf("ExtractOne(2) error: %v", err)
	}
	if n != "" {
		t.Fatalf("declared-empty narration should be the empty string, got %q", n)
	}
}

func TestExtractOneSilentScene(t *testing.T) {
	_, err := ExtractOne(sampleScript, 0)
	if !errors.Is(err, ErrNoNarration) {
		t.Fatalf("expected ErrNoNarration, got %v", err)
	}
}

func TestExtractOneSceneNotFound(t *testing.T) {
	_, err := ExtractOne(sampleScript, 42)
	if !errors.Is(err, ErrSceneNotFound) {
		t.Fatalf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestExtractOneDuplicateNumbersFirstWins(t *testing.T) {
	text := `## SCENE 3: A (6 seconds)
Narration: "first"

## SCENE 3: B (6 seconds)
Narration: "second"
`
	n, err := ExtractOne(text, 3)
	if err != nil {
		t.Fatalf("ExtractOne error: %v", err)
	}
	if n != "first" {
		t.Fatalf("expected first occurrence to win, got %q", n)
	}
}
