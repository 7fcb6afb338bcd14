/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleScript = `# Sample Explainer: Test - 12 SCENES
Style: Dynamic explainer visual format
Total Duration: 72 seconds
Format: 9:16 VERTICAL
Audience: General

## SCENE 0: Opening Title (6 seconds) - NO NARRATION

Layout Design:
- Background: Pure white background
- Text: "Test Title" - Large, bold

Animation Prompt for AI Video Model:
"9:16 vertical format. Fade in title."

---

## SCENE 1: First Scene (6 seconds)

Narration: "This is the first scene narration."

Layout Design:
- Background: Light gray

Nano Banana Iterative Prompt:
"Initial: A clean flat illustration of a lightbulb | Iteration 1: add rays | Iteration 2: add gradient | Iteration 3: polish"

Animation Prompt for AI Video Model:
"9:16 vertical format. Scene animates."

---

## SCENE 2: Second Scene (7.5 seconds)

Narration: ""

Layout Design:
- Background: Dark

Animation Prompt for AI Video Model:
"9:16 vertical format."
`

func TestParseHeaderFields(t *testing.T) {
	doc := Parse(sampleScript)
	if doc.Title != "Sample Explainer: Test" {
		t.Fatalf("title = %q", doc.Title)
	}
	if doc.TotalDuration != 72.0 {
		t.Fatalf("total duration = %v", doc.TotalDuration)
	}
	if doc.Format != "9:16" {
		t.Fatalf("format = %q", doc.Format)
	}
}

func TestParseSceneCountAndOrder(t *testing.T) {
	doc := Parse(sampleScript)
	if len(doc.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(doc.Scenes))
	}
	for i, want := range []int{0, 1, 2} {
		if doc.Scenes[i].Number != want {
			t.Fatalf("scene %d number = %d, want %d", i, doc.Scenes[i].Number, want)
		}
	}
	if doc.Scenes[1].Title != "First Scene" {
		t.Fatalf("scene 1 title = %q", doc.Scenes[1].Title)
	}
	if doc.Scenes[2].Duration != 7.5 {
		t.Fatalf("scene 2 duration = %v", doc.Scenes[2].Duration)
	}
}

func TestParseNarrationAbsentVsEmpty(t *testing.T) {
	doc := Parse(sampleScript)
	if doc.Scenes[0].Narration != nil {
		t.Fatalf("scene 0 should have no narration, got %q", *doc.Scenes[0].Narration)
	}
	if doc.Scenes[1].Narration == nil || *doc.Scenes[1].Narration != "This is the first scene narration." {
		t.Fatalf("scene 1 narration = %v", doc.Scenes[1].Narration)
	}
	// Narration: "" is present-but-empty, not absent.
	if doc.Scenes[2].Narration == nil || *doc.Scenes[2].Narration != "" {
		t.Fatalf("scene 2 narration should be the empty string, got %v", doc.Scenes[2].Narration)
	}
}

func TestParsePromptExtraction(t *testing.T) {
	doc := Parse(sampleScript)
	s := doc.Scenes[1]
	if s.InitialPrompt == nil || *s.InitialPrompt != "A clean flat illustration of a lightbulb" {
		t.Fatalf("initial prompt = %v", s.InitialPrompt)
	}
	if s.FinalPrompt != nil {
		t.Fatalf("final prompt should be absent, got %q", *s.FinalPrompt)
	}
	if s.Prompt == "" {
		t.Fatalf("raw prompt text should not be empty")
	}
}

func TestParseLegacyPromptSections(t *testing.T) {
	text := `# Legacy - 1 SCENES
Total Duration: 6 seconds

## SCENE 1: Only (6 seconds)

Initial Prompt:
"legacy initial prompt"

Final Prompt (refined):
"legacy final prompt"
`
	doc := Parse(text)
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(doc.Scenes))
	}
	s := doc.Scenes[0]
	if s.InitialPrompt == nil || *s.InitialPrompt != "legacy initial prompt" {
		t.Fatalf("initial prompt = %v", s.InitialPrompt)
	}
	if s.FinalPrompt == nil || *s.FinalPrompt != "legacy final prompt" {
		t.Fatalf("final prompt = %v", s.FinalPrompt)
	}
}

func TestParseFinalPromptPlaceholderIgnored(t *testing.T) {
	text := `## SCENE 1: S (6 seconds)

Final Prompt:
"[To be determined after initial review]"
`
	doc := Parse(text)
	if doc.Scenes[0].FinalPrompt != nil {
		t.Fatalf("placeholder final prompt should be absent, got %q", *doc.Scenes[0].FinalPrompt)
	}
}

func TestParseDefaults(t *testing.T) {
	doc := Parse("just some prose with no structure at all")
	if doc.Title != UnknownTitle {
		t.Fatalf("title = %q, want %q", doc.Title, UnknownTitle)
	}
	if doc.TotalDuration != DefaultTotalDuration {
		t.Fatalf("total duration = %v, want %v", doc.TotalDuration, DefaultTotalDuration)
	}
	if doc.Format != DefaultFormat {
		t.Fatalf("format = %q, want %q", doc.Format, DefaultFormat)
	}
	if len(doc.Scenes) != 0 {
		t.Fatalf("expected no scenes, got %d", len(doc.Scenes))
	}
}

func TestParseUnparsableSceneDuration(t *testing.T) {
	text := `## SCENE 4: Odd One (a while)
Narration: "short"
`
	doc := Parse(text)
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(doc.Scenes))
	}
	if doc.Scenes[0].Duration != DefaultSceneDuration {
		t.Fatalf("duration = %v, want default %v", doc.Scenes[0].Duration, DefaultSceneDuration)
	}
}

func TestParseDuplicateSceneNumbersRetained(t *testing.T) {
	text := `## SCENE 3: First Copy (6 seconds)
Narration: "one"

## SCENE 3: Second Copy (6 seconds)
Narration: "two"
`
	doc := Parse(text)
	if len(doc.Scenes) != 2 {
		t.Fatalf("duplicates must both be retained, got %d scenes", len(doc.Scenes))
	}
	if doc.Scenes[0].Title != "First Copy" || doc.Scenes[1].Title != "Second Copy" {
		t.Fatalf("unexpected titles: %q, %q", doc.Scenes[0].Title, doc.Scenes[1].Title)
	}
}

func TestParseNonContiguousNumbersKeptVerbatim(t *testing.T) {
	text := `## SCENE 2: Two (6 seconds)
## SCENE 7: Seven (6 seconds)
## SCENE 5: Five (6 seconds)
`
	doc := Parse(text)
	got := []int{}
	for _, s := range doc.Scenes {
		got = append(got, s.Number)
	}
	want := []int{2, 7, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scene numbers = %v, want %v", got, want)
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte(sampleScript), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if len(doc.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(doc.Scenes))
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSceneByNumber(t *testing.T) {
	doc := Parse(sampleScript)
	s, ok := doc.SceneByNumber(1)
	if !ok || s.Title != "First Scene" {
		t.Fatalf("SceneByNumber(1) = %+v, %v", s, ok)
	}
	if _, ok := doc.SceneByNumber(99); ok {
		t.Fatalf("SceneByNumber(99) should report not found")
	}
}
