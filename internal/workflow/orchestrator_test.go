/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"explainkit/internal/script"
)

func docWithScenes(numbers ...int) script.Document {
	doc := script.Document{Title: "Test", TotalDuration: 72, Format: "9:16"}
	for _, n := range numbers {
		doc.Scenes = append(doc.Scenes, script.Scene{
			Number:   n,
			Title:    "Scene",
			Duration: 6,
			Prompt:   "prompt text",
		})
	}
	return doc
}

func TestRunProcessesAllScenesInOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()

	var got []int
	proc := ProcessorFunc(func(_ context.Context, s script.Scene, _ string) error {
		got = append(got, s.Number)
		return nil
	})
	stats := Run(context.Background(), docWithScenes(1, 2, 3), "demo", proc, opts)

	if stats.Total != 3 || stats.Completed != 3 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("processed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("processed %v, want %v", got, want)
		}
	}
}

func TestRunZeroScenesReturnsZeroStats(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()

	called := false
	proc := ProcessorFunc(func(context.Context, script.Scene, string) error {
		called = true
		return nil
	})
	stats := Run(context.Background(), script.Document{}, "empty", proc, opts)

	if stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if called {
		t.Fatal("processor invoked for empty document")
	}
}

func TestRunSkipsScenesWithExistingOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()

	// Pre-create scene 3's marker file.
	dir := SceneOutputDir(opts.OutputBaseDir, "demo", 3)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, opts.OutputFilename), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got []int
	proc := ProcessorFunc(func(_ context.Context, s script.Scene, _ string) error {
		got = append(got, s.Number)
		return nil
	})
	stats := Run(context.Background(), docWithScenes(1, 2, 3, 4), "demo", proc, opts)

	if stats.Skipped != 1 || stats.Completed != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, n := range got {
		if n == 3 {
			t.Fatal("processor invoked for skipped scene 3")
		}
	}
}

func TestRunSkipExistingDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()
	opts.SkipExisting = false

	dir := SceneOutputDir(opts.OutputBaseDir, "demo", 1)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, opts.OutputFilename), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats := Run(context.Background(), docWithScenes(1), "demo",
		ProcessorFunc(func(context.Context, script.Scene, string) error { return nil }), opts)
	if stats.Completed != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRunHaltsOnFirstFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()
	opts.ContinueOnError = false

	var got []int
	proc := ProcessorFunc(func(_ context.Context, s script.Scene, _ string) error {
		got = append(got, s.Number)
		if s.Number == 2 {
			return errors.New("boom")
		}
		return nil
	})
	stats := Run(context.Background(), docWithScenes(1, 2, 3, 4, 5), "demo", proc, opts)

	if stats.Total != 5 {
		t.Fatalf("Total = %d, want 5", stats.Total)
	}
	if stats.Completed != 1 || stats.Failed != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(got) != 2 {
		t.Fatalf("processed %v, scenes after the failure should be unattempted", got)
	}
}

func TestRunContinuesOnFailureByDefault(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()

	proc := ProcessorFunc(func(_ context.Context, s script.Scene, _ string) error {
		if s.Number == 2 {
			return errors.New("boom")
		}
		return nil
	})
	stats := Run(context.Background(), docWithScenes(1, 2, 3), "demo", proc, opts)
	if stats.Completed != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRunSceneNumberFilter(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()
	opts.SceneNumbers = []int{2, 4}

	var got []int
	proc := ProcessorFunc(func(_ context.Context, s script.Scene, _ string) error {
		got = append(got, s.Number)
		return nil
	})
	stats := Run(context.Background(), docWithScenes(1, 2, 3, 4, 5), "demo", proc, opts)

	if stats.Total != 2 || stats.Completed != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("processed %v, want [2 4]", got)
	}
}

func TestRunEmptyNonNilFilterSelectsNothing(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()
	opts.SceneNumbers = []int{}

	stats := Run(context.Background(), docWithScenes(1, 2), "demo",
		ProcessorFunc(func(context.Context, script.Scene, string) error {
			t.Fatal("processor should not run")
			return nil
		}), opts)
	if stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputBaseDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	proc := ProcessorFunc(func(_ context.Context, s script.Scene, _ string) error {
		got = append(got, s.Number)
		if s.Number == 1 {
			cancel()
		}
		return nil
	})
	stats := Run(ctx, docWithScenes(1, 2, 3), "demo", proc, opts)

	if len(got) != 1 {
		t.Fatalf("processed %v, want run to stop after cancellation", got)
	}
	if stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promo.md")
	text := "# Promo - 2 SCENES\n\n" +
		"## SCENE 1: Hook (5 seconds)\nNarration: \"Hello.\"\n\n" +
		"## SCENE 2: Close (7 seconds)\nNarration: \"Bye.\"\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.OutputBaseDir = filepath.Join(dir, "out")

	var dirs []string
	proc := ProcessorFunc(func(_ context.Context, _ script.Scene, outputDir string) error {
		dirs = append(dirs, outputDir)
		return nil
	})
	stats, err := RunFile(context.Background(), path, proc, opts)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if stats.Completed != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	want := SceneOutputDir(opts.OutputBaseDir, "promo", 1)
	if dirs[0] != want {
		t.Fatalf("outputDir = %q, want %q", dirs[0], want)
	}
}

func TestRunFileMissing(t *testing.T) {
	_, err := RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.md"),
		PromptWriter{}, DefaultOptions())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPromptWriterWritesSceneFiles(t *testing.T) {
	dir := t.TempDir()
	narr := "Spoken line."
	initial := "wide shot of a city"
	s := script.Scene{
		Number:        1,
		Title:         "Hook",
		Duration:      5,
		Prompt:        "raw body",
		Narration:     &narr,
		InitialPrompt: &initial,
	}
	if err := (PromptWriter{}).ProcessScene(context.Background(), s, dir); err != nil {
		t.Fatalf("ProcessScene: %v", err)
	}

	for name, want := range map[string]string{
		"prompt.txt":         "raw body",
		"narration.txt":      "Spoken line.",
		"initial_prompt.txt": "wide shot of a city",
	} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(b) != want {
			t.Fatalf("%s = %q, want %q", name, b, want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "final_prompt.txt")); !os.IsNotExist(err) {
		t.Fatal("final_prompt.txt should not exist for a scene without a final prompt")
	}
}

func TestSceneOutputDirNaming(t *testing.T) {
	got := SceneOutputDir("output", "demo", 7)
	want := filepath.Join("output", "demo", "scene_07")
	if got != want {
		t.Fatalf("SceneOutputDir = %q, want %q", got, want)
	}
}
