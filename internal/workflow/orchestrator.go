/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workflow drives a caller-supplied per-scene processor across a
// parsed script, with skip-if-exists logic, error continuation and run
// statistics. Scenes are processed strictly sequentially: processors may
// share rate-limited APIs or output directories that the orchestrator does
// not coordinate. The orchestrator itself never writes output files; it only
// checks for their existence.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "explainkit/internal/log"
	"explainkit/internal/script"
)

// Processor is the orchestrator's extension point: any per-scene processing
// strategy (image generation, audio generation, pure analysis) implements
// this one method. outputDir is where the processor is expected to place its
// results; creating it is the processor's job.
type Processor interface {
	ProcessScene(ctx context.Context, scene script.Scene, outputDir string) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, scene script.Scene, outputDir string) error

func (f ProcessorFunc) ProcessScene(ctx context.Context, scene script.Scene, outputDir string) error {
	return f(ctx, scene, outputDir)
}

// Options configures one orchestration run. Start from DefaultOptions: the
// zero value disables skip-if-exists and error continuation, which is rarely
// what callers want.
type Options struct {
	// SceneNumbers restricts the run to these scene numbers. nil means all
	// scenes; an empty non-nil slice means none.
	SceneNumbers []int
	// SkipExisting skips scenes whose output file already exists.
	SkipExisting bool
	// OutputBaseDir is the root of the output tree (default "output").
	OutputBaseDir string
	// OutputFilename is the file whose existence marks a scene as done
	// (default "final.png").
	OutputFilename string
	// ContinueOnError keeps processing remaining scenes after a failure.
	// When false the run halts at the first failure; remaining scenes are
	// abandoned and not counted as failed or skipped.
	ContinueOnError bool
}

// DefaultOptions returns the documented defaults: process all scenes, skip
// existing output, continue on error.
func DefaultOptions() Options {
	return Options{
		SkipExisting:    true,
		OutputBaseDir:   "output",
		OutputFilename:  "final.png",
		ContinueOnError: true,
	}
}

// Stats accumulates counters for one run. Total reflects the scene count
// after SceneNumbers filtering, including any scenes abandoned by an early
// halt.
type Stats struct {
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SceneOutputDir returns the conventional output directory for one scene:
// <base>/<name>/scene_NN.
func SceneOutputDir(baseDir, name string, sceneNumber int) string {
	return filepath.Join(baseDir, name, fmt.Sprintf("scene_%02d", sceneNumber))
}

// OutputExists reports whether the done-marker file exists in a scene's
// output directory.
func OutputExists(outputDir, filename string) bool {
	_, err := os.Stat(filepath.Join(outputDir, filename))
	return err == nil
}

// FilterScenes returns the scenes whose numbers are in sceneNumbers,
// preserving document order. nil selects all scenes.
func FilterScenes(scenes []script.Scene, sceneNumbers []int) []script.Scene {
	if sceneNumbers == nil {
		return scenes
	}
	want := make(map[int]bool, len(sceneNumbers))
	for _, n := range sceneNumbers {
		want[n] = true
	}
	out := make([]script.Scene, 0, len(scenes))
	for _, s := range scenes {
		if want[s.Number] {
			out = append(out, s)
		}
	}
	return out
}

// Run drives proc across the document's scenes in order. name is the script
// base name used in the output path convention. A processor failure is
// caught, logged and counted; it never crashes the run unless
// ContinueOnError is false, in which case the loop halts and the remaining
// scenes stay unattempted. A run with zero matching scenes returns
// immediately with all counters at zero and proc is never invoked.
func Run(ctx context.Context, doc script.Document, name string, proc Processor, opts Options) Stats {
	if opts.OutputBaseDir == "" {
		opts.OutputBaseDir = "output"
	}
	if opts.OutputFilename == "" {
		opts.OutputFilename = "final.png"
	}
	l := applog.WithOperation(applog.WithComponent("workflow"), "run").With(
		slog.String("script", name),
	)

	scenes := FilterScenes(doc.Scenes, opts.SceneNumbers)
	if len(scenes) == 0 {
		l.Info("no scenes to process")
		return Stats{}
	}

	stats := Stats{Total: len(scenes)}
	start := time.Now()
	for i, s := range scenes {
		if ctx.Err() != nil {
			l.Warn("run cancelled", slog.Int("scene", s.Number))
			break
		}
		outDir := SceneOutputDir(opts.OutputBaseDir, name, s.Number)
		if opts.SkipExisting && OutputExists(outDir, opts.OutputFilename) {
			l.Info("skipping scene, output exists",
				slog.Int("scene", s.Number), slog.String("title", s.Title))
			stats.Skipped++
			continue
		}
		l.Info("processing scene",
			slog.Int("scene", s.Number), slog.String("title", s.Title),
			slog.Int("index", i+1), slog.Int("of", stats.Total))
		if err := proc.ProcessScene(ctx, s, outDir); err != nil {
			stats.Failed++
			l.Error("scene processing failed",
				slog.Int("scene", s.Number), slog.Any("err", err))
			if !opts.ContinueOnError {
				break
			}
			continue
		}
		stats.Completed++
	}
	stats.Elapsed = time.Since(start)
	l.Info("run finished",
		slog.Int("total", stats.Total), slog.Int("completed", stats.Completed),
		slog.Int("skipped", stats.Skipped), slog.Int("failed", stats.Failed),
		slog.Duration("elapsed", stats.Elapsed))
	return stats
}

// RunFile parses a script file and runs proc over it. The script's base name
// (without extension) becomes the output subdirectory name.
func RunFile(ctx context.Context, path string, proc Processor, opts Options) (Stats, error) {
	doc, err := script.ParseFile(path)
	if err != nil {
		return Stats{}, err
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Run(ctx, doc, name, proc, opts), nil
}
