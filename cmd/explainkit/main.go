/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"explainkit/internal/backend"
	"explainkit/internal/bundle"
	"explainkit/internal/config"
	"explainkit/internal/crash"
	"explainkit/internal/domain"
	"explainkit/internal/export"
	"explainkit/internal/layout"
	applog "explainkit/internal/log"
	"explainkit/internal/script"
	"explainkit/internal/storage"
	"explainkit/internal/telemetry"
	"explainkit/internal/version"
	"explainkit/internal/workflow"
)

func usage() {
	fmt.Println("ExplainerKit — explainer video script toolkit")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  explainkit version                              Show version")
	fmt.Println("  explainkit parse <script.md> [-json]            Parse a script and print its structure")
	fmt.Println("  explainkit narration <script.md> [-scene N]     Extract narration lines")
	fmt.Println("  explainkit layout suggest -type <sceneType>     Suggest layout patterns")
	fmt.Println("  explainkit layout sequence -types a,b,c         Generate a full layout sequence")
	fmt.Println("  explainkit run <script.md> [flags]              Process scenes (writes prompt files)")
	fmt.Println("  explainkit export narration|storyboard|sheet    Render PDFs and contact sheets")
	fmt.Println("  explainkit init <dir> <name>                    Create a new workspace")
	fmt.Println("  explainkit add <workspace> <script.md>          Register a script in a workspace")
	fmt.Println("  explainkit runs <workspace> [-script s]         Show run history")
	fmt.Println("  explainkit search <workspace> <query>           Full-text search over narration")
	fmt.Println("  explainkit bundle export|install <workspace>    Share scripts as a zip bundle")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("ExplainerKit")
		fmt.Println(version.String())
	case "parse":
		err = cmdParse(args[2:])
	case "narration":
		err = cmdNarration(args[2:])
	case "layout":
		err = cmdLayout(args[2:])
	case "run":
		err = cmdRun(args[2:], &wh)
	case "export":
		err = cmdExport(args[2:])
	case "init":
		wh, err = cmdInit(args[2:])
	case "add":
		wh, err = cmdAdd(args[2:])
	case "runs":
		err = cmdRuns(args[2:])
	case "search":
		err = cmdSearch(args[2:])
	case "bundle":
		err = cmdBundle(args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func cmdParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the parsed document as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("parse requires <script.md>")
	}
	doc, err := script.ParseFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(doc)
	}
	fmt.Printf("%s\n", doc.Title)
	fmt.Printf("Total: %g s, format %s, %d scenes\n\n", doc.TotalDuration, doc.Format, len(doc.Scenes))
	for _, s := range doc.Scenes {
		state := "silent"
		if s.Narration != nil {
			if *s.Narration == "" {
				state = "empty narration"
			} else {
				state = "narrated"
			}
		}
		fmt.Printf("  scene %2d  %-30s %5.1f s  %s\n", s.Number, s.Title, s.Duration, state)
	}
	return nil
}

func cmdNarration(args []string) error {
	fs := flag.NewFlagSet("narration", flag.ExitOnError)
	scene := fs.Int("scene", 0, "extract a single scene's narration")
	asJSON := fs.Bool("json", false, "print narration lines as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("narration requires <script.md>")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	text := string(data)
	if *scene > 0 {
		n, err := script.ExtractOne(text, *scene)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}
	lines := script.ExtractAll(text)
	if *asJSON {
		return printJSON(lines)
	}
	for _, ln := range lines {
		if ln.Narration == nil {
			fmt.Printf("scene %2d: (silent)\n", ln.SceneNumber)
			continue
		}
		fmt.Printf("scene %2d: %s\n", ln.SceneNumber, *ln.Narration)
	}
	return nil
}

func cmdLayout(args []string) error {
	if len(args) < 1 {
		return errors.New("layout requires a subcommand: suggest or sequence")
	}
	switch args[0] {
	case "suggest":
		fs := flag.NewFlagSet("layout suggest", flag.ExitOnError)
		sceneType := fs.String("type", "", "scene type (e.g. opening, problem, solution)")
		count := fs.Int("count", 3, "number of suggestions")
		used := fs.String("used", "", "comma-separated pattern ids already used")
		prev := fs.Int("prev", 0, "pattern id of the previous scene")
		seed := fs.Int64("seed", 0, "deterministic seed (0 = random)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		usedIDs, err := parseIntList(*used)
		if err != nil {
			return err
		}
		sel := newSelector(*seed)
		for _, sug := range sel.Suggest(*sceneType, usedIDs, *prev, *count) {
			fmt.Printf("  #%-3d %-28s %s\n", sug.Pattern.ID, sug.Pattern.Name, sug.Reason)
		}
		return nil
	case "sequence":
		fs := flag.NewFlagSet("layout sequence", flag.ExitOnError)
		types := fs.String("types", "", "comma-separated scene types, one per scene")
		out := fs.String("out", "", "write the sequence to a JSON file")
		seed := fs.Int64("seed", 0, "deterministic seed (0 = random)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		sceneTypes := splitList(*types)
		if len(sceneTypes) == 0 {
			return errors.New("layout sequence requires -types")
		}
		sel := newSelector(*seed)
		seq, err := sel.GenerateSequence(len(sceneTypes), sceneTypes)
		if err != nil {
			return err
		}
		for _, it := range seq {
			fmt.Printf("  scene %2d  #%-3d %-28s %s/%s\n", it.SceneNumber, it.PatternID, it.Name, it.Category, it.Weight)
		}
		if *out != "" {
			if err := layout.SaveSequence(seq, *out); err != nil {
				return err
			}
			fmt.Println("Wrote", *out)
		}
		return nil
	default:
		return fmt.Errorf("unknown layout subcommand %q", args[0])
	}
}

func cmdRun(args []string, whOut **storage.WorkspaceHandle) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scenes := fs.String("scenes", "", "comma-separated scene numbers to process (default all)")
	outDir := fs.String("out", "", "output base directory")
	outFile := fs.String("file", "", "done-marker filename")
	force := fs.Bool("force", false, "reprocess scenes whose output already exists")
	halt := fs.Bool("halt", false, "stop at the first failing scene")
	workspaceDir := fs.String("workspace", "", "record the run in this workspace")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("run requires <script.md>")
	}
	path := fs.Arg(0)

	cfg, dsn, err := config.Load()
	if err != nil {
		return err
	}
	telemetry.NewDefault(telemetryConfig(cfg))

	opts := workflow.Options{
		SkipExisting:    cfg.Workflow.SkipExisting,
		OutputBaseDir:   cfg.Workflow.OutputBaseDir,
		OutputFilename:  cfg.Workflow.OutputFilename,
		ContinueOnError: cfg.Workflow.ContinueOnError,
	}
	if *outDir != "" {
		opts.OutputBaseDir = *outDir
	}
	if *outFile != "" {
		opts.OutputFilename = *outFile
	}
	if *force {
		opts.SkipExisting = false
	}
	if *halt {
		opts.ContinueOnError = false
	}
	if *scenes != "" {
		nums, err := parseIntList(*scenes)
		if err != nil {
			return err
		}
		opts.SceneNumbers = nums
	}

	started := time.Now()
	stats, err := workflow.RunFile(context.Background(), path, workflow.PromptWriter{}, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d scenes: %d completed, %d skipped, %d failed in %s\n",
		stats.Total, stats.Completed, stats.Skipped, stats.Failed, stats.Elapsed.Round(time.Millisecond))

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	run := domain.Run{
		Script:    name,
		StartedAt: started,
		Total:     stats.Total,
		Completed: stats.Completed,
		Skipped:   stats.Skipped,
		Failed:    stats.Failed,
		ElapsedMs: stats.Elapsed.Milliseconds(),
	}
	telemetry.Event("run_completed", map[string]any{
		"scenes": stats.Total, "completed": stats.Completed, "failed": stats.Failed,
	})

	if *workspaceDir != "" {
		wh, err := storage.Open(*workspaceDir)
		if err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
		*whOut = wh
		if err := storage.RecordRun(context.Background(), wh, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if cfg.Archive.Enabled && dsn != "" {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Archive.TimeoutMs)*time.Millisecond)
			defer cancel()
			a, err := backend.Open(ctx, dsn)
			if err != nil {
				// The local record is already written; the archive is best effort.
				applog.WithComponent("cli").Warn("archive unavailable", slog.Any("err", err))
			} else {
				defer a.Close()
				if err := a.RecordRun(ctx, wh.Project.Name, run); err != nil {
					applog.WithComponent("cli").Warn("archive record failed", slog.Any("err", err))
				}
			}
		}
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d scene(s) failed", stats.Failed)
	}
	return nil
}

func cmdExport(args []string) error {
	if len(args) < 1 {
		return errors.New("export requires a subcommand: narration, storyboard or sheet")
	}
	switch args[0] {
	case "narration":
		fs := flag.NewFlagSet("export narration", flag.ExitOnError)
		out := fs.String("out", "narration.pdf", "output PDF path")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return errors.New("export narration requires <script.md>")
		}
		doc, err := script.ParseFile(fs.Arg(0))
		if err != nil {
			return err
		}
		if err := export.ExportNarrationPDF(doc, *out, export.PDFOptions{}); err != nil {
			return err
		}
		fmt.Println("Wrote", *out)
		return nil
	case "storyboard":
		fs := flag.NewFlagSet("export storyboard", flag.ExitOnError)
		out := fs.String("out", "storyboard.pdf", "output PDF path")
		seqPath := fs.String("seq", "", "layout sequence JSON to annotate frames with")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return errors.New("export storyboard requires <script.md>")
		}
		doc, err := script.ParseFile(fs.Arg(0))
		if err != nil {
			return err
		}
		var seq []layout.SequenceItem
		if *seqPath != "" {
			seq, err = layout.LoadSequence(*seqPath)
			if err != nil {
				return err
			}
		}
		if err := export.ExportStoryboardPDF(doc, seq, *out, export.PDFOptions{}); err != nil {
			return err
		}
		fmt.Println("Wrote", *out)
		return nil
	case "sheet":
		fs := flag.NewFlagSet("export sheet", flag.ExitOnError)
		out := fs.String("out", "sequence.png", "output PNG path")
		seqPath := fs.String("seq", "", "layout sequence JSON (required)")
		cols := fs.Int("columns", 4, "cells per row")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *seqPath == "" {
			return errors.New("export sheet requires -seq")
		}
		seq, err := layout.LoadSequence(*seqPath)
		if err != nil {
			return err
		}
		if err := export.ExportSequenceSheet(seq, *out, export.SheetOptions{Columns: *cols}); err != nil {
			return err
		}
		fmt.Println("Wrote", *out)
		return nil
	default:
		return fmt.Errorf("unknown export subcommand %q", args[0])
	}
}

func cmdInit(args []string) (*storage.WorkspaceHandle, error) {
	if len(args) < 2 {
		return nil, errors.New("init requires <dir> and <name>")
	}
	abs, _ := filepath.Abs(args[0])
	proj := domain.Project{
		Name: args[1],
		Defaults: domain.Defaults{
			Format:         script.DefaultFormat,
			SceneDuration:  script.DefaultSceneDuration,
			OutputFilename: "final.png",
		},
		Scripts: []domain.ScriptRef{},
	}
	wh, err := storage.InitWorkspace(abs, proj)
	if err != nil {
		return nil, err
	}
	fmt.Println("Created workspace at", abs)
	return wh, nil
}

func cmdAdd(args []string) (*storage.WorkspaceHandle, error) {
	if len(args) < 2 {
		return nil, errors.New("add requires <workspace> and <script.md>")
	}
	wh, err := storage.Open(args[0])
	if err != nil {
		return nil, err
	}
	src := args[1]
	doc, err := script.ParseFile(src)
	if err != nil {
		return wh, err
	}
	ref := domain.ScriptRef{
		Format:        doc.Format,
		SceneCount:    len(doc.Scenes),
		TotalDuration: doc.TotalDuration,
	}
	if err := storage.AddScript(wh, src, ref); err != nil {
		return wh, err
	}
	ctx := context.Background()
	if err := storage.UpdateIndex(ctx, wh); err != nil {
		return wh, err
	}
	base := filepath.Base(src)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if data, rerr := os.ReadFile(src); rerr == nil {
		_ = storage.SaveScriptSnapshot(ctx, wh, name, string(data), time.Now())
	}
	fmt.Printf("Registered %q (%d scenes)\n", filepath.Base(src), len(doc.Scenes))
	return wh, nil
}

func cmdRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	scriptName := fs.String("script", "", "filter by script name")
	limit := fs.Int("limit", 20, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("runs requires <workspace>")
	}
	wh, err := storage.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	runs, err := storage.ListRuns(context.Background(), wh, *scriptName, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("  %s  %-16s total=%d completed=%d skipped=%d failed=%d (%d ms)\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Script,
			r.Total, r.Completed, r.Skipped, r.Failed, r.ElapsedMs)
	}
	return nil
}

func cmdSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	scriptName := fs.String("script", "", "restrict to one script")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("search requires <workspace> and <query>")
	}
	wh, err := storage.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := storage.BuildIndexIfEmpty(ctx, wh); err != nil {
		return err
	}
	res, err := storage.SearchNarration(ctx, wh.Root, storage.SearchQuery{
		Text:   strings.Join(fs.Args()[1:], " "),
		Script: *scriptName,
	})
	if err != nil {
		return err
	}
	if len(res) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, r := range res {
		fmt.Printf("  %s scene %d (%s): %s\n", r.Script, r.Scene, r.Title, r.Snippet)
	}
	return nil
}

func cmdBundle(args []string) error {
	if len(args) < 1 {
		return errors.New("bundle requires a subcommand: export or install")
	}
	switch args[0] {
	case "export":
		fs := flag.NewFlagSet("bundle export", flag.ExitOnError)
		out := fs.String("out", "scripts.zip", "output zip path")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return errors.New("bundle export requires <workspace>")
		}
		if err := bundle.ExportScripts(fs.Arg(0), *out); err != nil {
			return err
		}
		fmt.Println("Wrote", *out)
		return nil
	case "install":
		fs := flag.NewFlagSet("bundle install", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 2 {
			return errors.New("bundle install requires <workspace> and <bundle.zip>")
		}
		n, err := bundle.InstallBundle(fs.Arg(0), fs.Arg(1))
		if err != nil {
			return err
		}
		fmt.Printf("Installed %d file(s). Use 'explainkit add' to register new scripts.\n", n)
		return nil
	default:
		return fmt.Errorf("unknown bundle subcommand %q", args[0])
	}
}

func telemetryConfig(cfg config.AppConfig) telemetry.Config {
	tcfg := telemetry.FromEnv()
	if cfg.General.TelemetryOptIn {
		tcfg.OptIn = true
	}
	return tcfg
}

func newSelector(seed int64) *layout.Selector {
	if seed != 0 {
		return layout.NewSeededSelector(seed)
	}
	return layout.NewSelector()
}

func parseIntList(s string) ([]int, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
