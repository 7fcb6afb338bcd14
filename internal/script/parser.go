/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script parses explainer scripts written in the template convention:
// a header region (title, total duration, format) followed by repeated
// "## SCENE N: Title (D seconds)" blocks carrying narration and image/video
// prompts. Scripts are human-authored prose that may deviate from the
// template, so parsing never fails; missing or garbled declarations degrade
// to documented defaults.
package script

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	reTitleLine     = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
	reSceneSuffix   = regexp.MustCompile(`(?i)\s*-\s*\d+\s*SCENES?\s*$`)
	reTotalDuration = regexp.MustCompile(`(?i)Total Duration:\s*(\d+(?:\.\d+)?)\s*seconds?`)
	reFormatDecl    = regexp.MustCompile(`(?mi)^Format:\s*(\S+)`)

	reNarration     = regexp.MustCompile(`Narration:\s*"([^"]*)"`)
	reNanoBanana    = regexp.MustCompile(`(?s)Nano Banana Iterative Prompt:\s*\n\s*"([^"]+)"`)
	reInitialInline = regexp.MustCompile(`Initial:\s*([^|]+)`)
	reInitialLegacy = regexp.MustCompile(`(?s)Initial Prompt:\s*\n\s*"([^"]+)"`)
	reFinalLegacy   = regexp.MustCompile(`(?s)Final Prompt.*?:\s*\n\s*"([^"]+)"`)
)

// Parse converts raw script text into a Document. It never fails: a text with
// no recognizable structure yields a Document with default title, duration
// and format and an empty scene list. Scene numbers are taken verbatim from
// the headers; duplicates are retained and order follows the source text.
func Parse(text string) Document {
	header, spans := scanScenes(text)

	doc := Document{
		Title:         UnknownTitle,
		TotalDuration: DefaultTotalDuration,
		Format:        DefaultFormat,
	}

	if m := reTitleLine.FindStringSubmatch(header); m != nil {
		t := strings.TrimSpace(reSceneSuffix.ReplaceAllString(m[1], ""))
		if t != "" {
			doc.Title = t
		}
	}
	if m := reTotalDuration.FindStringSubmatch(header); m != nil {
		if d, err := strconv.ParseFloat(m[1], 64); err == nil {
			doc.TotalDuration = d
		}
	}
	if m := reFormatDecl.FindStringSubmatch(header); m != nil {
		doc.Format = m[1]
	}

	for _, sp := range spans {
		doc.Scenes = append(doc.Scenes, parseScene(sp))
	}
	return doc
}

// ParseFile reads and parses a script file.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read script: %w", err)
	}
	return Parse(string(data)), nil
}

func parseScene(sp span) Scene {
	s := Scene{
		Number:   sp.number,
		Title:    sp.title,
		Duration: spanDuration(sp.durationRaw),
		Prompt:   sp.body,
	}
	s.Narration = extractNarration(sp.body)
	s.InitialPrompt, s.FinalPrompt = extractPrompts(sp.body)
	return s
}

// extractNarration returns the first quoted narration in the span, verbatim.
// nil means the marker is absent; a present marker with an empty quote yields
// the empty string (absent and empty are distinct).
func extractNarration(body string) *string {
	m := reNarration.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	n := m[1]
	return &n
}

// extractPrompts locates the initial and final image prompts inside a scene
// span. The current template embeds the initial prompt in a "Nano Banana
// Iterative Prompt" block as `Initial: ... | Iteration 1: ...`; older scripts
// used separate quoted "Initial Prompt:" / "Final Prompt:" sections.
func extractPrompts(body string) (initial, final *string) {
	if m := reNanoBanana.FindStringSubmatch(body); m != nil {
		if im := reInitialInline.FindStringSubmatch(m[1]); im != nil {
			v := strings.TrimSpace(im[1])
			initial = &v
		}
	}
	if initial == nil {
		if strings.HasPrefix(strings.TrimSpace(body), "Initial:") {
			if im := reInitialInline.FindStringSubmatch(body); im != nil {
				v := strings.TrimSpace(im[1])
				initial = &v
			}
		}
	}
	if initial == nil {
		if m := reInitialLegacy.FindStringSubmatch(body); m != nil {
			v := strings.TrimSpace(m[1])
			initial = &v
		}
	}
	if m := reFinalLegacy.FindStringSubmatch(body); m != nil {
		v := strings.TrimSpace(m[1])
		// A placeholder final prompt counts as absent.
		if v != "" && !strings.HasPrefix(v, "[To be determined") {
			final = &v
		}
	}
	return initial, final
}
