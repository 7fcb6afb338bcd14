/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"strconv"
	"strings"
)

// The scene-boundary scanner is shared by the full parser and the narration
// projection so the two entry points can never disagree on scene boundaries.

// Scene headers look like:
//
//	## SCENE 3: The Problem (6 seconds)
//
// Optional ** emphasis after ## is tolerated, case-insensitive.
var reSceneHeader = regexp.MustCompile(`(?mi)^##\s*\*{0,2}SCENE\s+(\d+):\s*([^(\r\n]*)\(([^)\r\n]*)\)`)

var reFirstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// span is one scene's slice of the source text: header fields plus the body
// running from the end of the header match to the next header (or EOF).
type span struct {
	number      int
	title       string
	durationRaw string // parenthetical content, e.g. "6 seconds"
	body        string
}

// scanScenes splits text into the header region (everything before the first
// scene marker) and one span per scene marker, in encounter order. Duplicate
// scene numbers are retained verbatim.
func scanScenes(text string) (header string, spans []span) {
	locs := reSceneHeader.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}
	header = text[:locs[0][0]]
	for i, m := range locs {
		num, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			// header matched \d+ so this is unreachable in practice
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		spans = append(spans, span{
			number:      num,
			title:       strings.TrimSpace(text[m[4]:m[5]]),
			durationRaw: text[m[6]:m[7]],
			body:        text[m[1]:end],
		})
	}
	return header, spans
}

// spanDuration parses the header parenthetical into seconds, falling back to
// the default when no number is present.
func spanDuration(raw string) float64 {
	m := reFirstNumber.FindString(raw)
	if m == "" {
		return DefaultSceneDuration
	}
	d, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return DefaultSceneDuration
	}
	return d
}
