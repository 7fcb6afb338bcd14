/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a Document back to template text. For documents that came
// from Parse the scene bodies are emitted verbatim, so reparsing yields an
// equal Document; for hand-constructed documents a minimal body is
// synthesized from the narration. Scene titles containing "(" do not survive
// the round trip, matching the header grammar.
func Format(doc Document) string {
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = UnknownTitle
	}
	fmt.Fprintf(&b, "# %s - %d SCENES\n", title, len(doc.Scenes))
	fmt.Fprintf(&b, "Total Duration: %s seconds\n", formatSeconds(doc.TotalDuration))
	fmt.Fprintf(&b, "Format: %s\n", doc.Format)

	for _, s := range doc.Scenes {
		b.WriteString("\n")
		fmt.Fprintf(&b, "## SCENE %d: %s (%s seconds)", s.Number, s.Title, formatSeconds(s.Duration))
		if s.Prompt != "" {
			b.WriteString(s.Prompt)
			if !strings.HasSuffix(s.Prompt, "\n") {
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString("\n")
		if s.Narration != nil {
			fmt.Fprintf(&b, "\nNarration: \"%s\"\n", *s.Narration)
		}
	}
	return b.String()
}

// formatSeconds renders durations without a trailing ".0" so that "72" and
// "6.5" both reparse to the same float.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
