/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Selector ranks catalog patterns for scenes. Ranking is deterministic by
// group (excluded ids never appear, different-category candidates always rank
// ahead of same-category ones); randomness only shuffles within a rank group
// so suggestions vary between runs without breaking the variety guarantees.
type Selector struct {
	rng *rand.Rand
}

// NewSelector returns a selector seeded from the clock.
func NewSelector() *Selector {
	return NewSeededSelector(time.Now().UnixNano())
}

// NewSeededSelector returns a selector with a fixed seed, for reproducible
// sequences.
func NewSeededSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Suggestion is one ranked pattern with a human-readable reason.
type Suggestion struct {
	Pattern Pattern `json:"pattern"`
	Reason  string  `json:"reason"`
}

// Suggest returns up to count patterns for the next scene. Ids in used and
// the previous pattern id are excluded outright; ids recommended for
// sceneType rank first, then candidates are ordered by variety (different
// category, then different visual weight) relative to the previous pattern.
// A short result is not an error: fewer than count candidates may remain.
//
// previous == 0 means there is no previous pattern; sceneType may be empty.
func (s *Selector) Suggest(sceneType string, used []int, previous int, count int) []Suggestion {
	if count <= 0 {
		return nil
	}
	excluded := make(map[int]bool, len(used)+1)
	for _, id := range used {
		excluded[id] = true
	}
	if previous != 0 {
		excluded[previous] = true
	}

	candidates := Recommendations(sceneType)
	recommended := make(map[int]bool, len(candidates))
	for _, id := range candidates {
		recommended[id] = true
	}
	if candidates == nil {
		for id := 1; id <= catalogSize; id++ {
			candidates = append(candidates, id)
		}
	}
	pool := candidates[:0:0]
	for _, id := range candidates {
		if !excluded[id] {
			pool = append(pool, id)
		}
	}
	// Top up from the rest of the catalog when the preferred pool runs short.
	if len(pool) < count {
		inPool := make(map[int]bool, len(pool))
		for _, id := range pool {
			inPool[id] = true
		}
		for id := 1; id <= catalogSize && len(pool) < count; id++ {
			if !excluded[id] && !inPool[id] {
				pool = append(pool, id)
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}

	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	sort.SliceStable(pool, func(i, j int) bool {
		return s.varietyRank(pool[i], previous) < s.varietyRank(pool[j], previous)
	})

	if len(pool) > count {
		pool = pool[:count]
	}
	out := make([]Suggestion, 0, len(pool))
	for _, id := range pool {
		p, _ := Get(id)
		out = append(out, Suggestion{Pattern: p, Reason: reasonFor(p, sceneType, recommended[id], previous)})
	}
	return out
}

// varietyRank orders candidates: different category and weight than the
// previous pattern first, same category and weight last.
func (s *Selector) varietyRank(id, previous int) int {
	if previous < 1 || previous > catalogSize {
		return 0
	}
	prevCat, _ := CategoryOf(previous)
	prevW, _ := WeightOf(previous)
	cat, _ := CategoryOf(id)
	w, _ := WeightOf(id)
	rank := 0
	if cat == prevCat {
		rank += 2
	}
	if w == prevW {
		rank++
	}
	return rank
}

func reasonFor(p Pattern, sceneType string, recommended bool, previous int) string {
	var parts []string
	if recommended && sceneType != "" {
		parts = append(parts, fmt.Sprintf("Recommended for %s scenes", sceneType))
	}
	if previous >= 1 && previous <= catalogSize {
		if prevCat, _ := CategoryOf(previous); prevCat != p.Category {
			parts = append(parts, "Different category from previous")
		}
	}
	parts = append(parts, fmt.Sprintf("%s visual weight", capitalize(string(p.Weight))))
	return strings.Join(parts, " | ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SequenceItem assigns one pattern to one scene slot.
type SequenceItem struct {
	SceneNumber int      `json:"sceneNumber"`
	PatternID   int      `json:"patternId"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Weight      Weight   `json:"weight"`
}

// GenerateSequence produces exactly numScenes pattern assignments with no two
// adjacent entries sharing a pattern id and no same category back-to-back
// where an alternative exists. The 100-entry catalog is exhausted before any
// id repeats; for more than 100 scenes the used set resets and only the
// immediate-repetition rule keeps holding. sceneTypes, when non-nil, must
// have exactly numScenes entries.
func (s *Selector) GenerateSequence(numScenes int, sceneTypes []string) ([]SequenceItem, error) {
	if numScenes < 0 {
		return nil, fmt.Errorf("numScenes must be non-negative, got %d", numScenes)
	}
	if sceneTypes != nil && len(sceneTypes) != numScenes {
		return nil, fmt.Errorf("sceneTypes length %d does not match numScenes %d", len(sceneTypes), numScenes)
	}

	seq := make([]SequenceItem, 0, numScenes)
	var used []int
	previous := 0
	for i := 0; i < numScenes; i++ {
		if len(used) >= catalogSize {
			used = used[:0]
		}
		sceneType := ""
		if sceneTypes != nil {
			sceneType = sceneTypes[i]
		}
		suggestions := s.Suggest(sceneType, used, previous, 3)
		if len(suggestions) == 0 {
			return nil, fmt.Errorf("no candidate pattern for scene %d", i)
		}
		p := suggestions[0].Pattern
		seq = append(seq, SequenceItem{
			SceneNumber: i,
			PatternID:   p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Weight:      p.Weight,
		})
		used = append(used, p.ID)
		previous = p.ID
	}
	return seq, nil
}
