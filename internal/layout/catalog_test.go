/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"errors"
	"testing"
)

func TestCategoryOfAllIDs(t *testing.T) {
	known := map[Category]bool{
		CategoryAsymmetric: true, CategorySplit: true, CategoryDiagonal: true,
		CategoryCircular: true, CategoryGrid: true, CategoryComparison: true,
		CategorySpecialty: true,
	}
	for id := 1; id <= 100; id++ {
		cat, err := CategoryOf(id)
		if err != nil {
			t.Fatalf("CategoryOf(%d) error: %v", id, err)
		}
		if !known[cat] {
			t.Fatalf("CategoryOf(%d) = %q, not a fixed category", id, cat)
		}
	}
}

func TestCategoryOfOutOfRange(t *testing.T) {
	for _, id := range []int{0, 101, -3} {
		if _, err := CategoryOf(id); !errors.Is(err, ErrPatternOutOfRange) {
			t.Fatalf("CategoryOf(%d) expected ErrPatternOutOfRange, got %v", id, err)
		}
	}
}

func TestCategoryBoundaries(t *testing.T) {
	cases := map[int]Category{
		1: CategoryAsymmetric, 15: CategoryAsymmetric,
		16: CategorySplit, 30: CategorySplit,
		31: CategoryDiagonal, 45: CategoryDiagonal,
		46: CategoryCircular, 60: CategoryCircular,
		61: CategoryGrid, 75: CategoryGrid,
		76: CategoryComparison, 85: CategoryComparison,
		86: CategorySpecialty, 100: CategorySpecialty,
	}
	for id, want := range cases {
		got, err := CategoryOf(id)
		if err != nil {
			t.Fatalf("CategoryOf(%d) error: %v", id, err)
		}
		if got != want {
			t.Fatalf("CategoryOf(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestGetAndAll(t *testing.T) {
	all := All()
	if len(all) != 100 {
		t.Fatalf("catalog size = %d, want 100", len(all))
	}
	for i, p := range all {
		if p.ID != i+1 {
			t.Fatalf("entry %d has id %d", i, p.ID)
		}
		if p.Name == "" {
			t.Fatalf("pattern %d has no name", p.ID)
		}
		if p.Weight != WeightLight && p.Weight != WeightMedium && p.Weight != WeightHeavy {
			t.Fatalf("pattern %d weight = %q", p.ID, p.Weight)
		}
	}
	if _, err := Get(0); !errors.Is(err, ErrPatternOutOfRange) {
		t.Fatalf("Get(0) expected ErrPatternOutOfRange, got %v", err)
	}
}

func TestWeightOf(t *testing.T) {
	if w, err := WeightOf(2); err != nil || w != WeightLight {
		t.Fatalf("WeightOf(2) = %v, %v", w, err)
	}
	if w, err := WeightOf(99); err != nil || w != WeightHeavy {
		t.Fatalf("WeightOf(99) = %v, %v", w, err)
	}
	if w, err := WeightOf(16); err != nil || w != WeightMedium {
		t.Fatalf("WeightOf(16) = %v, %v", w, err)
	}
	if _, err := WeightOf(101); !errors.Is(err, ErrPatternOutOfRange) {
		t.Fatalf("WeightOf(101) expected ErrPatternOutOfRange, got %v", err)
	}
}

func TestRecommendationsWithinRange(t *testing.T) {
	for _, st := range SceneTypes() {
		ids := Recommendations(st)
		if len(ids) == 0 {
			t.Fatalf("scene type %q has no recommendations", st)
		}
		for _, id := range ids {
			if _, err := CategoryOf(id); err != nil {
				t.Fatalf("scene type %q recommends invalid id %d", st, id)
			}
		}
	}
	if Recommendations("no-such-type") != nil {
		t.Fatalf("unknown scene type should return nil")
	}
}
