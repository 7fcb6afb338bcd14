/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout holds the static catalog of 100 visual composition patterns
// and the selector that picks varied, non-repeating patterns for scenes.
// The catalog is process-wide read-only state loaded once at init.
package layout

import (
	"errors"
	"fmt"
	"sort"
)

// Category is one of the seven fixed pattern families.
type Category string

const (
	CategoryAsymmetric Category = "asymmetric" // ids 1..15
	CategorySplit      Category = "split"      // ids 16..30
	CategoryDiagonal   Category = "diagonal"   // ids 31..45
	CategoryCircular   Category = "circular"   // ids 46..60
	CategoryGrid       Category = "grid"       // ids 61..75
	CategoryComparison Category = "comparison" // ids 76..85
	CategorySpecialty  Category = "specialty"  // ids 86..100
)

// Weight classifies how visually dense a pattern is.
type Weight string

const (
	WeightLight  Weight = "light"
	WeightMedium Weight = "medium"
	WeightHeavy  Weight = "heavy"
)

// ErrPatternOutOfRange is returned for pattern ids outside 1..100.
// The 1..100 range is a hard contract, not advisory.
var ErrPatternOutOfRange = errors.New("pattern id out of range")

// Pattern is one immutable catalog row.
type Pattern struct {
	ID       int      `json:"patternId"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Weight   Weight   `json:"weight"`
}

const catalogSize = 100

var patternNames = [catalogSize + 1]string{
	// Asymmetric (1-15)
	1:  "Right-Heavy Asymmetric",
	2:  "Left-Heavy Asymmetric",
	3:  "Top-Heavy Asymmetric",
	4:  "Bottom-Heavy Asymmetric",
	5:  "Diagonal Heavy (Top-Left to Bottom-Right)",
	6:  "Diagonal Heavy (Top-Right to Bottom-Left)",
	7:  "Corner Focus (Top-Left)",
	8:  "Corner Focus (Bottom-Right)",
	9:  "Z-Pattern Asymmetric",
	10: "Inverted Z-Pattern",
	11: "C-Curve Asymmetric",
	12: "S-Curve Flow",
	13: "Stair-Step Asymmetric",
	14: "Cluster & Isolate",
	15: "Weighted Corners (3:1)",

	// Split (16-30)
	16: "Vertical 50/50",
	17: "Vertical 30/70",
	18: "Vertical 70/30",
	19: "Vertical 20/80",
	20: "Vertical 60/40",
	21: "Horizontal 50/50",
	22: "Horizontal 30/70",
	23: "Horizontal 70/30",
	24: "Horizontal 40/60",
	25: "Triple Vertical Split (33/33/33)",
	26: "Triple Horizontal Split",
	27: "Golden Ratio Vertical (62/38)",
	28: "Golden Ratio Horizontal (62/38)",
	29: "Uneven Triple Vertical (50/25/25)",
	30: "Uneven Triple Horizontal (20/60/20)",

	// Diagonal & Dynamic (31-45)
	31: "Diagonal Cascade (Top-Left to Bottom-Right)",
	32: "Diagonal Cascade (Top-Right to Bottom-Left)",
	33: "Diagonal Cascade (Bottom-Left to Top-Right)",
	34: "Diagonal Cascade (Bottom-Right to Top-Left)",
	35: "Cross-Diagonal (X-Pattern)",
	36: "Chevron Up",
	37: "Chevron Down",
	38: "Lightning Bolt",
	39: "Waterfall Flow",
	40: "Ascending Stairs",
	41: "Wave Pattern",
	42: "Mountain Peak",
	43: "Valley Dip",
	44: "Spiral Diagonal",
	45: "Ribbon Twist",

	// Circular & Radial (46-60)
	46: "Circular Orbit (Clockwise)",
	47: "Circular Orbit (Counter-Clockwise)",
	48: "Elliptical Orbit",
	49: "Double Orbit",
	50: "Radial Expansion (Outward)",
	51: "Radial Contraction (Inward)",
	52: "Compass Points (4 Directions)",
	53: "Compass Points (8 Directions)",
	54: "Sunburst Radial",
	55: "Target Circles (Concentric)",
	56: "Semicircle Arc (Top)",
	57: "Semicircle Arc (Bottom)",
	58: "Quarter Circle (Top-Right)",
	59: "Quarter Circle (Bottom-Left)",
	60: "Spiral (Inward)",

	// Grid & Structured (61-75)
	61: "Four-Quadrant (Equal)",
	62: "Four-Quadrant (Unequal)",
	63: "Six-Grid (2×3)",
	64: "Six-Grid (3×2)",
	65: "Nine-Grid (3×3)",
	66: "Checkerboard Pattern",
	67: "Brick Pattern (Offset Grid)",
	68: "Honeycomb Grid",
	69: "Plus/Cross Grid",
	70: "L-Shaped Grid",
	71: "T-Shaped Grid",
	72: "U-Shaped Grid",
	73: "Border Frame Grid",
	74: "Scattered Grid",
	75: "Nested Squares",

	// Comparison & Contrast (76-85)
	76: "Before/After (Left/Right)",
	77: "Before/After (Top/Bottom)",
	78: "Before/After (Diagonal Split)",
	79: "Problem/Solution Split",
	80: "Old vs New",
	81: "Small vs Large (Scale Contrast)",
	82: "Simple vs Complex",
	83: "Empty vs Full",
	84: "Light vs Dark (Value Contrast)",
	85: "Few vs Many",

	// Specialty & Advanced (86-100)
	86:  "Timeline Journey (Horizontal)",
	87:  "Timeline Journey (Vertical)",
	88:  "Timeline Journey (Spiral)",
	89:  "Hub-and-Spoke",
	90:  "Tree/Branch Structure",
	91:  "River Delta",
	92:  "Funnel (Wide to Narrow)",
	93:  "Inverse Funnel (Narrow to Wide)",
	94:  "Pinwheel",
	95:  "Overlapping Circles (Venn)",
	96:  "Scattered Constellation",
	97:  "Magazine Layout",
	98:  "Layered Depth (Front-to-Back)",
	99:  "Woven Pattern",
	100: "Floating Islands",
}

// sceneTypeRecommendations maps a scene-type label to the pattern ids that
// suit it best. Labels match the template documentation.
var sceneTypeRecommendations = map[string][]int{
	"opening":    {46, 50, 51, 60, 89, 95},
	"closing":    {46, 50, 51, 60, 89, 95, 100},
	"problem":    {1, 2, 46, 76, 77, 83},
	"discovery":  {31, 33, 50, 56, 92, 96},
	"solution":   {17, 61, 70, 89, 90, 93},
	"impact":     {42, 50, 86, 87, 91, 100},
	"comparison": {76, 77, 78, 79, 80, 81, 82, 83, 84, 85},
	"timeline":   {86, 87, 88},
	"network":    {89, 90, 91, 95},
}

var visualWeights = map[int]Weight{
	2: WeightLight, 7: WeightLight, 14: WeightLight, 19: WeightLight, 24: WeightLight,
	56: WeightLight, 73: WeightLight, 83: WeightLight, 96: WeightLight, 100: WeightLight,
	1: WeightHeavy, 9: WeightHeavy, 48: WeightHeavy, 49: WeightHeavy, 62: WeightHeavy,
	66: WeightHeavy, 74: WeightHeavy, 90: WeightHeavy, 97: WeightHeavy, 99: WeightHeavy,
}

// CategoryOf returns the category for a pattern id, or ErrPatternOutOfRange
// for ids outside 1..100.
func CategoryOf(id int) (Category, error) {
	switch {
	case id >= 1 && id <= 15:
		return CategoryAsymmetric, nil
	case id >= 16 && id <= 30:
		return CategorySplit, nil
	case id >= 31 && id <= 45:
		return CategoryDiagonal, nil
	case id >= 46 && id <= 60:
		return CategoryCircular, nil
	case id >= 61 && id <= 75:
		return CategoryGrid, nil
	case id >= 76 && id <= 85:
		return CategoryComparison, nil
	case id >= 86 && id <= catalogSize:
		return CategorySpecialty, nil
	default:
		return "", fmt.Errorf("pattern %d: %w", id, ErrPatternOutOfRange)
	}
}

// WeightOf returns the visual weight for a pattern id. Unclassified patterns
// are medium.
func WeightOf(id int) (Weight, error) {
	if id < 1 || id > catalogSize {
		return "", fmt.Errorf("pattern %d: %w", id, ErrPatternOutOfRange)
	}
	if w, ok := visualWeights[id]; ok {
		return w, nil
	}
	return WeightMedium, nil
}

// Get returns the catalog entry for a pattern id.
func Get(id int) (Pattern, error) {
	cat, err := CategoryOf(id)
	if err != nil {
		return Pattern{}, err
	}
	w, _ := WeightOf(id)
	return Pattern{ID: id, Name: patternNames[id], Category: cat, Weight: w}, nil
}

// All returns the full catalog in id order. The returned slice is a copy.
func All() []Pattern {
	out := make([]Pattern, 0, catalogSize)
	for id := 1; id <= catalogSize; id++ {
		p, _ := Get(id)
		out = append(out, p)
	}
	return out
}

// SceneTypes lists the known scene-type labels, sorted.
func SceneTypes() []string {
	out := make([]string, 0, len(sceneTypeRecommendations))
	for k := range sceneTypeRecommendations {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Recommendations returns the recommended pattern ids for a scene type, or
// nil for an unknown label. The returned slice is a copy.
func Recommendations(sceneType string) []int {
	ids, ok := sceneTypeRecommendations[sceneType]
	if !ok {
		return nil
	}
	return append([]int(nil), ids...)
}
