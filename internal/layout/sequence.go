/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveSequence writes a pattern sequence to a JSON file, creating parent
// directories as needed.
func SaveSequence(seq []SequenceItem, path string) error {
	data, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sequence: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sequence dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sequence: %w", err)
	}
	return nil
}

// LoadSequence reads a pattern sequence from a JSON file and validates that
// every pattern id is within the catalog range.
func LoadSequence(path string) ([]SequenceItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}
	var seq []SequenceItem
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse sequence: %w", err)
	}
	for _, it := range seq {
		if _, err := CategoryOf(it.PatternID); err != nil {
			return nil, err
		}
	}
	return seq, nil
}
