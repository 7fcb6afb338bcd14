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
	"fmt"
	"os"
	"path/filepath"

	"explainkit/internal/script"
)

// PromptWriter is the built-in processor: it materializes each scene's
// prompt and narration as plain text files in the scene's output directory,
// ready to be fed to an external image or voice pipeline. It writes
// prompt.txt always, and narration.txt, initial_prompt.txt and
// final_prompt.txt only when the scene carries them.
type PromptWriter struct{}

func (PromptWriter) ProcessScene(_ context.Context, s script.Scene, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create scene dir: %w", err)
	}
	if err := writeText(outputDir, "prompt.txt", s.Prompt); err != nil {
		return err
	}
	if s.Narration != nil {
		if err := writeText(outputDir, "narration.txt", *s.Narration); err != nil {
			return err
		}
	}
	if s.InitialPrompt != nil {
		if err := writeText(outputDir, "initial_prompt.txt", *s.InitialPrompt); err != nil {
			return err
		}
	}
	if s.FinalPrompt != nil {
		if err := writeText(outputDir, "final_prompt.txt", *s.FinalPrompt); err != nil {
			return err
		}
	}
	return nil
}

func writeText(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
