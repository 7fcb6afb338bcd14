/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"explainkit/internal/domain"
)

func TestManifestConformsToSchema(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, schemaTestProject())
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}

	data, err := os.ReadFile(wh.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	schemaPath := filepath.Join("..", "..", "docs", "explainer.schema.json")
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}

func schemaTestProject() domain.Project {
	return domain.Project{
		Name: "Schema Test",
		Metadata: domain.Metadata{
			Channel: "shorts",
		},
		Defaults: domain.Defaults{
			Format:        "9:16",
			SceneDuration: 6,
		},
		Scripts: []domain.ScriptRef{
			{Name: "intro", Path: "scripts/intro.md", Format: "9:16", SceneCount: 12, TotalDuration: 72},
		},
	}
}
