/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version exposes build version information for logs and the CLI.
package version

import "fmt"

// Version is the semantic version of the toolkit. Overridable at build time:
//
//	go build -ldflags "-X explainkit/internal/version.Version=v0.4.0"
var Version = "v0.3.0-dev"

// Commit is the VCS revision, if injected at build time.
var Commit = ""

// String returns a human-readable version string.
func String() string {
	if Commit != "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return Version
}
