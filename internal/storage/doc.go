/*
 * Copyright (c) 2025 by the Explainer Kit authors.
 * Licensed under the Apache License, Version 2.0.
 */

// Package storage persists explainer workspaces on disk.
//
// A workspace is a directory with a human-readable JSON manifest
// (explainer.json), standard subfolders (scripts, output, exports, backups)
// and an embedded SQLite index under .exk/ used for narration search, run
// history and script snapshots. The manifest is canonical; the index is
// derived and can always be rebuilt from the script files.
package storage
