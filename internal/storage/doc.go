/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements workspace persistence and indexing.
// It handles create/open/save for the canonical JSON manifest (workspace.json) with transactional writes,
// schema validation and timestamped backups, and keeps one text file per script under scripts/.
// It also manages the per-workspace SQLite index at <workspace>/.sd/index.sqlite used for segment search,
// script history and the rendered frame cache. The index is derived from the manifest and script files and
// can be deleted and rebuilt at any time.
package storage
