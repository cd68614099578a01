/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot is a previous full text of a script.
// Size is estimated as len(Text). TS is when the snapshot was captured.
type Snapshot struct {
	ScriptID string
	Text     string
	TS       time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerScript limits number of snapshots per script kept in memory (0 means unlimited).
	MaxPerScript int
	// MinInterval coalesces snapshots captured within the interval for the same script,
	// keeping the older one so a burst of keystrokes undoes in one step.
	MinInterval time.Duration
}

// Manager keeps in-memory undo/redo stacks per script.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-script stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024 // 4 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the text as it was before an edit. If the previous snapshot of the same script
// is younger than MinInterval, the new one is dropped (the older state is the undo target).
// Any push clears the redo stack for that script.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.ScriptID)
	stack := m.undo[s.ScriptID]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		return
	}
	m.undo[s.ScriptID] = append(stack, s)
	m.totalBytes += len(s.Text)
	m.enforceCapsLocked(s.ScriptID)
}

// Undo pops the latest snapshot for the script. current is the text being replaced;
// it is pushed onto the redo stack so Redo can bring it back.
func (m *Manager) Undo(scriptID, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scriptID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[scriptID] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Text)
	m.redo[scriptID] = append(m.redo[scriptID], Snapshot{ScriptID: scriptID, Text: current, TS: time.Now()})
	m.totalBytes += len(current)
	return s, true
}

// Redo pops from redo; current goes back onto the undo stack.
func (m *Manager) Redo(scriptID, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[scriptID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[scriptID] = r[:len(r)-1]
	m.totalBytes -= len(s.Text)
	m.undo[scriptID] = append(m.undo[scriptID], Snapshot{ScriptID: scriptID, Text: current, TS: time.Now()})
	m.totalBytes += len(current)
	m.enforceCapsLocked(scriptID)
	return s, true
}

// Clear drops all history of a script.
func (m *Manager) Clear(scriptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scriptID] {
		m.totalBytes -= len(s.Text)
	}
	m.dropRedoLocked(scriptID)
	delete(m.undo, scriptID)
	delete(m.redo, scriptID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scripts int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scripts = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scripts, totalSnapshots
}

func (m *Manager) dropRedoLocked(scriptID string) {
	for _, s := range m.redo[scriptID] {
		m.totalBytes -= len(s.Text)
	}
	m.redo[scriptID] = nil
}

func (m *Manager) enforceCapsLocked(scriptID string) {
	if m.cfg.MaxPerScript > 0 {
		stack := m.undo[scriptID]
		if len(stack) > m.cfg.MaxPerScript {
			toDrop := len(stack) - m.cfg.MaxPerScript
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Text)
			}
			m.undo[scriptID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all scripts
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestID := ""
		found := false
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestID = id
				oldestTS = stack[0].TS
				found = true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestID]
		m.totalBytes -= len(stack[0].Text)
		m.undo[oldestID] = stack[1:]
		if len(m.undo[oldestID]) == 0 {
			delete(m.undo, oldestID)
		}
	}
}
