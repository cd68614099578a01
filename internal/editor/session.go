/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor holds the editing state of one script: the canonical text, the document
// parsed from it, and an undo history. Every mutation goes through the text form, so the
// document is always the parse of the current text.
package editor

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	applog "scriptdesk/internal/log"
	"scriptdesk/internal/script"
	"scriptdesk/internal/undo"
)

// ErrEmptyContent is returned when an action needs a script but the text is blank.
var ErrEmptyContent = errors.New("no content: generate or write a script first")

// Session is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	id      string
	text    string
	doc     script.Document
	history *undo.Manager
	now     func() time.Time
	log     *slog.Logger
}

// NewSession starts editing text under the given script id.
// history may be shared between sessions; nil disables undo.
func NewSession(id, text string, history *undo.Manager) *Session {
	return &Session{
		id:      id,
		text:    text,
		doc:     script.Parse(text),
		history: history,
		now:     time.Now,
		log:     applog.WithComponent("editor").With(slog.String("script", id)),
	}
}

func (s *Session) ID() string { return s.id }

// Text returns the canonical text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Document returns the segments parsed from the canonical text.
func (s *Session) Document() script.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := script.Document{Segments: make([]script.Segment, len(s.doc.Segments))}
	copy(out.Segments, s.doc.Segments)
	return out
}

// EditSegment replaces the body of segment index and reflows the whole text.
// On error the session is unchanged.
func (s *Session) EditSegment(index int, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := script.ReplaceSegmentBody(s.doc, index, body)
	if err != nil {
		return s.text, err
	}
	s.setLocked(script.Serialize(d))
	s.log.Debug("segment edited", slog.Int("index", index), slog.Int("segments", s.doc.Len()))
	return s.text, nil
}

// SetText replaces the whole script, e.g. after regeneration.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(text)
}

// Format applies a markdown format to a selection of the canonical text.
func (s *Session) Format(sel Selection, kind Format) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := ApplyFormat(s.text, sel, kind)
	if err != nil {
		return s.text, err
	}
	s.setLocked(out)
	return s.text, nil
}

// Undo restores the previous text. It reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	if s.history == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.history.Undo(s.id, s.text)
	if !ok {
		return false
	}
	s.text = snap.Text
	s.doc = script.Parse(s.text)
	return true
}

// Redo re-applies an undone change.
func (s *Session) Redo() bool {
	if s.history == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.history.Redo(s.id, s.text)
	if !ok {
		return false
	}
	s.text = snap.Text
	s.doc = script.Parse(s.text)
	return true
}

// RequireContent fails with ErrEmptyContent for a blank script.
func (s *Session) RequireContent() error {
	if strings.TrimSpace(s.Text()) == "" {
		return ErrEmptyContent
	}
	return nil
}

func (s *Session) setLocked(text string) {
	if text == s.text {
		return
	}
	if s.history != nil {
		s.history.Push(undo.Snapshot{ScriptID: s.id, Text: s.text, TS: s.now()})
	}
	s.text = text
	s.doc = script.Parse(text)
}
