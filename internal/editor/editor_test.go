/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"testing"

	"scriptdesk/internal/script"
	"scriptdesk/internal/undo"
)

func TestApplyFormat(t *testing.T) {
	const text = "Make this bold now"
	sel := Selection{Start: 5, End: 14} // "this bold"
	tests := []struct {
		kind Format
		want string
	}{
		{FormatBold, "Make **this bold** now"},
		{FormatItalic, "Make *this bold* now"},
		{FormatList, "Make \n- this bold now"},
		{FormatOrderedList, "Make \n1. this bold now"},
		{FormatLink, "Make [this bold](url) now"},
		{FormatImage, "Make ![this bold](image-url) now"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := ApplyFormat(text, sel, tt.kind)
			if err != nil {
				t.Fatalf("ApplyFormat error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyFormatCaretAndErrors(t *testing.T) {
	got, err := ApplyFormat("ab", Selection{Start: 1, End: 1}, FormatBold)
	if err != nil || got != "a****b" {
		t.Fatalf("caret bold: got %q err=%v", got, err)
	}
	for _, sel := range []Selection{{-1, 0}, {2, 1}, {0, 3}} {
		if _, err := ApplyFormat("ab", sel, FormatBold); !errors.Is(err, ErrInvalidSelection) {
			t.Fatalf("selection %+v: expected ErrInvalidSelection, got %v", sel, err)
		}
	}
	// "é" is two bytes; offset 1 splits it
	if _, err := ApplyFormat("é", Selection{Start: 1, End: 2}, FormatBold); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected rune boundary error, got %v", err)
	}
	if _, err := ApplyFormat("ab", Selection{0, 1}, Format(99)); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Ordered-List ")
	if err != nil || f != FormatOrderedList {
		t.Fatalf("ParseFormat: got %v err=%v", f, err)
	}
	if _, err := ParseFormat("strike"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

const twoSegments = "[HOOK - 0:00-0:05]\nAre you ready?\n\n[PROBLEM - 0:05-0:10]\nMost people struggle."

func TestSessionEditSegmentReflowsText(t *testing.T) {
	s := NewSession("s1", twoSegments, undo.NewManager(undo.Config{}))
	text, err := s.EditSegment(1, "New body text")
	if err != nil {
		t.Fatalf("EditSegment error: %v", err)
	}
	want := "[HOOK - 0:00-0:05]\nAre you ready?\n\n[PROBLEM - 0:05-0:10]\nNew body text"
	if text != want || s.Text() != want {
		t.Fatalf("unexpected text %q", text)
	}
	if got := s.Document().Segments[1].Body; got != "New body text" {
		t.Fatalf("document not refreshed: %q", got)
	}
}

func TestSessionEditOutOfRangeLeavesState(t *testing.T) {
	s := NewSession("s1", twoSegments, nil)
	if _, err := s.EditSegment(5, "x"); !errors.Is(err, script.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if s.Text() != twoSegments {
		t.Fatalf("text changed after failed edit")
	}
}

func TestSessionUndoRedo(t *testing.T) {
	s := NewSession("s1", twoSegments, undo.NewManager(undo.Config{}))
	if _, err := s.EditSegment(0, "Hello"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	edited := s.Text()
	if !s.Undo() {
		t.Fatalf("expected undo")
	}
	if s.Text() != twoSegments {
		t.Fatalf("undo did not restore: %q", s.Text())
	}
	if s.Document().Segments[0].Body != "Are you ready?" {
		t.Fatalf("document not re-parsed after undo")
	}
	if !s.Redo() || s.Text() != edited {
		t.Fatalf("redo did not restore edit: %q", s.Text())
	}
}

func TestSessionFormatAndRequireContent(t *testing.T) {
	s := NewSession("s2", "", nil)
	if err := s.RequireContent(); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	s.SetText("[A - 1]\nbuy now")
	out, err := s.Format(Selection{Start: 8, End: 11}, FormatBold)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if out != "[A - 1]\n**buy** now" {
		t.Fatalf("unexpected formatted text %q", out)
	}
	if s.Document().Segments[0].Body != "**buy** now" {
		t.Fatalf("document not refreshed after format")
	}
	if err := s.RequireContent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
