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
	"fmt"
	"strings"
	"unicode/utf8"
)

// Format is a markdown formatting action applied to a selection.
type Format int

const (
	FormatBold Format = iota
	FormatItalic
	FormatList
	FormatOrderedList
	FormatLink
	FormatImage
)

var formatNames = map[Format]string{
	FormatBold:        "bold",
	FormatItalic:      "italic",
	FormatList:        "list",
	FormatOrderedList: "ordered-list",
	FormatLink:        "link",
	FormatImage:       "image",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("format(%d)", int(f))
}

var (
	ErrUnknownFormat    = errors.New("unknown format")
	ErrInvalidSelection = errors.New("invalid selection")
)

// ParseFormat maps a toolbar name ("bold", "ordered-list", ...) to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Selection is a half-open byte range [Start, End) into a text.
// A collapsed selection (Start == End) is a caret.
type Selection struct {
	Start int
	End   int
}

func (s Selection) validate(text string) error {
	if s.Start < 0 || s.End < s.Start || s.End > len(text) {
		return fmt.Errorf("%w: [%d,%d) in text of length %d", ErrInvalidSelection, s.Start, s.End, len(text))
	}
	if !onRuneBoundary(text, s.Start) || !onRuneBoundary(text, s.End) {
		return fmt.Errorf("%w: [%d,%d) splits a character", ErrInvalidSelection, s.Start, s.End)
	}
	return nil
}

func onRuneBoundary(text string, i int) bool {
	return i == len(text) || utf8.RuneStart(text[i])
}

// ApplyFormat wraps the selected part of text in markdown for kind and returns the new text.
func ApplyFormat(text string, sel Selection, kind Format) (string, error) {
	if err := sel.validate(text); err != nil {
		return text, err
	}
	selected := text[sel.Start:sel.End]
	var repl string
	switch kind {
	case FormatBold:
		repl = "**" + selected + "**"
	case FormatItalic:
		repl = "*" + selected + "*"
	case FormatList:
		repl = "\n- " + selected
	case FormatOrderedList:
		repl = "\n1. " + selected
	case FormatLink:
		repl = "[" + selected + "](url)"
	case FormatImage:
		repl = "![" + selected + "](image-url)"
	default:
		return text, fmt.Errorf("%w: %v", ErrUnknownFormat, kind)
	}
	return text[:sel.Start] + repl + text[sel.End:], nil
}
