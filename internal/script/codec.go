/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"strings"
	"unicode"
)

// reHeader matches a section header like "[HOOK - 0:00-0:05]".
// Both groups are lazy: the name stops at the first hyphen, the timing at the first "]".
var reHeader = regexp.MustCompile(`\[(.*?)\s*-\s*(.*?)\]`)

// isSpace is the whitespace trimmed from names, timings and bodies: Unicode space separators,
// \t \n \v \f \r, U+2028, U+2029 and the byte order mark U+FEFF. Unlike unicode.IsSpace it
// leaves U+0085 (NEL) in place.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

// Parse splits text into segments.
// Supported syntax (permissive):
//   - A header "[<name> - <timing>]" starts a segment. Whitespace around the hyphen is optional.
//   - The body runs from the end of the header to the next header or end of input.
//   - Name, timing and body are trimmed.
//
// Text before the first header is dropped. Brackets that do not form a header stay in the
// surrounding body. Input without any header yields an empty Document, never an error.
func Parse(text string) Document {
	d := Document{Segments: []Segment{}}
	matches := reHeader.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		d.Segments = append(d.Segments, Segment{
			Name:   trim(text[m[2]:m[3]]),
			Timing: trim(text[m[4]:m[5]]),
			Body:   trim(text[m[1]:end]),
		})
	}
	return d
}

// Serialize renders d back into its text form: each segment as "[name - timing]\nbody",
// segments separated by a blank line. Fields are written verbatim; a name or body that
// itself contains a header will not survive a Parse round-trip.
func Serialize(d Document) string {
	if len(d.Segments) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range d.Segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(s.Name)
		b.WriteString(" - ")
		b.WriteString(s.Timing)
		b.WriteString("]\n")
		b.WriteString(s.Body)
	}
	return b.String()
}

// ReplaceSegmentBody returns a copy of d with the body of segment index replaced.
// d itself is not modified. The caller is expected to Serialize the result to refresh the text form.
func ReplaceSegmentBody(d Document, index int, body string) (Document, error) {
	if index < 0 || index >= len(d.Segments) {
		return d, &IndexError{Index: index, Len: len(d.Segments)}
	}
	out := Document{Segments: make([]Segment, len(d.Segments))}
	copy(out.Segments, d.Segments)
	out.Segments[index].Body = body
	return out, nil
}
