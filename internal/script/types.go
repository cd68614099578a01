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
	"errors"
	"fmt"
)

// Document is a parsed short-video script: an ordered list of timed segments.
// Order is playback order. Segments have no identity beyond their position,
// names may repeat.
//
// Text form:
//
//	[HOOK - 0:00-0:05]
//	Are you ready?
//
//	[PROBLEM - 0:05-0:10]
//	Most people struggle.

type Document struct {
	Segments []Segment
}

// Segment is one named, timed unit of a script.
// Timing is kept verbatim (e.g. "0:00-0:05"); it is never parsed into numbers.

type Segment struct {
	Name   string `json:"name"`
	Timing string `json:"timing"`
	Body   string `json:"body"`
}

// Len returns the number of segments.
func (d Document) Len() int { return len(d.Segments) }

// Names lists segment names in order.
func (d Document) Names() []string {
	out := make([]string, len(d.Segments))
	for i, s := range d.Segments {
		out[i] = s.Name
	}
	return out
}

// Text is shorthand for Serialize(d).
func (d Document) Text() string { return Serialize(d) }

// ErrIndexOutOfRange is returned when a segment index does not address an existing segment.
var ErrIndexOutOfRange = errors.New("segment index out of range")

// IndexError carries the offending index and the document length.

type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("segment index %d out of range [0,%d)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }
