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
	"fmt"
	"time"
)

// DefaultCycleInterval is how long a preview shows each segment.
const DefaultCycleInterval = 3 * time.Second

// Cycle steps through the segments of a document for preview, wrapping around at the end.
// It is not safe for concurrent use; the preview owning it drives it from a single loop.
type Cycle struct {
	doc Document
	pos int
}

func NewCycle(d Document) *Cycle { return &Cycle{doc: d} }

func (c *Cycle) Len() int   { return len(c.doc.Segments) }
func (c *Cycle) Index() int { return c.pos }

// Current returns the segment on screen; false for an empty document.
func (c *Cycle) Current() (Segment, bool) {
	if len(c.doc.Segments) == 0 {
		return Segment{}, false
	}
	return c.doc.Segments[c.pos], true
}

// Next advances one segment and returns it.
func (c *Cycle) Next() Segment {
	n := len(c.doc.Segments)
	if n == 0 {
		return Segment{}
	}
	c.pos = (c.pos + 1) % n
	return c.doc.Segments[c.pos]
}

// Prev steps back one segment and returns it.
func (c *Cycle) Prev() Segment {
	n := len(c.doc.Segments)
	if n == 0 {
		return Segment{}
	}
	c.pos = (c.pos - 1 + n) % n
	return c.doc.Segments[c.pos]
}

// Caption is the position line shown under the preview, e.g. "2 of 5 sections".
func (c *Cycle) Caption() string {
	if len(c.doc.Segments) == 0 {
		return "0 of 0 sections"
	}
	return fmt.Sprintf("%d of %d sections", c.pos+1, len(c.doc.Segments))
}
