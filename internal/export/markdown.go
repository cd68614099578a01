/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package export

import (
	"strings"

	"scriptdesk/internal/script"
)

// Markdown renders a script as "## NAME (timing)" sections under an optional "# title".
// A section without timing gets a bare "## NAME" heading.
func Markdown(doc script.Document, title string) string {
	var b strings.Builder
	if t := strings.TrimSpace(title); t != "" {
		b.WriteString("# " + t + "\n\n")
	}
	for i, s := range doc.Segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## " + s.Name)
		if s.Timing != "" {
			b.WriteString(" (" + s.Timing + ")")
		}
		b.WriteString("\n\n")
		if s.Body != "" {
			b.WriteString(s.Body + "\n")
		}
	}
	return b.String()
}
