/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/script"
)

// PDF writes a script as a printable document: title, a meta line, then one block per segment
// with a "NAME  timing" header and the wrapped body. Long scripts flow onto further A4 pages.
//
// Core Helvetica keeps the file small; text is translated to cp1252, so characters outside it
// (emoji mostly) cannot be shown.
func PDF(doc script.Document, meta domain.ScriptMeta, outPath string) error {
	if strings.TrimSpace(outPath) == "" {
		return fmt.Errorf("output path is required")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	title := meta.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled script"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("ScriptDesk", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, tr(metaLine(meta, doc)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for i, seg := range doc.Segments {
		if i > 0 {
			pdf.Ln(3)
		}
		pdf.SetDrawColor(200, 200, 200)
		x, y := pdf.GetXY()
		pdf.Line(x, y, x+170, y)
		pdf.Ln(2)
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(120, 7, tr(seg.Name), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 7, tr(seg.Timing), "", 1, "R", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5.5, tr(seg.Body), "", "L", false)
	}
	if doc.Len() == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, "This script has no sections.", "", "L", false)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func metaLine(meta domain.ScriptMeta, doc script.Document) string {
	parts := []string{string(meta.Kind)}
	if meta.Platform != "" {
		parts = append(parts, meta.Platform)
	}
	parts = append(parts, fmt.Sprintf("%d sections", doc.Len()))
	if !meta.UpdatedAt.IsZero() {
		parts = append(parts, meta.UpdatedAt.Format("2006-01-02"))
	}
	return strings.Join(parts, " | ")
}
