/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/script"
	"scriptdesk/internal/storage"
)

const sample = "[HOOK - 0:00-0:05]\nAre you ready? 🚀\n\n[PROBLEM - 0:05-0:10]\nMost people struggle with consistency because they never plan a week ahead.\n\n[CTA - 0:10-0:15]\nFollow for more."

func TestPDFCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "script.pdf")
	meta := domain.ScriptMeta{Title: "Weekly planning", Kind: domain.KindVideo, Platform: "instagram"}
	if err := PDF(script.Parse(sample), meta, out); err != nil {
		t.Fatalf("PDF: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf file")
	}
	// empty documents still produce a file
	if err := PDF(script.Document{}, domain.ScriptMeta{Kind: domain.KindVideo}, filepath.Join(t.TempDir(), "empty.pdf")); err != nil {
		t.Fatalf("PDF empty: %v", err)
	}
}

func TestMarkdown(t *testing.T) {
	doc := script.Document{Segments: []script.Segment{
		{Name: "HOOK", Timing: "0:00-0:05", Body: "Hi"},
		{Name: "Post", Body: ""},
	}}
	want := "# Title\n\n## HOOK (0:00-0:05)\n\nHi\n\n## Post\n\n"
	if diff := cmp.Diff(want, Markdown(doc, " Title ")); diff != "" {
		t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestFramesWritesOnePNGPerSegment(t *testing.T) {
	dir := t.TempDir()
	doc := script.Parse(sample)
	paths, err := Frames(context.Background(), doc, dir, FrameOptions{Width: 270, Height: 480})
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(paths) != 3 || filepath.Base(paths[2]) != "segment-03.png" {
		t.Fatalf("unexpected paths %v", paths)
	}
	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 270 || b.Dy() != 480 {
		t.Fatalf("unexpected size %v", b)
	}
	if _, err := Frames(context.Background(), script.Document{}, dir, FrameOptions{}); !errors.Is(err, ErrNoSegments) {
		t.Fatalf("expected ErrNoSegments, got %v", err)
	}
}

func TestRenderFrameHighlightsCurrentBar(t *testing.T) {
	doc := script.Parse(sample)
	img := RenderFrame(doc, 1, DefaultFrameWidth, DefaultFrameHeight)
	if b := img.Bounds(); b.Dx() != DefaultFrameWidth || b.Dy() != DefaultFrameHeight {
		t.Fatalf("unexpected size %v", b)
	}
	// bars sit on the third row of the 1/4 layout; the middle bar is lit
	y := 2*frameScale + 1
	white := color.RGBA{255, 255, 255, 255}
	if got := img.RGBAAt(DefaultFrameWidth/2, y); got != white {
		t.Fatalf("current bar not white: %v", got)
	}
	if got := img.RGBAAt(10*frameScale, y); got == white {
		t.Fatalf("first bar should be dimmed")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three\nfour abcdefghijk", 5)
	want := []string{"one", "two", "three", "four", "abcde", "fghij", "k"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrap mismatch (-want +got):\n%s", diff)
	}
	if ellipsize("abcdef", 5) != "ab..." {
		t.Fatalf("ellipsize: %q", ellipsize("abcdef", 5))
	}
}

func TestBatchWithFrameCache(t *testing.T) {
	h, err := storage.InitWorkspace(t.TempDir(), domain.Workspace{Name: "Export"})
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	meta, err := storage.AddScript(h, domain.ScriptMeta{Kind: domain.KindVideo, Title: "Plan"}, sample)
	if err != nil {
		t.Fatalf("AddScript: %v", err)
	}
	ctx := context.Background()
	files, err := Batch(ctx, h, meta.ID[:6], BatchOptions{})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("expected pdf + 3 frames + md, got %v", files)
	}
	for _, f := range files {
		if !strings.HasPrefix(f, filepath.Join(h.Root, storage.ExportsDirName, meta.ID[:8])) {
			t.Fatalf("file outside export dir: %s", f)
		}
	}
	total, err := storage.TotalFrameBytes(ctx, h.Root)
	if err != nil || total == 0 {
		t.Fatalf("frames not cached: %d %v", total, err)
	}
	md, _ := os.ReadFile(files[len(files)-1])
	if !strings.HasPrefix(string(md), "# Plan\n\n## HOOK (0:00-0:05)") {
		t.Fatalf("unexpected markdown %q", md)
	}
	if _, err := Batch(ctx, h, meta.ID, BatchOptions{Formats: []string{"gif"}}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestDefaultFormatsForPosts(t *testing.T) {
	if diff := cmp.Diff([]string{FormatPDF, FormatMarkdown}, DefaultFormats(domain.KindLinkedIn)); diff != "" {
		t.Fatalf("formats mismatch: %s", diff)
	}
}
