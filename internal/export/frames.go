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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"scriptdesk/internal/script"
	"scriptdesk/internal/storage"
)

// ErrNoSegments is returned when there is nothing to render.
var ErrNoSegments = errors.New("script has no sections")

const (
	DefaultFrameWidth  = 1080
	DefaultFrameHeight = 1920
	// frames are laid out at 1/frameScale of the output and scaled up with nearest neighbour,
	// which keeps the bitmap font crisp.
	frameScale = 4
)

// FrameOptions controls frame export.
// Width/Height default to a 9:16 1080x1920 frame. When CacheRoot and ScriptID are set,
// rendered PNGs are kept in the workspace index and reused while the segment is unchanged.
type FrameOptions struct {
	Width     int
	Height    int
	CacheRoot string
	ScriptID  string
}

var (
	gradTop    = color.RGBA{R: 92, G: 84, B: 196, A: 255}
	gradBottom = color.RGBA{R: 28, G: 26, B: 58, A: 255}
	barDim     = color.NRGBA{R: 255, G: 255, B: 255, A: 77}
	overlay    = color.NRGBA{A: 26}
	boxFill    = color.NRGBA{A: 102}
	pill       = color.NRGBA{R: 255, G: 255, B: 255, A: 51}
)

// Frames writes one PNG per segment into outDir, named segment-01.png, segment-02.png, ...
// Each frame mimics the vertical preview: progress bars on top with the shown segment lit,
// and the segment name above its body in a dark box in the middle. It returns the written paths.
func Frames(ctx context.Context, doc script.Document, outDir string, opt FrameOptions) ([]string, error) {
	if doc.Len() == 0 {
		return nil, ErrNoSegments
	}
	w, h := opt.Width, opt.Height
	if w <= 0 {
		w = DefaultFrameWidth
	}
	if h <= 0 {
		h = DefaultFrameHeight
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	out := make([]string, 0, doc.Len())
	for i, seg := range doc.Segments {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		gen := func(context.Context) ([]byte, error) { return encodeFrame(doc, i, w, h) }
		var data []byte
		var err error
		if opt.CacheRoot != "" && opt.ScriptID != "" {
			key := storage.FrameKey{
				ScriptID: opt.ScriptID,
				Position: i,
				Hash:     storage.FrameHash(seg.Name, seg.Timing, seg.Body, strconv.Itoa(doc.Len())),
				W:        w,
				H:        h,
			}
			data, err = storage.GetOrCreateFrame(ctx, opt.CacheRoot, key, gen)
		} else {
			data, err = gen(ctx)
		}
		if err != nil {
			return out, fmt.Errorf("frame %d: %w", i+1, err)
		}
		name := filepath.Join(outDir, fmt.Sprintf("segment-%02d.png", i+1))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return out, fmt.Errorf("write png: %w", err)
		}
		out = append(out, name)
	}
	return out, nil
}

func encodeFrame(doc script.Document, index, w, h int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, RenderFrame(doc, index, w, h)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderFrame draws segment index of doc at w x h pixels.
func RenderFrame(doc script.Document, index, w, h int) *image.RGBA {
	sw, sh := max(w/frameScale, 1), max(h/frameScale, 1)
	small := image.NewRGBA(image.Rect(0, 0, sw, sh))
	verticalGradient(small, gradTop, gradBottom)

	// platform bar with avatar and handle placeholders
	draw.Draw(small, image.Rect(0, 0, sw, 12), image.NewUniform(overlay), image.Point{}, draw.Over)
	draw.Draw(small, image.Rect(4, 4, 10, 10), image.NewUniform(pill), image.Point{}, draw.Over)
	draw.Draw(small, image.Rect(sw-24, 4, sw-4, 10), image.NewUniform(pill), image.Point{}, draw.Over)

	// progress bars: one per segment, the current one opaque
	n := doc.Len()
	if n > 0 {
		const margin, gap = 4, 1
		avail := sw - 2*margin - gap*(n-1)
		for i := 0; i < n; i++ {
			x0 := margin + i*(avail/n+gap)
			x1 := x0 + avail/n
			r := image.Rect(x0, 2, x1, 3)
			if i == index {
				draw.Draw(small, r, image.White, image.Point{}, draw.Src)
			} else {
				draw.Draw(small, r, image.NewUniform(barDim), image.Point{}, draw.Over)
			}
		}
	}

	if index >= 0 && index < n {
		seg := doc.Segments[index]
		drawCenteredBox(small, seg.Name, seg.Body)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)
	return dst
}

func verticalGradient(img *image.RGBA, top, bottom color.RGBA) {
	b := img.Bounds()
	hgt := b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / float64(max(hgt-1, 1))
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// drawCenteredBox lays out the name (faux bold) and the wrapped body, centered horizontally
// and vertically inside a translucent box.
func drawCenteredBox(img *image.RGBA, name, body string) {
	face := basicfont.Face7x13
	adv := face.Advance
	lineH := face.Height
	b := img.Bounds()
	const pad = 6
	maxCols := max((b.Dx()-4*pad)/adv, 1)

	nameLines := wrapText(name, maxCols)
	bodyLines := wrapText(body, maxCols)
	maxLines := max((b.Dy()-40)/lineH-1, 1)
	if len(nameLines)+len(bodyLines) > maxLines {
		keep := max(maxLines-len(nameLines), 0)
		if keep < len(bodyLines) {
			bodyLines = bodyLines[:keep]
			if keep > 0 {
				bodyLines[keep-1] = ellipsize(bodyLines[keep-1], maxCols)
			}
		}
	}
	widest := 0
	for _, l := range append(append([]string{}, nameLines...), bodyLines...) {
		widest = max(widest, font.MeasureString(face, l).Ceil())
	}
	lines := len(nameLines) + len(bodyLines)
	gapAfterName := 0
	if len(nameLines) > 0 && len(bodyLines) > 0 {
		gapAfterName = lineH / 2
	}
	boxW := widest + 2*pad
	boxH := lines*lineH + gapAfterName + 2*pad
	x0 := b.Min.X + (b.Dx()-boxW)/2
	y0 := b.Min.Y + (b.Dy()-boxH)/2
	draw.Draw(img, image.Rect(x0, y0, x0+boxW, y0+boxH), image.NewUniform(boxFill), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	y := y0 + pad + face.Ascent
	for _, l := range nameLines {
		x := b.Min.X + (b.Dx()-font.MeasureString(face, l).Ceil())/2
		for _, dx := range []int{0, 1} {
			d.Dot = fixed.P(x+dx, y)
			d.DrawString(l)
		}
		y += lineH
	}
	y += gapAfterName
	for _, l := range bodyLines {
		x := b.Min.X + (b.Dx()-font.MeasureString(face, l).Ceil())/2
		d.Dot = fixed.P(x, y)
		d.DrawString(l)
		y += lineH
	}
}

// wrapText breaks s into lines of at most cols runes, splitting on spaces and hard-breaking
// longer words. Existing line breaks are kept.
func wrapText(s string, cols int) []string {
	var out []string
	for _, para := range strings.Split(strings.TrimSpace(s), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			if len(out) > 0 {
				out = append(out, "")
			}
			continue
		}
		line := ""
		for _, w := range words {
			for len([]rune(w)) > cols {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(w)
				out = append(out, string(r[:cols]))
				w = string(r[cols:])
			}
			switch {
			case line == "":
				line = w
			case len([]rune(line))+1+len([]rune(w)) <= cols:
				line += " " + w
			default:
				out = append(out, line)
				line = w
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func ellipsize(s string, cols int) string {
	r := []rune(s)
	if len(r)+3 <= cols {
		return s + "..."
	}
	if cols <= 3 {
		return "..."[:cols]
	}
	return string(r[:cols-3]) + "..."
}
