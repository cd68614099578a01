/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package generate

import (
	"errors"
	"fmt"
	"strings"

	"scriptdesk/internal/editor"
)

var ErrInvalidLevel = errors.New("level must be between 0 and 100")

// EnhanceOptions are the two sliders of the post enhancer, each 0..100.
type EnhanceOptions struct {
	Engagement int
	Formality  int
}

// DefaultEnhance leaves a post unchanged.
var DefaultEnhance = EnhanceOptions{Engagement: 50, Formality: 70}

const (
	energeticAbove = 70 // engagement above this turns every full stop into "! 🚀"
	casualBelow    = 30 // formality below this swaps formal connectives
)

var casual = strings.NewReplacer("However,", "But hey,", "Therefore,", "So,")

// Enhance rewrites a post according to opts. It is a fixed text transform: high engagement
// replaces every "." (timings and URLs included), low formality swaps "However," and "Therefore,".
// Blank text returns editor.ErrEmptyContent.
func Enhance(text string, opts EnhanceOptions) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", editor.ErrEmptyContent
	}
	for _, v := range []int{opts.Engagement, opts.Formality} {
		if v < 0 || v > 100 {
			return "", fmt.Errorf("%w: %d", ErrInvalidLevel, v)
		}
	}
	if opts.Engagement > energeticAbove {
		text = strings.ReplaceAll(text, ".", "! 🚀")
	}
	if opts.Formality < casualBelow {
		text = casual.Replace(text)
	}
	return text, nil
}
