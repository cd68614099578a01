/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxHashtags is how many hashtags a post may carry.
const MaxHashtags = 10

var (
	ErrTooManyHashtags = fmt.Errorf("a post can carry at most %d hashtags", MaxHashtags)
	ErrEmptyHashtag    = errors.New("hashtag is empty")
)

// NormalizeHashtag trims space and any leading '#'.
func NormalizeHashtag(tag string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#"))
}

// AddHashtag appends tag unless it is already present. Matching is exact after normalizing.
// The input slice is never modified.
func AddHashtag(tags []string, tag string) ([]string, error) {
	tag = NormalizeHashtag(tag)
	if tag == "" {
		return tags, ErrEmptyHashtag
	}
	if slices.Contains(tags, tag) {
		return tags, nil
	}
	if len(tags) >= MaxHashtags {
		return tags, ErrTooManyHashtags
	}
	return append(slices.Clip(tags), tag), nil
}

// RemoveHashtag drops tag and reports whether it was present.
func RemoveHashtag(tags []string, tag string) ([]string, bool) {
	tag = NormalizeHashtag(tag)
	i := slices.Index(tags, tag)
	if i < 0 {
		return tags, false
	}
	return slices.Delete(slices.Clone(tags), i, i+1), true
}

// FormatHashtags renders tags the way they are posted: "#A #B".
func FormatHashtags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, " ")
}
