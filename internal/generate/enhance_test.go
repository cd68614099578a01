/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package generate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/editor"
)

func TestEnhance(t *testing.T) {
	const post = "We shipped it. However, the road was long. Therefore, we celebrate."
	tests := []struct {
		name string
		opts EnhanceOptions
		want string
	}{
		{"defaults keep the text", DefaultEnhance, post},
		{"engagement at the threshold", EnhanceOptions{Engagement: 70, Formality: 70}, post},
		{"high engagement", EnhanceOptions{Engagement: 71, Formality: 70},
			"We shipped it! 🚀 However, the road was long! 🚀 Therefore, we celebrate! 🚀"},
		{"formality at the threshold", EnhanceOptions{Engagement: 50, Formality: 30}, post},
		{"low formality", EnhanceOptions{Engagement: 50, Formality: 29},
			"We shipped it. But hey, the road was long. So, we celebrate."},
		{"both", EnhanceOptions{Engagement: 100, Formality: 0},
			"We shipped it! 🚀 But hey, the road was long! 🚀 So, we celebrate! 🚀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Enhance(post, tt.opts)
			if err != nil {
				t.Fatalf("Enhance: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnhanceRejects(t *testing.T) {
	if _, err := Enhance(" \n\t", DefaultEnhance); !errors.Is(err, editor.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	for _, o := range []EnhanceOptions{{Engagement: -1}, {Engagement: 50, Formality: 101}} {
		if _, err := Enhance("Hi.", o); !errors.Is(err, ErrInvalidLevel) {
			t.Fatalf("%+v: expected ErrInvalidLevel, got %v", o, err)
		}
	}
}

func TestLinkedInExtraHashtags(t *testing.T) {
	p, err := LinkedInPost(LinkedInRequest{Topic: "Hiring", Hashtags: []string{"#Hiring", "Growth", " Teams "}})
	if err != nil {
		t.Fatalf("LinkedInPost: %v", err)
	}
	want := []string{"Innovation", "Growth", "Leadership", "Hiring", "Teams"}
	if diff := cmp.Diff(want, p.Hashtags); diff != "" {
		t.Fatalf("hashtags mismatch (-want +got):\n%s", diff)
	}

	var many []string
	for _, c := range "abcdefgh" {
		many = append(many, string(c))
	}
	if _, err := LinkedInPost(LinkedInRequest{Topic: "Hiring", Hashtags: many}); !errors.Is(err, domain.ErrTooManyHashtags) {
		t.Fatalf("expected ErrTooManyHashtags, got %v", err)
	}
	if _, err := LinkedInPost(LinkedInRequest{Topic: "Hiring", Hashtags: []string{"#"}}); !errors.Is(err, domain.ErrEmptyHashtag) {
		t.Fatalf("expected ErrEmptyHashtag, got %v", err)
	}
}
