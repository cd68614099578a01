/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package generate

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptdesk/internal/script"
)

func TestVideoScriptDefaultTimings(t *testing.T) {
	text, err := VideoScript(VideoRequest{Topic: "Email Marketing"})
	if err != nil {
		t.Fatalf("VideoScript error: %v", err)
	}
	doc := script.Parse(text)
	wantNames := []string{"HOOK", "PROBLEM", "SOLUTION", "PROOF", "CALL TO ACTION"}
	if diff := cmp.Diff(wantNames, doc.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	var timings []string
	for _, s := range doc.Segments {
		timings = append(timings, s.Timing)
	}
	wantTimings := []string{"0:00-0:05", "0:05-0:10", "0:10-0:20", "0:20-0:25", "0:25-0:30"}
	if diff := cmp.Diff(wantTimings, timings); diff != "" {
		t.Fatalf("timings mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(doc.Segments[0].Body, "Are email marketing challenges costing your business?") {
		t.Fatalf("hook does not mention lowercased topic: %q", doc.Segments[0].Body)
	}
	// generated scripts are already in canonical form
	if script.Serialize(doc) != text {
		t.Fatalf("generated script is not canonical")
	}
}

func TestVideoTimingsScale(t *testing.T) {
	got, err := VideoTimings(60)
	if err != nil {
		t.Fatalf("VideoTimings error: %v", err)
	}
	want := []string{"0:00-0:10", "0:10-0:20", "0:20-0:40", "0:40-0:50", "0:50-1:00"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("timings mismatch (-want +got):\n%s", diff)
	}
	for _, d := range []int{10, 17, 65} {
		if _, err := VideoTimings(d); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("duration %d: expected ErrInvalidDuration, got %v", d, err)
		}
	}
}

func TestTopicRequired(t *testing.T) {
	if _, err := VideoScript(VideoRequest{Topic: "   "}); !errors.Is(err, ErrTopicRequired) {
		t.Fatalf("video: expected ErrTopicRequired, got %v", err)
	}
	if _, err := LinkedInPost(LinkedInRequest{}); !errors.Is(err, ErrTopicRequired) {
		t.Fatalf("linkedin: expected ErrTopicRequired, got %v", err)
	}
	if _, err := BlogPost(BlogRequest{Topic: "\t"}); !errors.Is(err, ErrTopicRequired) {
		t.Fatalf("blog: expected ErrTopicRequired, got %v", err)
	}
}

func TestLinkedInTones(t *testing.T) {
	tests := []struct {
		name     string
		req      LinkedInRequest
		contains []string
		absent   []string
	}{
		{
			name:     "storytelling with emoji and cta",
			req:      LinkedInRequest{Topic: "Remote Work", Tone: "storytelling", IncludeEmoji: true, IncludeCTA: true},
			contains: []string{"share 📖", "client on remote work", "Share in the comments! 👇"},
		},
		{
			name:     "thought leadership without cta",
			req:      LinkedInRequest{Topic: "AI", Tone: "thoughtLeadership", IncludeEmoji: true},
			contains: []string{"The future of ai is here", "🧠"},
			absent:   []string{"Let's discuss"},
		},
		{
			name:     "unknown tone falls back",
			req:      LinkedInRequest{Topic: "Sales", Tone: "witty", IncludeEmoji: true, IncludeCTA: true},
			contains: []string{"insights about Sales 🎉", "What's your experience with sales?"},
		},
		{
			name:     "no emoji",
			req:      LinkedInRequest{Topic: "Sales"},
			contains: []string{"insights about Sales\n"},
			absent:   []string{"💼"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LinkedInPost(tt.req)
			if err != nil {
				t.Fatalf("LinkedInPost error: %v", err)
			}
			for _, c := range tt.contains {
				if !strings.Contains(p.Body, c) {
					t.Fatalf("body missing %q:\n%s", c, p.Body)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(p.Body, a) {
					t.Fatalf("body unexpectedly contains %q", a)
				}
			}
			if diff := cmp.Diff(LinkedInHashtags, p.Hashtags); diff != "" {
				t.Fatalf("hashtags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBlogPost(t *testing.T) {
	p, err := BlogPost(BlogRequest{Topic: "Content Strategy"})
	if err != nil {
		t.Fatalf("BlogPost error: %v", err)
	}
	if p.Title != "Content Strategy: A Comprehensive Guide" {
		t.Fatalf("unexpected title %q", p.Title)
	}
	if !strings.HasPrefix(p.Body, "# Content Strategy: A Comprehensive Guide\n\n## Introduction") {
		t.Fatalf("unexpected body start: %q", p.Body[:60])
	}
	if !strings.Contains(p.Body, "understanding content strategy has become crucial") {
		t.Fatalf("body does not lowercase topic in running text")
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("YouTube")
	if err != nil || p != PlatformYouTube || p.Label() != "YouTube Shorts" {
		t.Fatalf("ParsePlatform(YouTube) = %v, %v", p, err)
	}
	if p, _ := ParsePlatform(""); p != PlatformInstagram {
		t.Fatalf("expected instagram default, got %v", p)
	}
	if _, err := ParsePlatform("tiktok"); !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}
