/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package generate produces draft content from fixed templates filled with the request.
// Nothing here calls a model; the drafts are deterministic.
package generate

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"scriptdesk/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.New("generate").
	Funcs(template.FuncMap{"lower": strings.ToLower}).
	ParseFS(templateFS, "templates/*.tmpl"))

var (
	ErrTopicRequired   = errors.New("topic required")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrInvalidDuration = errors.New("invalid duration")
)

// Platform is the target of a video script.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// Label is the user-facing name of the platform format.
func (p Platform) Label() string {
	switch p {
	case PlatformYouTube:
		return "YouTube Shorts"
	default:
		return "Instagram Reels"
	}
}

// ParsePlatform accepts "instagram" or "youtube"; empty means instagram.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "instagram", "reels":
		return PlatformInstagram, nil
	case "youtube", "shorts":
		return PlatformYouTube, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

const (
	DefaultDuration = 30
	MinDuration     = 15
	MaxDuration     = 60
	DefaultTone     = "professional"
	DefaultGoal     = "educate"
	DefaultLength   = "medium"
)

// VideoRequest describes a short-form video script. Tone, Goal and Instructions do not change
// the draft; callers keep them as metadata.
type VideoRequest struct {
	Topic        string
	Platform     Platform
	Tone         string
	Goal         string
	Instructions string
	// Duration in seconds; 0 means DefaultDuration.
	Duration int
}

// Post is a generated text post.
type Post struct {
	Title    string   `json:"title,omitempty"`
	Body     string   `json:"body"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// Segment boundaries as sixths of the total: hook, problem, solution, proof, call to action.
var videoSplits = []int{0, 1, 2, 4, 5, 6}

// VideoTimings returns the five "m:ss-m:ss" ranges for a video of the given length.
func VideoTimings(duration int) ([]string, error) {
	if duration == 0 {
		duration = DefaultDuration
	}
	if duration < MinDuration || duration > MaxDuration || duration%5 != 0 {
		return nil, fmt.Errorf("%w: %d (want %d..%d in steps of 5)", ErrInvalidDuration, duration, MinDuration, MaxDuration)
	}
	bounds := make([]int, len(videoSplits))
	for i, k := range videoSplits {
		bounds[i] = (duration*k + 3) / 6
	}
	out := make([]string, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		out = append(out, clock(bounds[i])+"-"+clock(bounds[i+1]))
	}
	return out, nil
}

func clock(sec int) string { return fmt.Sprintf("%d:%02d", sec/60, sec%60) }

// VideoScript renders a five-segment script in the bracketed header format.
func VideoScript(req VideoRequest) (string, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return "", ErrTopicRequired
	}
	timings, err := VideoTimings(req.Duration)
	if err != nil {
		return "", err
	}
	return render("video.tmpl", map[string]any{
		"Topic":   topic,
		"Timings": timings,
	})
}

// LinkedInRequest describes a LinkedIn post.
type LinkedInRequest struct {
	Topic        string
	Tone         string
	IncludeEmoji bool
	IncludeCTA   bool
	// Hashtags are added after the defaults, subject to domain.AddHashtag's rules.
	Hashtags []string
}

var toneEmoji = map[string]string{
	"professional":      "💼",
	"conversational":    "💬",
	"thoughtLeadership": "🧠",
	"storytelling":      "📖",
}

// LinkedInHashtags are attached to every generated post.
var LinkedInHashtags = []string{"Innovation", "Growth", "Leadership"}

// LinkedInPost renders a tone-specific post. Tones without their own template use the default body.
func LinkedInPost(req LinkedInRequest) (Post, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Post{}, ErrTopicRequired
	}
	tone := req.Tone
	if tone == "" {
		tone = DefaultTone
	}
	emoji := ""
	if req.IncludeEmoji {
		emoji = toneEmoji[tone]
		if emoji == "" {
			emoji = "🎉"
		}
	}
	name := "linkedin_default.tmpl"
	switch tone {
	case "storytelling", "thoughtLeadership":
		name = "linkedin_" + tone + ".tmpl"
	}
	body, err := render(name, map[string]any{"Topic": topic, "Emoji": emoji, "CTA": req.IncludeCTA})
	if err != nil {
		return Post{}, err
	}
	tags := append([]string(nil), LinkedInHashtags...)
	for _, t := range req.Hashtags {
		if tags, err = domain.AddHashtag(tags, t); err != nil {
			return Post{}, fmt.Errorf("hashtag %q: %w", t, err)
		}
	}
	return Post{Body: body, Hashtags: tags}, nil
}

// BlogRequest describes a long-form markdown post. Only Topic shapes the draft.
type BlogRequest struct {
	Topic        string
	Tone         string
	Length       string
	Instructions string
}

// BlogTitle is the title given to a generated blog post.
func BlogTitle(topic string) string {
	return strings.TrimSpace(topic) + ": A Comprehensive Guide"
}

func BlogPost(req BlogRequest) (Post, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Post{}, ErrTopicRequired
	}
	body, err := render("blog.tmpl", map[string]any{"Topic": topic})
	if err != nil {
		return Post{}, err
	}
	return Post{Title: BlogTitle(topic), Body: body}, nil
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	// Lines may carry trailing spaces when an emoji is left out.
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
