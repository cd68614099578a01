/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strings"
	"time"
)

// This file defines the workspace data model. A workspace is a directory holding a
// human-readable JSON manifest (workspace.json) plus one text file per script.

// Workspace is the manifest of a ScriptDesk workspace.
type Workspace struct {
	Name      string       `json:"name"`
	Profile   *Profile     `json:"profile,omitempty"`
	Scripts   []ScriptMeta `json:"scripts"`
	Templates []Template   `json:"templates"`
}

// ScriptKind is the content type of a script.
type ScriptKind string

const (
	KindVideo    ScriptKind = "video"
	KindLinkedIn ScriptKind = "linkedin"
	KindBlog     ScriptKind = "blog"
)

// Valid reports whether k is one of the known kinds.
func (k ScriptKind) Valid() bool {
	switch k {
	case KindVideo, KindLinkedIn, KindBlog:
		return true
	}
	return false
}

// ScriptMeta describes one script; the text lives in scripts/<File>.
type ScriptMeta struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Kind     ScriptKind `json:"kind"`
	Platform string     `json:"platform,omitempty"` // instagram, youtube (video only)
	Topic    string     `json:"topic,omitempty"`
	Tone     string     `json:"tone,omitempty"`
	// Goal, Length and Instructions are recorded as requested; the drafts do not vary with them.
	Goal         string    `json:"goal,omitempty"`
	Length       string    `json:"length,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	Hashtags     []string  `json:"hashtags,omitempty"`
	File         string    `json:"file"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Template is a saved script reused as a starting point ("Save as Template").
type Template struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      ScriptKind `json:"kind"`
	Platform  string     `json:"platform,omitempty"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Profile is the signed-in user as known to the backend.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	// Notifications is nil when the preferences were never set; Prefs applies the defaults.
	Notifications *NotificationPrefs `json:"notifications,omitempty"`
}

// NotificationPrefs are the per-user notification switches.
type NotificationPrefs struct {
	Email              bool `json:"email"`
	Push               bool `json:"push"`
	ContentSuggestions bool `json:"contentSuggestions"`
}

// DefaultNotifications has every channel switched on.
func DefaultNotifications() NotificationPrefs {
	return NotificationPrefs{Email: true, Push: true, ContentSuggestions: true}
}

// Prefs returns the notification preferences, or the defaults when none were stored.
func (p Profile) Prefs() NotificationPrefs {
	if p.Notifications == nil {
		return DefaultNotifications()
	}
	return *p.Notifications
}

// OnboardingQuestions is the number of onboarding answers collected.
const OnboardingQuestions = 5

// Onboarding holds the answers of the first-run questionnaire.
type Onboarding struct {
	UserID    string                      `json:"userId"`
	Answers   [OnboardingQuestions]string `json:"answers"`
	Completed bool                        `json:"completed"`
}

// Answered counts the non-blank answers.
func (o Onboarding) Answered() int {
	n := 0
	for _, a := range o.Answers {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}

// FindScript returns the index of the script with the given id, or -1.
func (w *Workspace) FindScript(id string) int {
	for i := range w.Scripts {
		if w.Scripts[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTemplateByName matches case-insensitively, ignoring surrounding space.
func (w *Workspace) FindTemplateByName(name string) int {
	name = strings.TrimSpace(name)
	for i := range w.Templates {
		if strings.EqualFold(strings.TrimSpace(w.Templates[i].Name), name) {
			return i
		}
	}
	return -1
}
