package domain

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestWorkspaceJSONShape(t *testing.T) {
	ws := Workspace{
		Name: "Launch",
		Scripts: []ScriptMeta{{
			ID: "a1", Title: "Reel", Kind: KindVideo, Platform: "instagram",
			File: "a1.txt", CreatedAt: time.Unix(0, 0).UTC(), UpdatedAt: time.Unix(0, 0).UTC(),
		}},
		Templates: []Template{},
	}
	b, err := json.Marshal(ws)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"scripts":[`, `"templates":[]`, `"kind":"video"`, `"createdAt":"1970-01-01T00:00:00Z"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("manifest JSON missing %s: %s", want, s)
		}
	}
	if strings.Contains(s, `"profile"`) {
		t.Fatalf("nil profile should be omitted: %s", s)
	}
}

func TestFindHelpers(t *testing.T) {
	ws := Workspace{
		Scripts:   []ScriptMeta{{ID: "x"}, {ID: "y"}},
		Templates: []Template{{Name: "Product Launch"}},
	}
	if ws.FindScript("y") != 1 || ws.FindScript("z") != -1 {
		t.Fatalf("FindScript mismatch")
	}
	if ws.FindTemplateByName("  product launch ") != 0 {
		t.Fatalf("FindTemplateByName should ignore case and space")
	}
}

func TestKindAndOnboarding(t *testing.T) {
	if !KindBlog.Valid() || ScriptKind("tweet").Valid() {
		t.Fatalf("ScriptKind.Valid mismatch")
	}
	o := Onboarding{Answers: [OnboardingQuestions]string{"a", " ", "c"}}
	if o.Answered() != 2 {
		t.Fatalf("Answered = %d, want 2", o.Answered())
	}
}

func TestAddHashtag(t *testing.T) {
	full := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	tests := []struct {
		name    string
		tags    []string
		tag     string
		want    []string
		wantErr error
	}{
		{"append", []string{"Growth"}, "Remote", []string{"Growth", "Remote"}, nil},
		{"strips hash and space", nil, "  #AI ", []string{"AI"}, nil},
		{"duplicate is ignored", []string{"Growth"}, "#Growth", []string{"Growth"}, nil},
		{"case matters", []string{"Growth"}, "growth", []string{"Growth", "growth"}, nil},
		{"empty", []string{"Growth"}, " # ", []string{"Growth"}, ErrEmptyHashtag},
		{"full", full, "k", full, ErrTooManyHashtags},
		{"duplicate when full", full, "j", full, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddHashtag(tt.tags, tt.tag)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("tags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddHashtagDoesNotAlias(t *testing.T) {
	base := make([]string, 1, 4)
	base[0] = "A"
	x, _ := AddHashtag(base, "B")
	y, _ := AddHashtag(base, "C")
	if x[1] != "B" || y[1] != "C" {
		t.Fatalf("appends share storage: %v %v", x, y)
	}
}

func TestRemoveHashtag(t *testing.T) {
	tags := []string{"Innovation", "Growth", "Leadership"}
	got, ok := RemoveHashtag(tags, "#Growth")
	if !ok || !slices.Equal(got, []string{"Innovation", "Leadership"}) {
		t.Fatalf("RemoveHashtag = %v, %v", got, ok)
	}
	if tags[1] != "Growth" {
		t.Fatalf("input modified: %v", tags)
	}
	if _, ok := RemoveHashtag(tags, "Missing"); ok {
		t.Fatalf("removing an absent tag reported true")
	}
	if s := FormatHashtags(got); s != "#Innovation #Leadership" {
		t.Fatalf("FormatHashtags = %q", s)
	}
}

func TestProfilePrefsDefault(t *testing.T) {
	if (Profile{}).Prefs() != DefaultNotifications() {
		t.Fatalf("unset preferences should default to all on")
	}
	off := NotificationPrefs{Push: true}
	if (Profile{Notifications: &off}).Prefs() != off {
		t.Fatalf("stored preferences not returned")
	}
}
