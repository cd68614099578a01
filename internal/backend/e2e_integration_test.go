/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"scriptdesk/internal/domain"
)

func openPGForTest(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("SD_PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("SD_PG_DSN / DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("cannot open postgres: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("postgres not available: %v", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	// a second run is a no-op
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("re-apply migrations: %v", err)
	}
	return db
}

func TestE2E_PGStoreThroughHTTP(t *testing.T) {
	db := openPGForTest(t)
	defer func() { _ = db.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		for _, q := range []string{
			`DELETE FROM templates WHERE user_id = $1`,
			`DELETE FROM onboarding WHERE user_id = $1`,
			`DELETE FROM profiles WHERE user_id = $1`,
		} {
			_, _ = db.Exec(q, user)
		}
	})

	srv := httptest.NewServer(NewHandler(NewPGStore(db), testSecret))
	defer srv.Close()
	c := NewClient(srv.URL, "")
	tok, err := c.IssueToken(ctx, user, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	c.Token = tok.Token

	if _, err := c.PutProfile(ctx, domain.Profile{Email: "e2e@example.com", FullName: "E2E"}); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	p, err := c.GetProfile(ctx)
	if err != nil || p.ID != user || p.Email != "e2e@example.com" {
		t.Fatalf("GetProfile = %+v, %v", p, err)
	}
	if p.Prefs() != domain.DefaultNotifications() {
		t.Fatalf("new profile should default to all notifications on: %+v", p.Prefs())
	}
	quiet := domain.NotificationPrefs{ContentSuggestions: true}
	p.Notifications = &quiet
	if _, err := c.PutProfile(ctx, p); err != nil {
		t.Fatalf("PutProfile prefs: %v", err)
	}
	if p, err = c.GetProfile(ctx); err != nil || p.Prefs() != quiet {
		t.Fatalf("GetProfile prefs = %+v, %v", p, err)
	}

	o := domain.Onboarding{Answers: [domain.OnboardingQuestions]string{"a", "b", "c", "d", "e"}, Completed: true}
	if _, err := c.PutOnboarding(ctx, o); err != nil {
		t.Fatalf("PutOnboarding: %v", err)
	}
	got, err := c.GetOnboarding(ctx)
	if err != nil || !got.Completed || got.Answers[4] != "e" {
		t.Fatalf("GetOnboarding = %+v, %v", got, err)
	}

	text := "[HOOK - 0:00-0:05]\nSunrise over the city\n\n[CTA - 0:05-0:10]\nSubscribe."
	saved, err := c.SaveTemplate(ctx, domain.Template{Name: "City", Kind: domain.KindVideo, Text: text})
	if err != nil || saved.SegmentCount != 2 {
		t.Fatalf("SaveTemplate = %+v, %v", saved, err)
	}
	if _, err := c.SaveTemplate(ctx, domain.Template{Name: "city", Kind: domain.KindVideo, Text: text}); !errors.Is(err, ErrDuplicateTemplate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	hits, err := c.ListTemplates(ctx, "sunrise")
	if err != nil || len(hits) != 1 || hits[0].ID != saved.ID {
		t.Fatalf("search = %+v, %v", hits, err)
	}
	if miss, err := SearchTemplatesPG(ctx, db, user, "moonlight"); err != nil || len(miss) != 0 {
		t.Fatalf("expected no match, got %+v, %v", miss, err)
	}
}
