/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"scriptdesk/internal/domain"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu         sync.Mutex
	pingErr    error
	profiles   map[string]domain.Profile
	onboarding map[string]domain.Onboarding
	templates  map[string][]RemoteTemplate
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{
		profiles:   map[string]domain.Profile{},
		onboarding: map[string]domain.Onboarding{},
		templates:  map[string][]RemoteTemplate{},
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) GetProfile(_ context.Context, userID string) (domain.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	return p, ok, nil
}

func (m *memStore) PutProfile(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *memStore) GetOnboarding(_ context.Context, userID string) (domain.Onboarding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.onboarding[userID]
	if !ok {
		o.UserID = userID
	}
	return o, nil
}

func (m *memStore) PutOnboarding(_ context.Context, o domain.Onboarding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onboarding[o.UserID] = o
	return nil
}

func (m *memStore) ListTemplates(_ context.Context, userID, query string) ([]RemoteTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []RemoteTemplate{}
	q := strings.ToLower(strings.TrimSpace(query))
	for _, t := range m.templates[userID] {
		if q == "" || strings.Contains(strings.ToLower(t.Name+" "+t.Text), q) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) SaveTemplate(_ context.Context, userID string, t RemoteTemplate) (RemoteTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.templates[userID] {
		if strings.EqualFold(e.Name, t.Name) {
			return RemoteTemplate{}, ErrDuplicateTemplate
		}
	}
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now().UTC()
	m.templates[userID] = append(m.templates[userID], t)
	return t, nil
}

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	st := newMemStore()
	srv := httptest.NewServer(NewHandler(st, testSecret))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := signToken(testSecret, "alice", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken(testSecret, tok)
	if err != nil || sub != "alice" {
		t.Fatalf("verify = %q, %v", sub, err)
	}
	if _, err := verifyToken("other", tok); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	expired, _ := signToken(testSecret, "alice", time.Now().Add(-time.Minute))
	if _, err := verifyToken(testSecret, expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}
	for _, bad := range []string{"", "abc", "a.b.c", "!!.??"} {
		if _, err := verifyToken(testSecret, bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv, st := newTestServer(t)
	for path, want := range map[string]int{"/healthz": http.StatusOK, "/readyz": http.StatusOK, "/version": http.StatusOK} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET %s = %d, want %d", path, resp.StatusCode, want)
		}
	}
	st.pingErr = errors.New("down")
	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing db = %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, p := range []string{"/api/profile", "/api/onboarding", "/api/templates"} {
		resp, err := http.Get(srv.URL + p)
		if err != nil {
			t.Fatalf("GET %s: %v", p, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s without token = %d", p, resp.StatusCode)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name     string
		in       RemoteTemplate
		segments int
		wantErr  bool
	}{
		{name: "video", in: RemoteTemplate{Name: " Hook ", Text: "[HOOK - 0:00-0:05]\nHi\n\n[CTA - 0:05-0:10]\nBye"}, segments: 2},
		{name: "video without headers", in: RemoteTemplate{Name: "x", Kind: domain.KindVideo, Text: "just prose"}, wantErr: true},
		{name: "post", in: RemoteTemplate{Name: "x", Kind: domain.KindLinkedIn, Text: "prose"}, segments: 1},
		{name: "blank name", in: RemoteTemplate{Text: "[A - 1]\nb"}, wantErr: true},
		{name: "blank text", in: RemoteTemplate{Name: "x", Text: "  "}, wantErr: true},
		{name: "bad kind", in: RemoteTemplate{Name: "x", Kind: "tiktok", Text: "t"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateTemplate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTemplate) {
					t.Fatalf("expected ErrInvalidTemplate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.SegmentCount != tt.segments {
				t.Fatalf("segments = %d, want %d", got.SegmentCount, tt.segments)
			}
			if got.Name != strings.TrimSpace(tt.in.Name) {
				t.Fatalf("name not trimmed: %q", got.Name)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("migrations/0002_template_search.sql"); err != nil || v != 2 {
		t.Fatalf("parseVersion = %d, %v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error for unnumbered migration")
	}
}
