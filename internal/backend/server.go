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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scriptdesk/internal/domain"
	"scriptdesk/internal/script"
	"scriptdesk/internal/version"
)

var (
	ErrDuplicateTemplate = errors.New("a template with this name already exists")
	ErrInvalidTemplate   = errors.New("invalid template")
)

// RemoteTemplate is a template stored on the backend.
type RemoteTemplate struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Kind         domain.ScriptKind `json:"kind"`
	Platform     string            `json:"platform,omitempty"`
	Text         string            `json:"text"`
	SegmentCount int               `json:"segment_count"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Store is the persistence the HTTP handlers need. PGStore is the production implementation.
type Store interface {
	Ping(ctx context.Context) error
	GetProfile(ctx context.Context, userID string) (domain.Profile, bool, error)
	PutProfile(ctx context.Context, p domain.Profile) error
	GetOnboarding(ctx context.Context, userID string) (domain.Onboarding, error)
	PutOnboarding(ctx context.Context, o domain.Onboarding) error
	ListTemplates(ctx context.Context, userID, query string) ([]RemoteTemplate, error)
	SaveTemplate(ctx context.Context, userID string, t RemoteTemplate) (RemoteTemplate, error)
}

// ValidateTemplate normalizes t and counts its sections. Video templates must contain at least
// one bracketed section header; posts count as a single section.
func ValidateTemplate(t RemoteTemplate) (RemoteTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, fmt.Errorf("%w: name required", ErrInvalidTemplate)
	}
	if t.Kind == "" {
		t.Kind = domain.KindVideo
	}
	if !t.Kind.Valid() {
		return t, fmt.Errorf("%w: unknown kind %q", ErrInvalidTemplate, t.Kind)
	}
	if strings.TrimSpace(t.Text) == "" {
		return t, fmt.Errorf("%w: text required", ErrInvalidTemplate)
	}
	if t.Kind != domain.KindVideo {
		t.SegmentCount = 1
		return t, nil
	}
	t.SegmentCount = script.Parse(t.Text).Len()
	if t.SegmentCount == 0 {
		return t, fmt.Errorf("%w: no [NAME - timing] sections found", ErrInvalidTemplate)
	}
	return t, nil
}

// NewHandler builds the API mux over store. Tokens are signed with secret.
func NewHandler(store Store, secret string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("scriptdesk-server " + version.String()))
	})

	// POST /api/auth/token → { token, expires_at }
	mux.HandleFunc("/api/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// Optional JSON body: { "subject": "name", "ttl_seconds": 3600 }
		var req TokenRequest
		b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		_ = r.Body.Close()
		_ = json.Unmarshal(b, &req)
		if req.Subject == "" {
			req.Subject = "dev"
		}
		if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
			req.TTLSeconds = 3600
		}
		exp := time.Now().Add(time.Duration(req.TTLSeconds) * time.Second)
		tok, err := signToken(secret, req.Subject, exp)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, Token{Token: tok, ExpiresAt: exp.UTC().Truncate(time.Second)})
	})

	mux.HandleFunc("/api/profile", withAuth(secret, func(w http.ResponseWriter, r *http.Request, sub string) {
		switch r.Method {
		case http.MethodGet:
			p, ok, err := store.GetProfile(r.Context(), sub)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			if !ok {
				writeError(w, http.StatusNotFound, errors.New("no profile"))
				return
			}
			prefs := p.Prefs()
			p.Notifications = &prefs
			writeJSON(w, http.StatusOK, p)
		case http.MethodPut:
			// Fields missing from the body keep their stored values.
			p, _, err := store.GetProfile(r.Context(), sub)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			prefs := p.Prefs()
			p.Notifications = &prefs
			if err := decodeBody(r, &p); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if p.Notifications == nil {
				p.Notifications = &prefs
			}
			p.ID = sub
			p.Email = strings.TrimSpace(p.Email)
			if err := store.PutProfile(r.Context(), p); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/onboarding", withAuth(secret, func(w http.ResponseWriter, r *http.Request, sub string) {
		switch r.Method {
		case http.MethodGet:
			o, err := store.GetOnboarding(r.Context(), sub)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, o)
		case http.MethodPut:
			var o domain.Onboarding
			if err := decodeBody(r, &o); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			o.UserID = sub
			if o.Completed && o.Answered() < domain.OnboardingQuestions {
				writeError(w, http.StatusBadRequest, fmt.Errorf("all %d questions must be answered to complete onboarding", domain.OnboardingQuestions))
				return
			}
			if err := store.PutOnboarding(r.Context(), o); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, o)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/templates", withAuth(secret, func(w http.ResponseWriter, r *http.Request, sub string) {
		switch r.Method {
		case http.MethodGet:
			list, err := store.ListTemplates(r.Context(), sub, r.URL.Query().Get("q"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var t RemoteTemplate
			if err := decodeBody(r, &t); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			t, err := ValidateTemplate(t)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err)
				return
			}
			saved, err := store.SaveTemplate(r.Context(), sub, t)
			switch {
			case errors.Is(err, ErrDuplicateTemplate):
				writeError(w, http.StatusConflict, err)
			case err != nil:
				writeError(w, http.StatusInternalServerError, err)
			default:
				writeJSON(w, http.StatusCreated, saved)
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	return mux
}

func decodeBody(r *http.Request, dest any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// --- Helpers: auth and JSON ---

// TokenRequest is the optional body of POST /api/auth/token.
type TokenRequest struct {
	Subject    string `json:"subject"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// Token is a signed bearer token.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"` // unix seconds
}

func signToken(secret, subject string, exp time.Time) (string, error) {
	claims := tokenClaims{Sub: subject, Exp: exp.Unix()}
	b, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(b)
	payload := base64.RawURLEncoding.EncodeToString(b)
	signature := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return payload + "." + signature, nil
}

func verifyToken(secret, token string) (string, error) {
	payloadPart, sigPart, ok := strings.Cut(token, ".")
	if !ok || strings.Contains(sigPart, ".") {
		return "", errors.New("invalid token format")
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return "", errors.New("invalid token payload")
	}
	sigB, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return "", errors.New("invalid token signature")
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(payloadB)
	if !hmac.Equal(h.Sum(nil), sigB) {
		return "", errors.New("bad signature")
	}
	var claims tokenClaims
	if err := json.Unmarshal(payloadB, &claims); err != nil {
		return "", errors.New("bad claims")
	}
	if claims.Exp < time.Now().Unix() {
		return "", errors.New("token expired")
	}
	if claims.Sub == "" {
		claims.Sub = "dev"
	}
	return claims.Sub, nil
}

func withAuth(secret string, next func(w http.ResponseWriter, r *http.Request, subject string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		sub, err := verifyToken(secret, strings.TrimSpace(auth[len(prefix):]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r, sub)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
