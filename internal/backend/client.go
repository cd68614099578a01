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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scriptdesk/internal/domain"
)

var (
	ErrUnauthorized = errors.New("unauthorized: run `scriptdesk login`")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend: %s: %s", http.StatusText(e.Status), e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrDuplicateTemplate:
		return e.Status == http.StatusConflict
	case ErrInvalidTemplate:
		return e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// Client is a minimal HTTP client for the backend API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client (timeouts, TLS settings).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.client = hc
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &e) != nil {
			e.Error = strings.TrimSpace(string(b))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// IssueToken asks the server for a bearer token for subject. A zero ttl uses the server default.
func (c *Client) IssueToken(ctx context.Context, subject string, ttl time.Duration) (Token, error) {
	var tok Token
	req := TokenRequest{Subject: subject, TTLSeconds: int64(ttl / time.Second)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (c *Client) GetProfile(ctx context.Context) (domain.Profile, error) {
	var p domain.Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/profile", nil, &p)
	return p, err
}

func (c *Client) PutProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	var out domain.Profile
	err := c.doJSON(ctx, http.MethodPut, "/api/profile", p, &out)
	return out, err
}

func (c *Client) GetOnboarding(ctx context.Context) (domain.Onboarding, error) {
	var o domain.Onboarding
	err := c.doJSON(ctx, http.MethodGet, "/api/onboarding", nil, &o)
	return o, err
}

func (c *Client) PutOnboarding(ctx context.Context, o domain.Onboarding) (domain.Onboarding, error) {
	var out domain.Onboarding
	err := c.doJSON(ctx, http.MethodPut, "/api/onboarding", o, &out)
	return out, err
}

// ListTemplates returns the caller's templates; a non-empty query runs a full-text search.
func (c *Client) ListTemplates(ctx context.Context, query string) ([]RemoteTemplate, error) {
	p := "/api/templates"
	if q := strings.TrimSpace(query); q != "" {
		p += "?q=" + url.QueryEscape(q)
	}
	var list []RemoteTemplate
	if err := c.doJSON(ctx, http.MethodGet, p, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveTemplate uploads a local template. The server validates the text and counts its sections.
func (c *Client) SaveTemplate(ctx context.Context, t domain.Template) (RemoteTemplate, error) {
	in := RemoteTemplate{Name: t.Name, Kind: t.Kind, Platform: t.Platform, Text: t.Text}
	var out RemoteTemplate
	if err := c.doJSON(ctx, http.MethodPost, "/api/templates", in, &out); err != nil {
		return RemoteTemplate{}, err
	}
	return out, nil
}
