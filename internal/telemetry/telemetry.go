/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a small opt-in event sender for anonymous usage metrics
// and optional crash uploads. Events never carry script text.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "scriptdesk/internal/log"
	"scriptdesk/internal/version"
)

// Event names.
const (
	EventScriptGenerated = "script_generated"
	EventSegmentEdited   = "segment_edited"
	EventScriptExported  = "script_exported"
)

// Config holds runtime configuration for telemetry and crash uploads.
// Everything is disabled unless OptIn is set and a URL is configured.
//
// Environment variables (read by FromEnv):
//   - SD_TELEMETRY_OPT_IN: "1", "true", "yes" to enable
//   - SD_TELEMETRY_URL: endpoint receiving JSON events
//   - SD_CRASH_UPLOAD_URL: endpoint receiving crash reports
//   - SD_TELEMETRY_TIMEOUT_MS: request timeout, default 1500
//   - SD_TELEMETRY_DEBUG: log send attempts
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("SD_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("SD_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("SD_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("SD_TELEMETRY_DEBUG") != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SD_TELEMETRY_TIMEOUT_MS"))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client sends events from a bounded queue on one goroutine and drops them on errors.
type Client struct {
	cfg      Config
	log      *slog.Logger
	cli      *http.Client
	q        chan map[string]any
	pending  sync.WaitGroup
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

func getDefault() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault installs c as the package-level client and returns the previous one (possibly nil).
func SetDefault(c *Client) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	old := defaultClient
	defaultClient = c
	return old
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		cfg:     cfg,
		log:     applog.WithComponent("telemetry"),
		cli:     &http.Client{Timeout: cfg.Timeout, Transport: tr},
		q:       make(chan map[string]any, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether the default client sends events.
func Enabled() bool { return getDefault().Enabled() }

// Event queues a small JSON event. It never blocks; a full queue drops the event.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Done()
	}
}

func Event(name string, props map[string]any) { getDefault().Event(name, props) }

// ScriptGenerated records a draft creation: its kind, platform and segment count.
func ScriptGenerated(kind, platform string, segments int) {
	Event(EventScriptGenerated, map[string]any{"kind": kind, "platform": platform, "segments": segments})
}

func SegmentEdited(index, segments int) {
	Event(EventSegmentEdited, map[string]any{"index": index, "segments": segments})
}

func ScriptExported(format string, segments int) {
	Event(EventScriptExported, map[string]any{"format": format, "segments": segments})
}

// Flush waits until queued events and crash uploads are sent or ctx ends.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(ch)
	}()
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func Flush(ctx context.Context) { getDefault().Flush(ctx) }

// Close drains the queue, waits for in-flight uploads and stops the sender goroutine.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout+500*time.Millisecond)
		c.Flush(ctx)
		cancel()
		close(c.done)
		<-c.stopped
		c.cli.CloseIdleConnections()
	})
}

func (c *Client) loop() {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			return
		case item := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(item))
			c.pending.Done()
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.String("url", url), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry sent", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a serialized crash report to the crash URL if opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.pending.Add(1)
	go func(b []byte) {
		defer c.pending.Done()
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b)
	}(append([]byte(nil), report...))
}

func UploadCrash(report []byte) { getDefault().UploadCrash(report) }
