package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSanitizingHandler_SensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "cookie", key: "cookie", value: "consent=yes", wantMask: true},
		{name: "uppercase cookie", key: "Cookie", value: "consent=yes", wantMask: true},
		{name: "authorization", key: "authorization", value: "Token abc", wantMask: true},
		{name: "key containing cookie", key: "host_cookie", value: "a=b", wantMask: true},
		{name: "domain is kept", key: "domain", value: "example.com", wantMask: false},
		{name: "status is kept", key: "status", value: "OK", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := NewLogger(&buf, false, false)
			logger.Warn("test", tt.key, tt.value)

			out := buf.String()
			masked := strings.Contains(out, MaskValue)
			if masked != tt.wantMask {
				t.Errorf("expected masked=%v, got output %q", tt.wantMask, out)
			}
			if tt.wantMask && strings.Contains(out, tt.value) {
				t.Errorf("expected value %q to be hidden, got %q", tt.value, out)
			}
		})
	}
}

func TestSanitizingHandler_SensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "bearer token", value: "Bearer abc.def"},
		{name: "basic auth", value: "Basic dXNlcjpwYXNz"},
		{name: "jwt", value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			NewLogger(&buf, false, false).Warn("test", "header", tt.value)
			if !strings.Contains(buf.String(), MaskValue) {
				t.Errorf("expected value to be masked, got %q", buf.String())
			}
		})
	}
}

func TestSanitizingHandler_StripsURLQueries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false, true)
	logger.Warn("logo found",
		"logo_url", "https://cdn.example.com/logo.png?sig=abc#top",
		"error", errors.New("HTTP 403 for https://cdn.example.com/a.png?token=xyz"),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if entry["logo_url"] != "https://cdn.example.com/logo.png" {
		t.Errorf("expected query to be stripped, got %v", entry["logo_url"])
	}
	if entry["error"] != "HTTP 403 for https://cdn.example.com/a.png" {
		t.Errorf("expected error URL to be stripped, got %v", entry["error"])
	}
}

func TestStripURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{name: "no url", in: "plain text", want: "plain text", changed: false},
		{name: "clean url", in: "https://example.com/logo.png", want: "https://example.com/logo.png", changed: false},
		{name: "query", in: "https://example.com/a.png?v=1", want: "https://example.com/a.png", changed: true},
		{name: "user info", in: "http://user:pw@example.com/", want: "http://example.com/", changed: true},
		{name: "embedded", in: "fetch (https://x.org/i.ico?a=b) failed", want: "fetch (https://x.org/i.ico) failed", changed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, changed := StripURLs(tt.in)
			if got != tt.want || changed != tt.changed {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.changed, got, changed)
			}
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	t.Run("debug hidden by default", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewLogger(&buf, false, false).Debug("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("debug shown when verbose", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewLogger(&buf, true, false).Debug("shown")
		if !strings.Contains(buf.String(), "shown") {
			t.Errorf("expected debug output, got %q", buf.String())
		}
	})
}

func TestSanitizingHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false, false).
		With("cookie", "a=b").
		WithGroup("req").
		With("url", "https://example.com/?q=1")
	logger.Warn("test", slog.Group("hdr", slog.String("authorization", "x")))

	out := buf.String()
	if strings.Contains(out, "a=b") || strings.Contains(out, "q=1") {
		t.Errorf("expected attributes to be sanitized, got %q", out)
	}
	if strings.Count(out, MaskValue) != 2 {
		t.Errorf("expected two masked values, got %q", out)
	}
}

func TestNewSanitizingHandler_NilHandler(t *testing.T) {
	t.Parallel()

	if h := NewSanitizingHandler(nil); h.handler == nil {
		t.Error("expected fallback handler")
	}
}
