// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware("s3cret", zap.NewNop())(okHandler)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"valid token", http.MethodPost, "/api/chat", "Bearer s3cret", http.StatusOK},
		{"wrong token", http.MethodPost, "/api/chat", "Bearer nope", http.StatusUnauthorized},
		{"missing header", http.MethodPost, "/api/chat", "", http.StatusUnauthorized},
		{"basic scheme", http.MethodPost, "/api/chat", "Basic s3cret", http.StatusUnauthorized},
		{"health exempt", http.MethodGet, "/health", "", http.StatusOK},
		{"preflight exempt", http.MethodOptions, "/api/chat", "", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	h := AuthMiddleware("", zap.NewNop())(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestValidateBearerToken(t *testing.T) {
	if !ValidateBearerToken("abc", "abc") {
		t.Error("matching tokens should validate")
	}
	if ValidateBearerToken("", "") {
		t.Error("empty tokens must not validate")
	}
	if ValidateBearerToken("abc", "abd") {
		t.Error("different tokens must not validate")
	}
}

// =============================================================================
// CORS TESTS
// =============================================================================

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware(DefaultCORSConfig([]string{"https://kantah.example.id", "*.grobogan.go.id"}))(okHandler)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://kantah.example.id", true},
		{"https://layanan.grobogan.go.id", true},
		{"https://evil.example.com", false},
		{"", false},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin")
		if tc.allowed && got != tc.origin {
			t.Errorf("origin %q: Allow-Origin = %q, want echo", tc.origin, got)
		}
		if !tc.allowed && got != "" {
			t.Errorf("origin %q: Allow-Origin = %q, want empty", tc.origin, got)
		}
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	h := CORSMiddleware(DefaultCORSConfig([]string{"*"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://widget.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight must not reach the handler")
	}
}

// =============================================================================
// RATE LIMITER TESTS
// =============================================================================

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.1.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.1.1.1") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("10.1.1.2") {
		t.Error("other IPs have their own bucket")
	}
	if d := rl.RetryAfter("10.1.1.1"); d <= 0 || d > 20*time.Second {
		t.Errorf("RetryAfter = %v, want (0, 20s]", d)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !rl.Allow("10.1.1.1") {
			t.Fatal("disabled limiter must allow everything")
		}
	}
	if rl.visitorCount() != 0 {
		t.Error("disabled limiter should not track visitors")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.cleanupLocked(time.Now())
	rl.mu.Unlock()

	if rl.visitorCount() != 1 {
		t.Errorf("visitors = %d, want 1", rl.visitorCount())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(NewRateLimiter(1), zap.NewNop())(okHandler)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	if first.Code != http.StatusOK {
		t.Errorf("first status = %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

// =============================================================================
// RECOVERY AND IP TESTS
// =============================================================================

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.9:5555", "", "203.0.113.9"},
		{"spoofed header from untrusted", "203.0.113.9:5555", "1.2.3.4", "203.0.113.9"},
		{"trusted proxy", "10.0.0.5:80", "198.51.100.7, 10.0.0.5", "198.51.100.7"},
		{"trusted proxy bad header", "127.0.0.1:80", "not-an-ip", "127.0.0.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := GetClientIP(req); got != tc.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(mw("a"), mw("b"), mw("c"))(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v, want [a b c]", order)
	}
}
