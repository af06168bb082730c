// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/model"
	"github.com/jeranaias/kantah-chat/internal/prompt"
	"github.com/jeranaias/kantah-chat/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []prompt.Prompt
}

func (f *fakeGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticKnowledge string

func (k staticKnowledge) Text() string { return string(k) }

type fakeRecorder struct {
	mu        sync.Mutex
	inquiries []storage.Inquiry
}

func (f *fakeRecorder) Record(ctx context.Context, inq storage.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inquiries = append(f.inquiries, inq)
	return nil
}

func newTestServer(t *testing.T, gen *fakeGenerator, opts Options) *Server {
	t.Helper()
	site, err := knowledge.LookupSite("bpn-grobogan")
	if err != nil {
		t.Fatalf("LookupSite: %v", err)
	}
	persona, err := knowledge.LookupPersona("formal")
	if err != nil {
		t.Fatalf("LookupPersona: %v", err)
	}
	if opts.ModelName == "" {
		opts.ModelName = "gemini-2.5-flash"
	}
	return New(opts, gen, prompt.NewAssembler(persona, site), staticKnowledge("JAM OPERASIONAL: Senin-Jumat 08.00-16.00"))
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
	}
	return out
}

// =============================================================================
// CHAT HANDLER TESTS
// =============================================================================

func TestHandleChat_Success(t *testing.T) {
	gen := &fakeGenerator{reply: "**Jam operasional** kantor:\n* Senin-Jumat 08.00-16.00"}
	srv := newTestServer(t, gen, Options{})

	rec := postChat(t, srv.Handler(), `{"message":"Apa jam operasional?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env["success"] != true {
		t.Errorf("success = %v, want true", env["success"])
	}
	msg, _ := env["message"].(string)
	if msg == "" {
		t.Fatal("message should be non-empty")
	}
	if strings.Contains(msg, "*") {
		t.Errorf("message should be cleaned of asterisks, got %q", msg)
	}
	if want := "Jam operasional kantor:\n- Senin-Jumat 08.00-16.00"; msg != want {
		t.Errorf("message = %q, want %q", msg, want)
	}

	if gen.callCount() != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.callCount())
	}
	text := gen.prompts[0].Text
	if !strings.Contains(text, "Pertanyaan dari masyarakat: Apa jam operasional?") {
		t.Error("prompt should contain the question")
	}
	if !strings.Contains(text, "JAM OPERASIONAL: Senin-Jumat") {
		t.Error("prompt should contain the knowledge text")
	}
}

func TestHandleChat_EmptyRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty images", `{"message":"","images":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "unused"}
			srv := newTestServer(t, gen, Options{})

			rec := postChat(t, srv.Handler(), tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env["error"] != "Message or images are required" {
				t.Errorf("error = %v", env["error"])
			}
			if env["success"] != false {
				t.Errorf("success = %v, want false", env["success"])
			}
			if gen.callCount() != 0 {
				t.Errorf("generator must not be called, got %d calls", gen.callCount())
			}
		})
	}
}

func TestHandleChat_WhitespaceMessageReachesModel(t *testing.T) {
	gen := &fakeGenerator{reply: "Ada yang bisa kami bantu?"}
	srv := newTestServer(t, gen, Options{})

	rec := postChat(t, srv.Handler(), `{"message":"   \n"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gen.callCount() != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.callCount())
	}
	if !strings.Contains(gen.prompts[0].Text, "Pertanyaan dari masyarakat: \n\n") {
		t.Error("prompt should carry an empty question line")
	}
}

func TestHandleChat_ImagesOnly(t *testing.T) {
	gen := &fakeGenerator{reply: "Ini adalah sertifikat hak milik."}
	srv := newTestServer(t, gen, Options{})

	rec := postChat(t, srv.Handler(), `{"images":[{"data":"aGFsbw==","mimeType":"image/jpeg"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	p := gen.prompts[0]
	if len(p.Images) != 1 || p.Images[0].MimeType != "image/jpeg" {
		t.Errorf("images not forwarded: %+v", p.Images)
	}
	if !strings.Contains(p.Text, prompt.DefaultImageQuestion) {
		t.Error("prompt should use the default image question")
	}
	if !strings.Contains(p.Text, "[Pengguna mengirim 1 gambar/dokumen untuk dianalisis]") {
		t.Error("prompt should note the attachment count")
	}
}

func TestHandleChat_ModelError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream exploded: secret detail")}
	srv := newTestServer(t, gen, Options{})

	rec := postChat(t, srv.Handler(), `{"message":"Berapa biaya balik nama?"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["error"] != "Failed to generate response" || env["success"] != false {
		t.Errorf("envelope = %v", env)
	}
	if strings.Contains(rec.Body.String(), "secret detail") {
		t.Error("upstream error must not be echoed")
	}
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	gen := &fakeGenerator{}
	srv := newTestServer(t, gen, Options{})

	rec := postChat(t, srv.Handler(), `{"message":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["error"] != "Invalid request format" {
		t.Errorf("error = %v", env["error"])
	}
	if gen.callCount() != 0 {
		t.Error("generator must not be called")
	}
}

func TestHandleChat_BodyTooLarge(t *testing.T) {
	gen := &fakeGenerator{}
	srv := newTestServer(t, gen, Options{MaxBodyBytes: 64})

	body := `{"message":"` + strings.Repeat("a", 200) + `"}`
	rec := postChat(t, srv.Handler(), body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["success"] != false {
		t.Errorf("success = %v", env["success"])
	}
}

func TestHandleChat_UnsupportedAttachment(t *testing.T) {
	tests := []struct {
		name   string
		images []model.ImageData
	}{
		{"executable", []model.ImageData{{Data: "eA==", MimeType: "application/x-msdownload"}}},
		{"empty data", []model.ImageData{{Data: "", MimeType: "image/png"}}},
		{"bare image prefix", []model.ImageData{{Data: "eA==", MimeType: "image/"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			srv := newTestServer(t, gen, Options{})

			body, _ := json.Marshal(ChatRequest{Message: "cek", Images: tc.images})
			rec := postChat(t, srv.Handler(), string(body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env := decodeEnvelope(t, rec); env["error"] != "Unsupported attachment" {
				t.Errorf("error = %v", env["error"])
			}
			if gen.callCount() != 0 {
				t.Error("generator must not be called")
			}
		})
	}
}

func TestIsAllowedMimeType(t *testing.T) {
	tests := map[string]bool{
		"image/png":                true,
		"image/jpeg":               true,
		"IMAGE/WEBP":               true,
		"application/pdf":          true,
		"application/pdf; q=1":     true,
		"text/plain":               false,
		"image/":                   false,
		"":                         false,
		"application/octet-stream": false,
	}
	for mt, want := range tests {
		if got := IsAllowedMimeType(mt); got != want {
			t.Errorf("IsAllowedMimeType(%q) = %v, want %v", mt, got, want)
		}
	}
}

func TestHandleChat_RecordsInquiry(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	recorder := &fakeRecorder{}
	srv := newTestServer(t, gen, Options{}).WithRecorder(recorder)
	h := srv.Handler()

	postChat(t, h, `{"message":"Halo kantor"}`)
	postChat(t, h, `{}`)

	if len(recorder.inquiries) != 2 {
		t.Fatalf("recorded %d inquiries, want 2", len(recorder.inquiries))
	}
	first := recorder.inquiries[0]
	if first.Status != http.StatusOK || first.MessageLen != len("Halo kantor") {
		t.Errorf("first inquiry = %+v", first)
	}
	if first.Site != "bpn-grobogan" || first.Persona != "formal" {
		t.Errorf("site/persona = %s/%s", first.Site, first.Persona)
	}
	if recorder.inquiries[1].Status != http.StatusBadRequest {
		t.Errorf("second status = %d, want 400", recorder.inquiries[1].Status)
	}
}

// =============================================================================
// AMBIENT ENDPOINT TESTS
// =============================================================================

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{}, Options{Version: "1.2.3"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	want := HealthResponse{Status: "ok", Version: "1.2.3", Site: "bpn-grobogan", Persona: "formal", Model: "gemini-2.5-flash"}
	if health != want {
		t.Errorf("health = %+v, want %+v", health, want)
	}
}

func TestHandleQuickActions(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/quick-actions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp QuickActionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Site != "bpn-grobogan" {
		t.Errorf("site = %q", resp.Site)
	}
	if len(resp.QuickActions) != 4 {
		t.Fatalf("quick actions = %d, want 4", len(resp.QuickActions))
	}
	for i, qa := range resp.QuickActions {
		if qa.Title == "" || qa.Question == "" {
			t.Errorf("quick action %d incomplete: %+v", i, qa)
		}
	}
}

func TestHandleStats(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	srv := newTestServer(t, gen, Options{})
	h := srv.Handler()

	postChat(t, h, `{"message":"a"}`)
	postChat(t, h, `{}`)
	gen.err = errors.New("boom")
	postChat(t, h, `{"message":"b"}`)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var stats StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Succeeded != 1 || stats.Rejected != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRouting_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{}, Options{})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestStart_AfterShutdown(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{}, Options{Addr: "127.0.0.1:0"})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start() = %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() kept serving after Shutdown")
	}
}

func TestServer_EndToEnd(t *testing.T) {
	gen := &fakeGenerator{reply: "Silakan datang ke loket 1."}
	srv := newTestServer(t, gen, Options{})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewBufferString(`{"message":"Di mana loket?"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Message != "Silakan datang ke loket 1." {
		t.Errorf("response = %+v", out)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}
