// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/api"
	"github.com/jeranaias/kantah-chat/internal/chat"
	"github.com/jeranaias/kantah-chat/internal/config"
	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/prompt"
	"github.com/jeranaias/kantah-chat/internal/server"
	"github.com/jeranaias/kantah-chat/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"GEMINI_API_KEY", "KANTAH_SERVER_URL", "KANTAH_SITE", "KANTAH_PERSONA", "KANTAH_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp()
	app.Out = &out
	app.Err = &errOut

	root := app.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

// chatServer answers POST /api/chat with the given status and envelope.
func chatServer(t *testing.T, status int, envelope string, got *api.ChatRequest) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, envelope)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "kantah "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestAskCommand(t *testing.T) {
	isolateEnv(t)
	var got api.ChatRequest
	ts := chatServer(t, http.StatusOK, `{"message":"Buka pukul 08.00","success":true}`, &got)
	cfgPath := writeConfig(t, fmt.Sprintf("[client]\nserver_url = %q\n", ts.URL))

	out, err := runCLI(t, "--config", cfgPath, "ask", "Apa", "jam", "operasional?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(out, "Buka pukul 08.00") {
		t.Errorf("output = %q", out)
	}
	if got.Message != "Apa jam operasional?" {
		t.Errorf("sent message = %q", got.Message)
	}
}

func TestAskCommand_WithImage(t *testing.T) {
	isolateEnv(t)
	var got api.ChatRequest
	ts := chatServer(t, http.StatusOK, `{"message":"Itu sertifikat","success":true}`, &got)
	cfgPath := writeConfig(t, fmt.Sprintf("[client]\nserver_url = %q\n", ts.URL))

	img := filepath.Join(t.TempDir(), "foto.png")
	if err := os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n\x00\x00"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "--config", cfgPath, "ask", "--image", img); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got.Message != "" || len(got.Images) != 1 || got.Images[0].MimeType != "image/png" {
		t.Errorf("request = %+v", got)
	}
}

func TestAskCommand_ServerError(t *testing.T) {
	isolateEnv(t)
	ts := chatServer(t, http.StatusInternalServerError, `{"error":"Failed to generate response","success":false}`, nil)
	cfgPath := writeConfig(t, fmt.Sprintf("[client]\nserver_url = %q\n", ts.URL))

	_, err := runCLI(t, "--config", cfgPath, "ask", "halo")
	if err == nil || !strings.Contains(err.Error(), "Failed to generate response") {
		t.Fatalf("err = %v", err)
	}
	if ExitCode(err) != ExitGeneralError {
		t.Errorf("exit code = %d", ExitCode(err))
	}
}

func TestAskCommand_Empty(t *testing.T) {
	isolateEnv(t)
	_, err := runCLI(t, "--config", writeConfig(t, ""), "ask")
	if ExitCode(err) != ExitUsageError {
		t.Errorf("exit code = %d, err = %v", ExitCode(err), err)
	}
}

func TestAskCommand_Unreachable(t *testing.T) {
	isolateEnv(t)
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := runCLI(t, "--config", writeConfig(t, ""), "ask", "--server", url, "halo")
	if ExitCode(err) != ExitNetworkError {
		t.Errorf("exit code = %d, err = %v", ExitCode(err), err)
	}
}

func TestServeRequiresAPIKey(t *testing.T) {
	isolateEnv(t)
	_, err := runCLI(t, "--config", writeConfig(t, ""), "serve")
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("err = %v", err)
	}
	if ExitCode(err) != ExitConfigError {
		t.Errorf("exit code = %d", ExitCode(err))
	}
}

func TestInvalidConfig(t *testing.T) {
	isolateEnv(t)
	_, err := runCLI(t, "--config", writeConfig(t, "[assistant]\nsite = \"nowhere\"\n"), "config", "show")
	if ExitCode(err) != ExitConfigError {
		t.Errorf("exit code = %d, err = %v", ExitCode(err), err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "kantah.toml")

	// init runs before the file exists; point setup at a valid empty file.
	app := NewApp()
	var out bytes.Buffer
	app.Out = &out
	app.configPath = path
	if err := app.runConfigInit(false); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := app.runConfigInit(false); ExitCode(err) != ExitUsageError {
		t.Errorf("second init should refuse, got %v", err)
	}

	shown, err := runCLI(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(shown, "bpn-grobogan") {
		t.Errorf("show output = %q", shown)
	}

	p, err := runCLI(t, "--config", path, "config", "path")
	if err != nil || strings.TrimSpace(p) != path {
		t.Errorf("path = %q, %v", p, err)
	}
}

func TestInquiriesCommand(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "inquiries.db")

	log, err := storage.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, status := range []int{200, 200, 500} {
		err := log.Record(ctx, storage.Inquiry{
			CreatedAt:  time.Now(),
			Site:       "bpn-grobogan",
			Persona:    "formal",
			MessageLen: 20,
			Status:     status,
			Latency:    150 * time.Millisecond,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	log.Close()

	cfgPath := writeConfig(t, fmt.Sprintf("[storage]\npath = %q\n", dbPath))
	out, err := runCLI(t, "--config", cfgPath, "inquiries", "--json", "-n", "2")
	if err != nil {
		t.Fatalf("inquiries: %v", err)
	}

	var report struct {
		Stats  storage.Stats     `json:"stats"`
		Recent []storage.Inquiry `json:"recent"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Stats.Total != 3 || report.Stats.Succeeded() != 2 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if len(report.Recent) != 2 {
		t.Errorf("recent = %d, want 2", len(report.Recent))
	}
}

func TestInquiriesCommand_Missing(t *testing.T) {
	isolateEnv(t)
	cfgPath := writeConfig(t, fmt.Sprintf("[storage]\npath = %q\n", filepath.Join(t.TempDir(), "none.db")))
	_, err := runCLI(t, "--config", cfgPath, "inquiries")
	if ExitCode(err) != ExitConfigError {
		t.Errorf("exit code = %d, err = %v", ExitCode(err), err)
	}
}

type nopGenerator struct{}

func (nopGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	return "", nil
}

func TestServeUntilDone_CancelledBeforeStart(t *testing.T) {
	site, err := knowledge.LookupSite("bpn-grobogan")
	if err != nil {
		t.Fatal(err)
	}
	persona, err := knowledge.LookupPersona("formal")
	if err != nil {
		t.Fatal(err)
	}
	store, err := knowledge.NewStore(site, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		srv := server.New(server.Options{Addr: "127.0.0.1:0"}, nopGenerator{}, prompt.NewAssembler(persona, site), store)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		go func() { done <- serveUntilDone(ctx, srv, zap.NewNop()) }()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("run %d: serveUntilDone() = %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d: serveUntilDone did not return after cancellation", i)
		}
	}
}

// =============================================================================
// PLAIN CHAT
// =============================================================================

type scriptedReader struct {
	lines []string
}

func (r *scriptedReader) ReadInput(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() {}

type recordingSender struct {
	requests []api.ChatRequest
}

func (s *recordingSender) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	s.requests = append(s.requests, req)
	return &api.ChatResponse{Message: "jawaban " + req.Message, Success: true, StatusCode: 200}, nil
}

func TestPlainChatLoop(t *testing.T) {
	site, err := knowledge.LookupSite("bpn-grobogan")
	if err != nil {
		t.Fatal(err)
	}
	sender := &recordingSender{}
	session := chat.NewSession(sender)
	session.SetQuickActions(site.QuickActions)

	input := &scriptedReader{lines: []string{"1", "", "Berapa biayanya?", "/history", "/new", "/quit", "never read"}}
	var out bytes.Buffer
	if err := plainChatLoop(context.Background(), &out, input, session, site.Name); err != nil {
		t.Fatalf("loop: %v", err)
	}

	if len(sender.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(sender.requests))
	}
	if sender.requests[0].Message != site.QuickActions[0].Question {
		t.Errorf("quick action sent %q", sender.requests[0].Message)
	}
	if !strings.Contains(out.String(), "jawaban Berapa biayanya?") {
		t.Errorf("reply not printed: %q", out.String())
	}
	if !session.IsEmpty() {
		t.Error("/new should clear the session")
	}
	if len(input.lines) != 1 {
		t.Error("/quit should stop reading input")
	}
}

func TestPlainChatLoop_Attach(t *testing.T) {
	sender := &recordingSender{}
	session := chat.NewSession(sender)

	doc := filepath.Join(t.TempDir(), "surat.pdf")
	if err := os.WriteFile(doc, []byte("%PDF-1.4\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	input := &scriptedReader{lines: []string{"/attach " + doc, "", "/attach " + doc + ".missing"}}
	var out bytes.Buffer
	if err := plainChatLoop(context.Background(), &out, input, session, "Tes"); err != nil {
		t.Fatal(err)
	}
	if len(sender.requests) != 1 || len(sender.requests[0].Images) != 1 {
		t.Fatalf("requests = %+v", sender.requests)
	}
	if sender.requests[0].Images[0].MimeType != "application/pdf" {
		t.Errorf("mime = %q", sender.requests[0].Images[0].MimeType)
	}
}

// =============================================================================
// HELPERS TESTS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("x"), ExitGeneralError},
		{config.ErrMissingAPIKey, ExitConfigError},
		{fmt.Errorf("wrap: %w", config.ValidateErrors{{Field: "a", Message: "b"}}), ExitConfigError},
		{NetworkError("ask", "http://x", errors.New("refused")), ExitNetworkError},
		{&CommandError{Command: "c", Action: "a", Reason: "r"}, ExitGeneralError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := WrapText("satu dua tiga empat lima enam", 14)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 12 {
			t.Errorf("line %q wider than 12", line)
		}
	}
	if WrapText("pendek", 40) != "pendek" {
		t.Error("short text should be unchanged")
	}
}
