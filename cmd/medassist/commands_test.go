package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2339036/medication-adherence-system/internal/config"
	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/intent"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"message":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

type chatBody struct {
	Message             string        `json:"message"`
	ConversationHistory []intent.Turn `json:"conversationHistory"`
}

func TestSendChat(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/chatbot/chat": `{"type":"TEXT","message":"Hello!","reply":"Hello!"}`,
	})

	reply, err := sendChat(ctx, ts.client(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Message != "Hello!" {
		t.Errorf("message = %q, want Hello!", reply.Message)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
	var body chatBody
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body.Message != "hi" {
		t.Errorf("body.message = %q, want hi", body.Message)
	}
}

func TestRunChat_KeepsHistory(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	ts := newTestServer(t, map[string]string{
		"POST /api/chatbot/chat": `{"type":"NAVIGATE","route":"/adherence","message":"Opening your adherence history.","reply":"Opening your adherence history."}`,
	})

	in := strings.NewReader("show my history\nagain\n")
	var out bytes.Buffer
	if err := runChat(ctx, ts.client(), in, &out); err != nil {
		t.Fatalf("runChat: %v", err)
	}

	if len(ts.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ts.requests))
	}

	var first, second chatBody
	json.Unmarshal([]byte(ts.requests[0].Body), &first)
	json.Unmarshal([]byte(ts.requests[1].Body), &second)

	if len(first.ConversationHistory) != 0 {
		t.Errorf("first turn history = %d turns, want 0", len(first.ConversationHistory))
	}
	if len(second.ConversationHistory) != 2 {
		t.Fatalf("second turn history = %d turns, want 2", len(second.ConversationHistory))
	}
	user, bot := second.ConversationHistory[0], second.ConversationHistory[1]
	if user.Speaker != intent.User || user.Text != "show my history" {
		t.Errorf("user turn = %+v", user)
	}
	if bot.Speaker != intent.Bot || bot.Action == nil || bot.Action.Route != "/adherence" {
		t.Errorf("bot turn = %+v", bot)
	}

	if got := strings.Count(out.String(), "→ open /adherence"); got != 2 {
		t.Errorf("navigation hint printed %d times, want 2\n%s", got, out.String())
	}
}

func TestRunChat_BlankLineQuits(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	var out bytes.Buffer
	if err := runChat(ctx, ts.client(), strings.NewReader("\nignored\n"), &out); err != nil {
		t.Fatalf("runChat: %v", err)
	}
	if len(ts.requests) != 0 {
		t.Errorf("expected no requests, got %d", len(ts.requests))
	}
}

func TestRunChat_ServerError(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	var out bytes.Buffer
	err := runChat(ctx, ts.client(), strings.NewReader("hello\n"), &out)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want it to carry the body message", err.Error())
	}
}

func TestAPIClient_NoTokenNoHeader(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = ""
	resp, err := client.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := ts.requests[0].Auth; got != "" {
		t.Errorf("auth = %q, want empty", got)
	}
}

func TestAPIClient_Unreachable(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"message":"Access denied. No token provided."}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	resp, err := client.get(ctx, "/api/medications")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Access denied") {
		t.Errorf("error = %q, want status and message", err.Error())
	}
}

func TestProbeHealth(t *testing.T) {
	ok := newTestServer(t, map[string]string{"GET /health": `{"status":"ok"}`})
	if err := probeHealth(ok.server.URL + "/health"); err != nil {
		t.Errorf("healthy server: %v", err)
	}

	missing := newTestServer(t, map[string]string{})
	if err := probeHealth(missing.server.URL + "/health"); err == nil {
		t.Error("expected error for 404 health")
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "test message"); got != "test message" {
		t.Errorf("result = %q, want %q", got, "test message")
	}

	noColor = false
	if got := colorize(colorGreen, "test message"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", got)
	}
}

func TestPrintReply(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	var buf bytes.Buffer
	printReply(&buf, "Your next dose is at 20:00.", "")
	if buf.String() != "assistant: Your next dose is at 20:00.\n" {
		t.Errorf("text reply = %q", buf.String())
	}

	buf.Reset()
	printReply(&buf, "Opening your medications.", "/medications")
	if !strings.Contains(buf.String(), "→ open /medications") {
		t.Errorf("navigate reply = %q", buf.String())
	}
}

func TestPointAtDevstack(t *testing.T) {
	cfg := config.Config{}
	cfg.DevStack.Port = 6010
	pointAtDevstack(&cfg)

	if cfg.Services.MedicationsURL != "http://127.0.0.1:6010/api/medications" {
		t.Errorf("medications = %q", cfg.Services.MedicationsURL)
	}
	if cfg.Services.NotificationsURL != "http://127.0.0.1:6010/api/notifications" {
		t.Errorf("notifications = %q", cfg.Services.NotificationsURL)
	}
	if cfg.Services.AdherenceURL != "http://127.0.0.1:6010/api/adherence" {
		t.Errorf("adherence = %q", cfg.Services.AdherenceURL)
	}
}

func TestLoadKnowledgeBase(t *testing.T) {
	kb, err := loadKnowledgeBase("")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if len(kb.Entries()) != len(faq.Default().Entries()) {
		t.Error("empty path should give the built-in knowledge base")
	}

	if _, err := loadKnowledgeBase(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListFAQ(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	kb, err := faq.New([]faq.Entry{{Triggers: []string{"reset password"}, Answer: "Use the login page."}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	listFAQ(&buf, kb)
	want := "1. reset password\n   Use the login page.\n"
	if buf.String() != want {
		t.Errorf("listFAQ = %q, want %q", buf.String(), want)
	}
}

func TestWriteConfig(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	cfg := config.Config{}
	cfg.Server.Port = 4000

	var buf bytes.Buffer
	writeConfig(&buf, cfg)
	if !strings.Contains(buf.String(), "server.port = 4000  (MEDASSIST_SERVER_PORT)") {
		t.Errorf("config output missing server.port:\n%s", buf.String())
	}
}
