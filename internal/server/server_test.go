package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"iris/internal/dedup"
	"iris/internal/pipeline"
	"iris/internal/summarize"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type nullMessenger struct{}

func (nullMessenger) SendDirectMessage(context.Context, string, string) error  { return nil }
func (nullMessenger) PostChannelMessage(context.Context, string, string) error { return nil }

func newTestServer(t *testing.T, secret string) *Server {
	t.Helper()
	store := dedup.NewMemoryStore(7 * 24 * time.Hour)
	p := pipeline.New(pipeline.Config{
		Store:     store,
		Fallback:  summarize.NewHeuristic(),
		Messenger: nullMessenger{},
		Logger:    testLogger(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	t.Cleanup(cancel)

	return New(Config{
		Secret: secret,
		Identity: Identity{
			ID:          "iris-agent",
			Name:        "Iris",
			Description: "detects tasks",
			PublicURL:   "https://iris.example.com",
		},
		Pipeline: p,
		Store:    store,
		Logger:   testLogger(),
	})
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func eventBody(messageID string) map[string]string {
	return map[string]string{
		"event_type": "message.created",
		"message_id": messageID,
		"channel_id": "ch-1",
		"author_id":  "u7",
		"content":    "please implement the export feature by June 10",
		"timestamp":  "2025-06-01T10:00:00Z",
	}
}

// --- agent card ---

func TestAgentCard(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest("GET", "/.well-known/agent.json", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var card map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatal(err)
	}
	if card["id"] != "iris-agent" || card["name"] != "Iris" {
		t.Errorf("unexpected card identity: %v", card)
	}
	endpoints, _ := card["endpoints"].(map[string]any)
	if endpoints["events"] != "https://iris.example.com/webhook/events" {
		t.Errorf("unexpected events endpoint: %v", endpoints)
	}
	if caps, _ := card["capabilities"].([]any); len(caps) != 2 {
		t.Errorf("expected default capabilities, got %v", card["capabilities"])
	}
}

// --- webhook ---

func TestWebhook_Accepted(t *testing.T) {
	s := newTestServer(t, "")
	rec := postJSON(t, s.Router(), "/webhook/events", eventBody("m1"))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "accepted" {
		t.Errorf("unexpected status: %v", resp)
	}
}

func TestWebhook_DuplicateAlreadySeen(t *testing.T) {
	s := newTestServer(t, "")
	router := s.Router()
	postJSON(t, router, "/webhook/events", eventBody("m1"))

	rec := postJSON(t, router, "/webhook/events", eventBody("m1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored outcome, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ignored-already-seen" {
		t.Errorf("unexpected status: %v", resp)
	}
}

func TestWebhook_WrongEventType(t *testing.T) {
	s := newTestServer(t, "")
	body := eventBody("m2")
	body["event_type"] = "message.deleted"
	rec := postJSON(t, s.Router(), "/webhook/events", body)

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ignored-event-type" {
		t.Errorf("unexpected status: %v", resp)
	}
}

func TestWebhook_NonTaskContent(t *testing.T) {
	s := newTestServer(t, "")
	body := eventBody("m3")
	body["content"] = "hello there"
	rec := postJSON(t, s.Router(), "/webhook/events", body)

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ignored-no-task-like-pattern" {
		t.Errorf("unexpected status: %v", resp)
	}
}

func TestWebhook_MissingRequiredFields(t *testing.T) {
	s := newTestServer(t, "")
	rec := postJSON(t, s.Router(), "/webhook/events", map[string]string{"content": "please review"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_InvalidJSON(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest("POST", "/webhook/events", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_SignatureRequired(t *testing.T) {
	s := newTestServer(t, "sekret")
	rec := postJSON(t, s.Router(), "/webhook/events", eventBody("m1"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without signature, got %d", rec.Code)
	}
}

func TestWebhook_ValidSignature(t *testing.T) {
	s := newTestServer(t, "sekret")
	data, _ := json.Marshal(eventBody("m1"))

	mac := hmac.New(sha256.New, []byte("sekret"))
	mac.Write(data)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest("POST", "/webhook/events", bytes.NewReader(data))
	req.Header.Set("X-Signature-256", sig)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202 with valid signature, got %d", rec.Code)
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	s := newTestServer(t, "sekret")
	data, _ := json.Marshal(eventBody("m1"))

	req := httptest.NewRequest("POST", "/webhook/events", bytes.NewReader(data))
	req.Header.Set("X-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 with bad signature, got %d", rec.Code)
	}
}

// --- JSON-RPC ---

func TestJSONRPC_AgentInfo(t *testing.T) {
	s := newTestServer(t, "")
	rec := postJSON(t, s.Router(), "/a2a/jsonrpc", map[string]any{
		"jsonrpc": "2.0", "id": "1", "method": "agent.info",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	result, _ := resp["result"].(map[string]any)
	if result["name"] != "Iris" {
		t.Errorf("unexpected result: %v", resp)
	}
	if resp["id"] != "1" {
		t.Errorf("response should echo the request id, got %v", resp["id"])
	}
}

func TestJSONRPC_UnknownMethod(t *testing.T) {
	s := newTestServer(t, "")
	rec := postJSON(t, s.Router(), "/a2a/jsonrpc", map[string]any{
		"jsonrpc": "2.0", "id": "2", "method": "agent.destroy",
	})

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	errObj, _ := resp["error"].(map[string]any)
	if errObj == nil || errObj["code"].(float64) != -32601 {
		t.Errorf("expected method-not-found error, got %v", resp)
	}
}

func TestJSONRPC_ParseError(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest("POST", "/a2a/jsonrpc", bytes.NewReader([]byte("nope")))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	errObj, _ := resp["error"].(map[string]any)
	if errObj == nil || errObj["code"].(float64) != -32700 {
		t.Errorf("expected parse error, got %v", resp)
	}
}

// --- healthz ---

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// --- identity overrides ---

func TestLoadIdentityFile_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	content := "name: Iris-Staging\ncapabilities:\n  - task-summary\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	base := Identity{ID: "iris-agent", Name: "Iris", PublicURL: "https://iris.example.com"}
	got, err := LoadIdentityFile(path, base, testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "Iris-Staging" {
		t.Errorf("expected override name, got %s", got.Name)
	}
	if got.ID != "iris-agent" {
		t.Errorf("unset fields should keep base values, got %s", got.ID)
	}
	if len(got.Capabilities) != 1 {
		t.Errorf("expected overridden capabilities, got %v", got.Capabilities)
	}
}

func TestLoadIdentityFile_Missing(t *testing.T) {
	base := Identity{ID: "iris-agent", Name: "Iris"}
	got, err := LoadIdentityFile(filepath.Join(t.TempDir(), "nope.yaml"), base, testLogger())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if got.ID != base.ID || got.Name != base.Name {
		t.Errorf("expected base identity unchanged, got %+v", got)
	}
}
