package telex

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"iris/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestSendDirectMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "tk", Logger: testLogger()})
	if err := c.SendDirectMessage(context.Background(), "u7", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer tk" {
		t.Errorf("unexpected auth: %s", gotAuth)
	}
	if gotBody["type"] != "direct_message" || gotBody["recipient_id"] != "u7" || gotBody["content"] != "hello" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestPostChannelMessage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "tk", Logger: testLogger()})
	if err := c.PostChannelMessage(context.Background(), "ch-42", "hi"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if gotPath != "/v1/channels/ch-42/messages" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestSendDirectMessage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "tk", Logger: testLogger()})
	err := c.SendDirectMessage(context.Background(), "u7", "hello")
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestSendDirectMessage_Unreachable(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", APIKey: "tk", Logger: testLogger()})
	err := c.SendDirectMessage(context.Background(), "u7", "hello")
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed, got %v", err)
	}
}
