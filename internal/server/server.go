// Package server is the HTTP surface of the agent: webhook ingestion, the
// discovery card, and the JSON-RPC endpoint. It does synchronous gating only
// and leaves all heavy work to the pipeline worker.
package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"iris/internal/domain"
	"iris/internal/pipeline"
)

// Config configures the HTTP server.
type Config struct {
	Host     string
	Port     int
	Secret   string // HMAC secret for webhook signature verification
	Identity Identity
	Pipeline *pipeline.Pipeline
	Store    domain.DedupStore
	Logger   *slog.Logger
}

type Server struct {
	host     string
	port     int
	secret   string
	identity Identity
	pipeline *pipeline.Pipeline
	store    domain.DedupStore
	logger   *slog.Logger
	server   *http.Server
}

func New(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 5001
	}
	if len(cfg.Identity.Capabilities) == 0 {
		cfg.Identity.Capabilities = DefaultCapabilities
	}
	return &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		secret:   cfg.Secret,
		identity: cfg.Identity,
		pipeline: cfg.Pipeline,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}
}

// Router builds the HTTP routing table. Split out for handler tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/.well-known/agent.json", s.handleAgentCard).Methods("GET")
	r.HandleFunc("/a2a/jsonrpc", s.handleJSONRPC).Methods("POST")
	r.HandleFunc("/webhook/events", s.handleWebhookEvent).Methods("POST")
	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	// The discovery card is fetched cross-origin by the platform.
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Signature-256"},
		MaxAge:         300,
	})
	return c.Handler(r)
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// handleAgentCard serves the discovery card the platform fetches to learn
// about this agent.
func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(s.identity.PublicURL, "/")
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           s.identity.ID,
		"name":         s.identity.Name,
		"description":  s.identity.Description,
		"url":          s.identity.PublicURL,
		"capabilities": s.identity.Capabilities,
		"endpoints": map[string]string{
			"a2a":    base + "/a2a/jsonrpc",
			"events": base + "/webhook/events",
		},
	})
}

// handleWebhookEvent is the entry point for platform notifications
// (message.created etc). Gating happens synchronously; accepted events are
// queued for the pipeline worker before the acknowledgment is written.
func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Verify HMAC signature if a secret is configured.
	if s.secret != "" {
		sig := r.Header.Get("X-Signature-256")
		if sig == "" {
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}
		if !verifyHMAC(body, s.secret, sig) {
			http.Error(w, "Invalid signature", http.StatusForbidden)
			return
		}
	}

	var event domain.Event
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if event.MessageID == "" || event.AuthorID == "" {
		http.Error(w, "message_id and author_id are required", http.StatusBadRequest)
		return
	}

	s.logger.Info("webhook event received",
		"event_type", event.EventType,
		"message_id", event.MessageID,
		"channel", event.Channel(),
		"content_len", len(event.Content),
	)

	outcome := s.pipeline.Handle(r.Context(), event)

	status := http.StatusOK
	if outcome.Accepted() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]string{"status": string(outcome)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.HasSeen(r.Context(), "healthz-probe"); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "dedup": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB max
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// verifyHMAC verifies the HMAC-SHA256 signature of the body.
func verifyHMAC(body []byte, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
