// Package webhook receives Jira webhooks and forwards the issue key to
// GitHub as a repository dispatch event.
package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ayerma/assistant/internal/logging"
)

// SecretHeader carries the shared secret configured on the Jira webhook.
const SecretHeader = "X-Webhook-Secret"

// DefaultPath is where Jira posts events.
const DefaultPath = "/jira-webhook"

// Dispatcher forwards an issue key to the workflow runner.
type Dispatcher interface {
	DispatchIssue(ctx context.Context, eventType, issueKey string) error
}

// Server handles Jira webhook deliveries.
type Server struct {
	dispatcher Dispatcher
	secret     []byte
	eventType  string
	logger     *slog.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// ServerConfig holds configuration for the webhook server.
type ServerConfig struct {
	Dispatcher Dispatcher
	// Secret, when set, must match the X-Webhook-Secret header.
	Secret    string
	EventType string
	Path      string
	Logger    *slog.Logger
}

// NewServer creates a new webhook server.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		dispatcher: cfg.Dispatcher,
		eventType:  cfg.EventType,
		logger:     logging.OrDiscard(cfg.Logger),
		mux:        http.NewServeMux(),
	}
	if cfg.Secret != "" {
		s.secret = []byte(cfg.Secret)
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	s.mux.HandleFunc(path, s.handleJiraWebhook)
	s.mux.HandleFunc("/health", s.handleHealth)

	return s
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("webhook server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// payload is the part of a Jira delivery we read. Jira sends issue.key; a
// bare key field is accepted for manual triggers.
type payload struct {
	Issue *struct {
		Key string `json:"key"`
	} `json:"issue"`
	Key string `json:"key"`
}

func (p payload) issueKey() string {
	if p.Issue != nil && strings.TrimSpace(p.Issue.Key) != "" {
		return strings.TrimSpace(p.Issue.Key)
	}
	return strings.TrimSpace(p.Key)
}

// handleJiraWebhook handles POST /jira-webhook.
func (s *Server) handleJiraWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if s.secret != nil && !hmac.Equal([]byte(r.Header.Get(SecretHeader)), s.secret) {
		s.logger.Warn("webhook rejected: secret mismatch", "remote", r.RemoteAddr)
		writeText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		writeText(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer func() { _ = r.Body.Close() }()

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	key := p.issueKey()
	if key == "" {
		writeText(w, http.StatusBadRequest, "Could not determine issue key from payload")
		return
	}

	if err := s.dispatcher.DispatchIssue(r.Context(), s.eventType, key); err != nil {
		s.logger.Error("dispatch failed", "key", key, "error", err)
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	s.logger.Info("dispatched workflow", "key", key, "event", s.eventType)
	writeText(w, http.StatusAccepted, "Dispatched GitHub workflow for "+key)
}

// handleHealth handles GET /health for load balancer checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}
