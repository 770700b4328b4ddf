package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// ThreadCreatedEvent is delivered when a new root thread appears.
type ThreadCreatedEvent struct {
	ThreadID  string    `json:"threadId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReplyCreatedEvent is delivered for every new reply.
type ReplyCreatedEvent struct {
	ReplyID   string    `json:"replyId"`
	ParentID  string    `json:"parentId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// HTTPServer receives trigger-platform webhooks. Events are processed
// best effort: a failed invocation is logged, never retried, and never
// reported back to the platform.
type HTTPServer struct {
	service *Service
}

func NewHTTPServer(service *Service) *HTTPServer {
	return &HTTPServer{service: service}
}

func (s *HTTPServer) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/events/thread-created" {
		s.handleThreadCreated(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/events/reply-created" {
		s.handleReplyCreated(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/events/upgrade" {
		s.handleUpgrade(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleThreadCreated(w http.ResponseWriter, r *http.Request) {
	var event ThreadCreatedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.ThreadID == "" {
		writeError(w, http.StatusBadRequest, "BAD_EVENT", "Malformed thread-created event")
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := s.service.OpenSession(r.Context(), event.ThreadID, event.CreatedAt); err != nil {
		log.Printf("app: thread-created %s: %v", event.ThreadID, err)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReplyCreated(w http.ResponseWriter, r *http.Request) {
	var event ReplyCreatedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.ReplyID == "" || event.ParentID == "" {
		writeError(w, http.StatusBadRequest, "BAD_EVENT", "Malformed reply-created event")
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := s.service.RecordVote(r.Context(), event.ReplyID, event.ParentID, event.Body, event.CreatedAt); err != nil {
		log.Printf("app: reply-created %s: %v", event.ReplyID, err)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *HTTPServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if err := s.service.EnsureReconcileJob(r.Context()); err != nil {
		log.Printf("app: upgrade: %v", err)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("app: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}
