// Package httpapi is the cloud front end: each request carries the whole
// conversation and gets one answer back as plain text.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"frieddie/internal/chat"
)

// FailureBody is sent with every 500. Details go to the log only.
const FailureBody = "Oh no! Something went wrong."

const maxBodyBytes = 1 << 20

// Responder answers one turn. mwCtx carries per-request middleware knobs
// such as "token_budget".
type Responder interface {
	RespondWithContext(ctx context.Context, t *chat.Transcript, input string, mwCtx map[string]any) (string, error)
}

type Server struct {
	responder    Responder
	addr         string
	systemPrompt string
	turnTimeout  time.Duration
	logger       *log.Logger
}

type Option func(*Server)

func WithSystemPrompt(p string) Option {
	return func(s *Server) { s.systemPrompt = p }
}

// WithTurnTimeout bounds a whole request, all model calls included.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.turnTimeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(responder Responder, addr string, opts ...Option) *Server {
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{
		responder:    responder,
		addr:         addr,
		systemPrompt: chat.DefaultSystemPrompt,
		turnTimeout:  5 * time.Minute,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

// ListenAndServe blocks until ctx is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Println("[HTTP] Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("[HTTP] Listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

type ChatRequest struct {
	Messages []chat.Message `json:"messages"`
	Message  string         `json:"message,omitempty"`

	// TokenBudget caps MaxTokens for every model call of this request.
	TokenBudget int `json:"token_budget,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.TokenBudget < 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	t := chat.NewTranscript(s.systemPrompt)
	if err := t.AppendHistory(req.Messages); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	turnCtx, cancel := context.WithTimeout(r.Context(), s.turnTimeout)
	defer cancel()

	var mwCtx map[string]any
	if req.TokenBudget > 0 {
		mwCtx = map[string]any{"token_budget": req.TokenBudget}
	}

	reply, err := s.responder.RespondWithContext(turnCtx, t, req.Message, mwCtx)
	if err != nil {
		s.logger.Printf("[HTTP] session=%s chat failed: %v", t.ID(), err)
		writeText(w, http.StatusInternalServerError, FailureBody)
		return
	}
	writeText(w, http.StatusOK, reply)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]any{
		"status": "online",
		"time":   time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}
