// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/scribe-ai/scribe/internal/schema"
)

// maxRequestBytes caps the analyze request body. Large documents should be
// chunked by the caller.
const maxRequestBytes = 1 << 20

// Analyzer is the part of the pipeline the HTTP layer depends on.
type Analyzer interface {
	Analyze(ctx context.Context, text string, useLLM bool) (*schema.Response, error)
}

// Server wraps the HTTP components for Scribe.
type Server struct {
	mux      *http.ServeMux
	analyzer Analyzer
}

// New creates a server with all routes registered.
func New(analyzer Analyzer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		analyzer: analyzer,
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/analyze", s.handleAnalyze)

	return s
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	log.Printf("Scribe running on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

type analyzeRequest struct {
	Text   string `json:"text"`
	UseLLM bool   `json:"use_llm"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var reqBody analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "invalid_request_error")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request_error")
		return
	}

	resp, err := s.analyzer.Analyze(r.Context(), reqBody.Text, reqBody.UseLLM)
	if err != nil {
		log.Printf("analyze failed: %v", err)
		writeError(w, http.StatusInternalServerError, "analysis failed", "internal_error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to write analyze response: %v", err)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// writeError writes an error JSON envelope.
func writeError(w http.ResponseWriter, status int, message, typ string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Message: message,
			Type:    typ,
		},
	})
}
