package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sid-lpcd/travel-chrome-extension/internal/backend"
	"github.com/sid-lpcd/travel-chrome-extension/internal/pipeline"
)

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}

	if err := s.Pipeline.Load(r.Context(), req.URL); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]any{
		"page":         s.Pipeline.Page(),
		"bounding_box": s.Pipeline.BoundingBox(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	results, rendered, err := s.Pipeline.Submit(r.Context(), req.Query)
	switch {
	case errors.Is(err, pipeline.ErrRunInFlight):
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	case errors.Is(err, pipeline.ErrMalformedModelOutput):
		http.Error(w, "the model kept producing malformed output; please retry", http.StatusBadGateway)
		return
	case err != nil:
		var unavail *backend.UnavailableError
		if errors.As(err, &unavail) {
			http.Error(w, unavail.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"results":  results,
		"response": rendered,
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !s.Pipeline.Toggle(req.ID) {
		http.Error(w, "place not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"results": s.Pipeline.Results()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Pipeline.Reset()
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"state":    s.Pipeline.State(),
		"results":  s.Pipeline.Results(),
		"response": s.Pipeline.Rendered(),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	var unavail *backend.UnavailableError
	if err := s.Sessions.EnsureReady(r.Context()); err != nil && !errors.As(err, &unavail) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.Sessions.Capabilities())
}

// handleGetText implements the page-text collaborator protocol over HTTP:
// a single {method: "getText"} request answered with cleaned text and the
// location excerpt.
func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Method string `json:"method"`
		URL    string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != "getText" || req.URL == "" {
		http.Error(w, "expected {method: \"getText\", url: ...}", http.StatusBadRequest)
		return
	}

	pt, err := s.Source.Fetch(r.Context(), req.URL)
	if err != nil && pt.Empty() {
		// The protocol degrades to an empty corpus rather than failing.
		s.Log.Warn("getText returning empty corpus")
	}

	writeJSON(w, map[string]any{
		"method":       "getText",
		"data":         pt.FullText,
		"locationText": pt.LocationExcerpt,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	// Wildcard CORS; this is a local development tool, not a public API.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(v)
}
