package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/pipeline"
	"github.com/sid-lpcd/travel-chrome-extension/internal/session"
	"github.com/sid-lpcd/travel-chrome-extension/internal/textsource"
)

//go:embed all:static
var staticFS embed.FS

// Server exposes the place-scout pipeline as a small web app and API.
type Server struct {
	Pipeline *pipeline.Orchestrator
	Sessions *session.Manager
	Source   *textsource.Source
	Addr     string
	Log      *zap.Logger
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	fmt.Printf("Serving at http://%s\n", s.Addr)
	return http.ListenAndServe(s.Addr, s.Handler())
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/load", s.handleLoad)
	mux.HandleFunc("/api/submit", s.handleSubmit)
	mux.HandleFunc("/api/toggle", s.handleToggle)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/results", s.handleResults)
	mux.HandleFunc("/api/capabilities", s.handleCapabilities)
	mux.HandleFunc("/api/gettext", s.handleGetText)

	staticSub, err := fs.Sub(staticFS, "static")
	if err == nil {
		mux.Handle("/", http.FileServer(http.FS(staticSub)))
	}

	return mux
}
