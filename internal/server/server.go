// Package server provides the HTTP server: the REST API, the live results websocket,
// and the annotated camera preview.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ayusman/bebas/internal/capture"
	"github.com/ayusman/bebas/internal/overlay"
	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/server/api"
	"github.com/ayusman/bebas/internal/store"
	"github.com/shirou/gopsutil/v3/process"
)

// Config holds the server configuration. Every field is optional; routes whose
// dependencies are missing are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	// Hub receives pipeline results and serves /api/results.
	Hub *Hub
	// Tap and Projector back the /api/stream preview.
	Tap       *capture.Tap
	Projector overlay.Projector
	Practice  api.Practice
	// Stats reports pipeline counters for /api/health.
	Stats func() pipeline.Stats
	// OnTemplatesChanged runs after gestures or their samples change.
	OnTemplatesChanged func()
}

// Server represents the HTTP server for the bebas application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	proc   *process.Process
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/vocabulary", api.Vocabulary)

	if s.config.Store != nil {
		gestureHandler := api.NewGestureHandler(s.config.Store, s.config.OnTemplatesChanged)
		samplesHandler := api.NewSamplesHandler(s.config.Store, s.config.OnTemplatesChanged)

		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// /api/gestures/{id}/samples
			if strings.HasSuffix(r.URL.Path, "/samples") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)

		attempts := api.NewAttemptsHandler(s.config.Store)
		s.mux.Handle("/api/attempts", attempts)
		s.mux.Handle("/api/attempts/", attempts)
	}

	if s.config.Practice != nil {
		s.mux.Handle("/api/practice", api.NewPracticeHandler(s.config.Practice))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/results", s.config.Hub)
	}

	if s.config.Tap != nil {
		var latest func() (pipeline.FrameResult, bool)
		if s.config.Hub != nil {
			latest = s.config.Hub.Latest
		}
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Tap, latest, s.config.Projector))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status     string          `json:"status"`
	Uptime     string          `json:"uptime"`
	Goroutines int             `json:"goroutines"`
	RSSBytes   uint64          `json:"rss_bytes,omitempty"`
	CPUPercent float64         `json:"cpu_percent,omitempty"`
	Clients    int             `json:"clients"`
	Pipeline   *pipeline.Stats `json:"pipeline,omitempty"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.start).String(),
		Goroutines: runtime.NumGoroutine(),
	}
	if s.proc != nil {
		if mem, err := s.proc.MemoryInfoWithContext(r.Context()); err == nil {
			response.RSSBytes = mem.RSS
		}
		if cpu, err := s.proc.CPUPercentWithContext(r.Context()); err == nil {
			response.CPUPercent = cpu
		}
	}
	if s.config.Hub != nil {
		response.Clients = s.config.Hub.Clients()
	}
	if s.config.Stats != nil {
		stats := s.config.Stats()
		response.Pipeline = &stats
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.config.Hub != nil {
			s.config.Hub.Close()
		}
		return s.http.Shutdown(shutdownCtx)
	}
}
