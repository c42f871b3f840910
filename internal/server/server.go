package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/transform"
)

// Server is the local server that exposes the derived datasets as JSON.
// Every request reloads the project and recomputes from its inputs.
type Server struct {
	projectPath string
	port        int
	logger      *zap.Logger
}

// New creates a server for the given project directory. A nil logger
// disables logging.
func New(projectPath string, port int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		projectPath: projectPath,
		port:        port,
		logger:      logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/project", s.handleProject)
	mux.HandleFunc("GET /api/state-genre", s.handleStateGenre)
	mux.HandleFunc("GET /api/state-year", s.handleStateYear)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return mux
}

// Start launches the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("festivals server starting",
		zap.String("url", fmt.Sprintf("http://localhost%s", srv.Addr)),
		zap.String("project", s.projectPath))

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("festivals server stopping")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) compute(steps transform.Steps) (*transform.Output, error) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return transform.Run(p, steps)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Festival Footprint</title></head>
<body style="font-family:system-ui;max-width:40em;margin:3em auto">
<h1>Festival Footprint</h1>
<ul>
<li><a href="/api/project">/api/project</a></li>
<li><a href="/api/state-genre">/api/state-genre</a></li>
<li><a href="/api/state-year">/api/state-year</a></li>
<li><a href="/api/validation">/api/validation</a></li>
</ul>
</body></html>`)
}

func (s *Server) handleProject(w http.ResponseWriter, _ *http.Request) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStateGenre(w http.ResponseWriter, _ *http.Request) {
	out, err := s.compute(transform.Steps{Genre: true})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"result":     out.StateGenre,
		"validation": out.Report,
	})
}

func (s *Server) handleStateYear(w http.ResponseWriter, _ *http.Request) {
	out, err := s.compute(transform.Steps{Years: true})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"result":     out.StateYear,
		"validation": out.Report,
	})
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	out, err := s.compute(transform.All)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out.Report)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
