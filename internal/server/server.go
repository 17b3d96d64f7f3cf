// Package server exposes the extraction pipeline and roster generation
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/physioform/internal/document"
	"github.com/ppiankov/physioform/internal/llm"
	"github.com/ppiankov/physioform/internal/model"
	"github.com/ppiankov/physioform/internal/pipeline"
)

const maxBodyBytes = 1 << 20

// Info describes the running service on the index endpoint
type Info struct {
	Version     string
	Environment string
	Provider    string
	Model       string
}

// Server is the HTTP API
type Server struct {
	orchestrator *pipeline.Orchestrator
	documents    *document.Generator
	setup        func() llm.SetupGuide
	config       model.ServerConfig
	info         Info
	logger       *zap.Logger
	router       chi.Router
}

// New builds the server and its routes. setup may be nil when setup help
// is not available.
func New(orchestrator *pipeline.Orchestrator, documents *document.Generator, setup func() llm.SetupGuide, config model.ServerConfig, info Info) *Server {
	if documents == nil {
		documents = document.NewGenerator()
	}
	if setup == nil {
		setup = func() llm.SetupGuide { return llm.Setup(llm.Config{}) }
	}

	s := &Server{
		orchestrator: orchestrator,
		documents:    documents,
		setup:        setup,
		config:       config,
		info:         info,
		logger:       zap.L().Named("server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Post("/process-text", s.handleProcessText)
	r.Post("/generate-document", s.handleGenerateDocument)
	r.Get("/health", s.handleHealth)
	r.Get("/setup-help", s.handleSetupHelp)

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- eris.Wrap(err, "server listen")
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return <-errCh
}
