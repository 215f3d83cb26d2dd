// Package api exposes the skill registry engine over a thin REST surface.
// The server owns no registry semantics: handlers decode inputs, call the
// engine, and map its error kinds to HTTP status codes. Authentication is an
// external collaborator; the caller identity arrives as a trusted header set
// by the fronting proxy.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/registry"
	"github.com/jingkaihe/skillhub/pkg/version"
)

// IdentityHeader carries the already-authenticated caller namespace. The
// engine trusts it; validating it is the fronting auth layer's job.
const IdentityHeader = "X-Skillhub-Namespace"

// ServerConfig holds the configuration for the API server.
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server is the registry REST server.
type Server struct {
	router   *mux.Router
	registry *registry.Registry
	config   *ServerConfig
	server   *http.Server
}

// NewServer creates an API server on top of an engine instance.
func NewServer(reg *registry.Registry, config *ServerConfig) (*Server, error) {
	if reg == nil {
		return nil, errors.New("registry must not be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:   mux.NewRouter(),
		registry: reg,
		config:   config,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/namespaces/{namespace}/skills", s.handleListSkillsInNamespace).Methods("GET")
	api.HandleFunc("/namespaces/{namespace}/profile", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/namespaces/{namespace}/profile", s.handleUpdateProfile).Methods("PATCH")

	api.HandleFunc("/skills/{namespace}/{name}", s.handleGetMetadata).Methods("GET")
	api.HandleFunc("/skills/{namespace}/{name}/versions", s.handleListVersions).Methods("GET")
	api.HandleFunc("/skills/{namespace}/{name}/latest", s.handleGetLatest).Methods("GET")
	api.HandleFunc("/skills/{namespace}/{name}/versions/{version}", s.handleGetContent).Methods("GET")
	api.HandleFunc("/skills/{namespace}/{name}/versions/{version}", s.handlePublish).Methods("PUT")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	s.router.Use(s.loggingMiddleware)
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening and blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	logger.G(ctx).WithField("addr", addr).Info("starting registry API server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// loggingMiddleware logs every request with method, path, status and
// duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.status,
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
