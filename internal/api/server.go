// Package api is the HTTP surface of the application: the view controller
// of the UI is a thin client of these routes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/domain"
	"github.com/infem06/progress/internal/repository"
	"github.com/infem06/progress/internal/service"
	"github.com/infem06/progress/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	cfg    *domain.Config
	log    *logrus.Logger
	router *gin.Engine
	server *http.Server

	store     *store.Store
	patients  *repository.PatientRepository
	logs      *repository.LogRepository
	users     *repository.UserRepository
	client    domain.GenerationClient
	generator *service.LogGenerator
	drafter   *service.AssessmentDrafter
	gate      *service.SessionGate
	confirmer *service.DeleteConfirmer

	// At most one generation request may be in flight per session.
	generating atomic.Bool

	upgrader websocket.Upgrader
}

// Deps bundles the collaborators the server wires to routes.
type Deps struct {
	Store     *store.Store
	Patients  *repository.PatientRepository
	Logs      *repository.LogRepository
	Users     *repository.UserRepository
	Client    domain.GenerationClient
	Generator *service.LogGenerator
	Drafter   *service.AssessmentDrafter
	Gate      *service.SessionGate
	Confirmer *service.DeleteConfirmer
}

// NewServer creates a new HTTP server instance.
func NewServer(cfg *domain.Config, logger *logrus.Logger, deps Deps) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(corsMiddleware())

	s := &Server{
		cfg:       cfg,
		log:       logger,
		router:    router,
		store:     deps.Store,
		patients:  deps.Patients,
		logs:      deps.Logs,
		users:     deps.Users,
		client:    deps.Client,
		generator: deps.Generator,
		drafter:   deps.Drafter,
		gate:      deps.Gate,
		confirmer: deps.Confirmer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Single-user local service; the UI may be served from another
			// local port during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.setupRoutes()
	return s
}

// Router exposes the gin engine; used by handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.WithField("addr", addr).Info("HTTP server started")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.POST("/session", s.handleLogin)

	protected := v1.Group("")
	protected.Use(s.requireSession())
	{
		protected.DELETE("/session", s.handleLogout)
		protected.GET("/dashboard", s.handleDashboard)

		protected.GET("/patients", s.handleListPatients)
		protected.POST("/patients", s.handleCreatePatient)
		protected.GET("/patients/:id", s.handleGetPatient)
		protected.PUT("/patients/:id", s.handleReplacePatient)
		protected.DELETE("/patients/:id", s.handleDeletePatient)
		protected.POST("/patients/:id/logs/generate", s.handleGenerateLogs)
		protected.POST("/patients/:id/assessments/:stage/draft", s.handleDraftAssessment)

		protected.GET("/logs", s.handleListLogs)
		protected.PUT("/logs/:id/reaction", s.handleSetReaction)
		protected.DELETE("/logs/:id", s.handleDeleteLog)

		protected.GET("/settings", s.handleGetSettings)
		protected.PUT("/settings", s.handleUpdateSettings)
		protected.POST("/settings/validate", s.handleValidateCredential)

		protected.GET("/export", s.handleExport)
		protected.POST("/import", s.handleImport)

		protected.GET("/events", s.handleEvents)
	}
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"ready":     s.client.Ready(),
	})
}

// requireSession refuses requests while the lock screen is closed.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.gate.Active() {
			s.respondError(c, http.StatusUnauthorized, domain.CodeUnauthorized, "session is locked")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, domain.NewAppError(code, message, c.GetString("request_id")))
}
