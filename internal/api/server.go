// Package api exposes the triage pipeline over HTTP: uploads of E2B(R3) XML
// documents come back as the assessed output table.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/config"
	"github.com/icsr-triage-engine/internal/domain"
	"github.com/icsr-triage-engine/internal/export"
	"github.com/icsr-triage-engine/internal/middleware"
	"github.com/icsr-triage-engine/internal/pipeline"
)

// maxUploadBytes bounds a single multipart upload.
const maxUploadBytes = 64 << 20

// HealthChecker reports backend readiness for the health endpoint.
type HealthChecker func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	cfg    config.ServerConfig
	runner *pipeline.BatchRunner
	health HealthChecker
	logger *logrus.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance. health may be nil when the
// reference backend has no connection to probe.
func NewServer(cfg config.Config, runner *pipeline.BatchRunner, health HealthChecker, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	if cfg.Server.RateLimit > 0 {
		router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}

	server := &Server{
		cfg:    cfg.Server,
		runner: runner,
		health: health,
		logger: logger,
		router: router,
	}
	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("Triage API listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/triage", s.handleTriage)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			resp["status"] = "unhealthy"
			resp["code"] = domain.ErrCodeReferenceData
			resp["error"] = err.Error()
		}
	}

	c.JSON(status, resp)
}

// handleTriage accepts one or more XML documents as multipart form files
// under the "files" field and returns the assessed outcomes. With
// ?format=csv the response is the CSV output table instead of JSON.
func (s *Server) handleTriage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		s.badRequest(c, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		s.badRequest(c, "no files uploaded, expected multipart field \"files\"")
		return
	}

	inputs := make([]pipeline.Input, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			s.badRequest(c, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		inputs = append(inputs, pipeline.Input{Source: fh.Filename, Data: data})
	}

	outcomes := s.runner.Run(c.Request.Context(), inputs)

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="triage.csv"`)
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, outcomes); err != nil {
			s.logger.WithError(err).Error("Failed to stream CSV response")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": len(outcomes),
		"failed":    countFailed(outcomes),
		"outcomes":  outcomes,
	})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":          msg,
		"code":           domain.ErrCodeInvalidInput,
		"correlation_id": c.GetString("correlation_id"),
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func countFailed(outcomes []*domain.CaseOutcomeRecord) int {
	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	return failed
}
