// Package server exposes the domain stores over HTTP with fiber.
package server

import (
	"bytes"
	"errors"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/stores"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server serves the workflow, annotation and preferences stores
type Server struct {
	app    *fiber.App
	stores *stores.Set
	logger zerolog.Logger
}

// Option configures the server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates the server and registers all routes
func New(set *stores.Set, opts ...Option) *Server {
	s := &Server{
		app:    fiber.New(),
		stores: set,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting at most timeout for open requests
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "wldstore",
			"version": Version,
		})
	})

	s.app.Get("/metrics", func(c fiber.Ctx) error {
		var buf bytes.Buffer
		metrics.WritePrometheus(&buf, true)
		c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
		return c.Send(buf.Bytes())
	})

	v1 := s.app.Group("/api/v1")

	workflows := v1.Group("/workflows")
	workflows.Get("/", s.handleListWorkflows)
	workflows.Post("/", s.handleCreateWorkflow)
	workflows.Get("/:id", s.handleGetWorkflow)
	workflows.Put("/:id", s.handleSaveWorkflow)
	workflows.Delete("/:id", s.handleDeleteWorkflow)
	workflows.Get("/:id/graph", s.handleWorkflowGraph)
	workflows.Post("/:id/links", s.handleLinkSteps)
	workflows.Delete("/:id/links", s.handleUnlinkSteps)

	annotations := v1.Group("/annotations")
	annotations.Get("/:workflowId", s.handleGetWorkflowAnnotations)
	annotations.Delete("/:workflowId", s.handleDeleteWorkflowAnnotations)
	annotations.Get("/:workflowId/stats", s.handleAnnotationStats)
	annotations.Get("/:workflowId/steps/:stepId", s.handleGetStepAnnotation)
	annotations.Put("/:workflowId/steps/:stepId", s.handleSaveStepAnnotation)
	annotations.Patch("/:workflowId/steps/:stepId", s.handleUpdateAnnotationField)
	annotations.Put("/:workflowId/steps/:stepId/relationships", s.handleUpdateRelationships)
	annotations.Delete("/:workflowId/steps/:stepId", s.handleDeleteStepAnnotation)

	prefs := v1.Group("/preferences")
	prefs.Get("/", s.handleGetPreferences)
	prefs.Patch("/theme", s.handleUpdateTheme)
	prefs.Patch("/editor", s.handleUpdateEditor)
	prefs.Patch("/export", s.handleUpdateExport)
	prefs.Put("/model", s.handleSetLastUsedModel)
	prefs.Post("/recent", s.handleAddRecentWorkflow)
	prefs.Post("/reset", s.handleResetPreferences)

	admin := v1.Group("/admin")
	admin.Post("/migrate-legacy", s.handleMigrateLegacy)
	admin.Post("/optimize-images", s.handleOptimizeImages)
	admin.Get("/storage", s.handleStorage)
	admin.Post("/backups/:record", s.handleCreateBackup)
	admin.Get("/backups/:record", s.handleListBackups)
}

// errorStatus maps a store error kind to an HTTP status
func errorStatus(err error) int {
	switch wldstore.KindOf(err) {
	case wldstore.KindValidationFailed:
		return fiber.StatusBadRequest
	case wldstore.KindNotFound:
		return fiber.StatusNotFound
	case wldstore.KindQuotaExceeded:
		return fiber.StatusInsufficientStorage
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) writeError(c fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	body := fiber.Map{"error": err.Error()}
	var se *wldstore.StoreError
	if errors.As(err, &se) {
		body["kind"] = se.Kind
	}
	return c.Status(status).JSON(body)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"kind":  wldstore.KindValidationFailed,
	})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": msg,
		"kind":  wldstore.KindNotFound,
	})
}
