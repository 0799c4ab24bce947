// Package server exposes the entity store over a JSON HTTP API and serves
// the dashboard bundle when one is configured.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"worktrack/internal/entity"
	"worktrack/internal/models"
)

// Options configures optional parts of the server.
type Options struct {
	StaticDir   string
	CORSOrigins []string
}

// Server provides HTTP handlers for the work tracker.
type Server struct {
	engine    *gin.Engine
	store     *entity.Store
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *entity.Store, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))
	if len(opts.CORSOrigins) > 0 {
		router.Use(corsMiddleware(opts.CORSOrigins))
	}

	srv := &Server{
		engine:    router,
		store:     store,
		logger:    logger,
		staticDir: opts.StaticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":id", s.handleGetProject)
			projects.PATCH(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/tasks", s.handleListTasks)
			projects.POST(":id/tasks", s.handleCreateTask)
		}

		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		tickets := api.Group("/tickets")
		{
			tickets.GET("", s.handleListTickets)
			tickets.POST("", s.handleCreateTicket)
			tickets.GET(":id", s.handleGetTicket)
			tickets.PATCH(":id", s.handleUpdateTicket)
			tickets.DELETE(":id", s.handleDeleteTicket)
		}

		api.POST("/comments", s.handleCreateComment)
		api.GET("/comments/:id", s.handleGetComment)
		api.PATCH("/comments/:id", s.handleUpdateComment)
		api.DELETE("/comments/:id", s.handleDeleteComment)
		api.GET("/threads/:entity_type/:entity_id", s.handleThread)

		api.GET("/signals/pending", s.handlePendingCount)
		api.GET("/signals/pending/summary", s.handlePendingSummary)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID validates a UUID path parameter.
func parseID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier", "kind": "bad_request", "field": name})
		return "", false
	}
	return raw, true
}

// deleteOptions reads the cascade query flag.
func (s *Server) deleteOptions(c *gin.Context) (models.DeleteOptions, bool) {
	cascade, err := strconv.ParseBool(c.DefaultQuery("cascade", "false"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, errors.New("cascade must be a boolean"))
		return models.DeleteOptions{}, false
	}
	return models.DeleteOptions{Cascade: cascade}, true
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.ErrNotFound:
		return http.StatusNotFound
	case models.ErrReferenceNotFound, models.ErrInvalidReference, models.ErrInvalidField, models.ErrMissingResolution:
		return http.StatusUnprocessableEntity
	case models.ErrCyclicReference, models.ErrHasDependents, models.ErrInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondStoreError reports a store failure with the status its kind maps to.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload carrying the
// failure kind and offending field when known.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}

	body := gin.H{"error": err.Error(), "kind": kindName(err, status)}
	var ve *models.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		body["field"] = ve.Field
	}
	c.JSON(status, body)
}

func kindName(err error, status int) string {
	if kind := models.KindOf(err); kind != nil {
		return strings.ReplaceAll(kind.Error(), " ", "_")
	}
	if status == http.StatusBadRequest {
		return "bad_request"
	}
	return "internal"
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
