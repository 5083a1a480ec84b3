package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"manager/internal/auth"
	"manager/internal/models"
	"manager/internal/projectstatus"
	"manager/internal/storage/sqldb"
)

// Server provides HTTP handlers for the task manager backend.
type Server struct {
	engine   *gin.Engine
	store    *sqldb.Store
	status   *projectstatus.Aggregator
	tokens   *auth.Tokens
	logger   *slog.Logger
	pageSize int
	now      func() time.Time
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqldb.Store, tokens *auth.Tokens, logger *slog.Logger, pageSize int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:   router,
		store:    store,
		status:   projectstatus.New(statusTx(store), logger),
		tokens:   tokens,
		logger:   logger,
		pageSize: pageSize,
		now:      time.Now,
	}
	router.Use(srv.requestLogger())

	srv.registerRoutes()
	return srv
}

// statusTx runs the aggregator against a store transaction.
func statusTx(store *sqldb.Store) projectstatus.TxFunc {
	return func(ctx context.Context, fn func(projectstatus.Repository) error) error {
		return store.WithinTx(ctx, func(tx *sqldb.Store) error {
			return fn(tx)
		})
	}
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/auth/login", s.handleLogin)

		private := api.Group("", s.requireAuth())
		private.GET("/auth/me", s.handleMe)
		private.GET("/dashboard", s.handleDashboard)

		s.positions().mount(private)
		s.taskTypes().mount(private)
		s.workers().mount(private)
		s.teams().mount(private)
		s.projects().mount(private)
		s.tasks().mount(private)

		private.GET("/projects/:id/progress", s.handleProjectProgress)
		private.POST("/tasks/:id/complete", s.handleCompleteTask)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
}

// handleHealth reports readiness, including database reachability.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// recompute refreshes a project's status after its tasks changed. Failures are
// logged and never fail the request: the task write has already committed.
func (s *Server) recompute(ctx context.Context, projectID int64) {
	if projectID == 0 {
		return
	}
	if _, err := s.status.Recompute(ctx, projectID); err != nil {
		s.logger.Warn("project status recompute failed",
			slog.Int64("project_id", projectID),
			slog.String("error", err.Error()))
	}
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// listQuery reads keyword and pagination parameters.
func (s *Server) listQuery(c *gin.Context) models.ListQuery {
	keyword := c.Query("q")
	if keyword == "" {
		keyword = c.Query("name")
	}
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return models.ListQuery{Keyword: keyword, Page: page, PageSize: size}.Normalize(s.pageSize)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status matching err.
func (s *Server) fail(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		c.AbortWithStatusJSON(status, gin.H{"error": "validation failed", "fields": ve.Fields})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
