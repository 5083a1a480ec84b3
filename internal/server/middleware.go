package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"manager/internal/auth"
	"manager/internal/models"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxWorker       = "worker"
)

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)

		c.Next()

		s.logger.Info("request",
			slog.String("request_id", id),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

// requireAuth rejects requests without a valid bearer token for an existing worker.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if header == "" || !found || raw == "" {
			s.respondError(c, http.StatusUnauthorized, errors.New("authentication credentials were not provided"))
			return
		}

		claims, err := s.tokens.Parse(raw)
		if err != nil {
			s.respondError(c, http.StatusUnauthorized, err)
			return
		}
		workerID, err := claims.WorkerID()
		if err != nil {
			s.respondError(c, http.StatusUnauthorized, err)
			return
		}

		worker, err := s.store.GetWorker(c.Request.Context(), workerID)
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(c, http.StatusUnauthorized, auth.ErrInvalidToken)
			return
		}
		if err != nil {
			s.fail(c, err)
			return
		}

		c.Set(ctxWorker, worker)
		c.Next()
	}
}

// currentWorker returns the worker set by requireAuth.
func currentWorker(c *gin.Context) (models.Worker, bool) {
	v, ok := c.Get(ctxWorker)
	if !ok {
		return models.Worker{}, false
	}
	w, ok := v.(models.Worker)
	return w, ok
}
