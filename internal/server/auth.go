package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"manager/internal/auth"
	"manager/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin exchanges credentials for a session token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	worker, err := s.store.GetWorkerByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, models.ErrNotFound) {
		s.respondError(c, http.StatusUnauthorized, auth.RejectUnknown(req.Password))
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := auth.CheckPassword(worker.PasswordHash, req.Password); err != nil {
		s.logger.Info("failed login", slog.String("username", req.Username))
		s.respondError(c, http.StatusUnauthorized, err)
		return
	}

	token, expires, err := s.tokens.Issue(worker.ID, worker.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expires,
		"worker":     worker,
	})
}

// handleMe returns the signed-in worker.
func (s *Server) handleMe(c *gin.Context) {
	worker, ok := currentWorker(c)
	if !ok {
		s.respondError(c, http.StatusUnauthorized, auth.ErrInvalidToken)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"worker": worker})
}
