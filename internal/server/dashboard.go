package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type projectSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// handleDashboard returns workspace counters and a page of projects with progress.
func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := s.store.ListProjects(ctx, s.listQuery(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	summaries := make([]projectSummary, 0, len(page.Items))
	for _, p := range page.Items {
		progress, err := s.progressOf(ctx, p)
		if err != nil {
			s.fail(c, err)
			return
		}
		summaries = append(summaries, projectSummary{
			ID:        p.ID,
			Name:      p.Name,
			Status:    string(p.Status),
			Completed: progress.Completed,
			Total:     progress.Total,
			Percent:   progress.Percent,
		})
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"stats":       stats,
		"projects":    summaries,
		"page":        page.Page,
		"total_pages": page.TotalPages,
	})
}
