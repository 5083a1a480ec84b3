package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"manager/internal/models"
	"manager/internal/projectstatus"
)

func (s *Server) projects() resource[models.Project, models.ProjectInput] {
	return resource[models.Project, models.ProjectInput]{
		s:      s,
		path:   "/projects",
		key:    "project",
		list:   s.store.ListProjects,
		get:    s.store.GetProject,
		create: s.createProject,
		update: s.updateProject,
		remove: s.store.DeleteProject,
	}
}

func (s *Server) createProject(ctx context.Context, in models.ProjectInput) (models.Project, error) {
	if err := in.Validate(models.OpCreate); err != nil {
		return models.Project{}, err
	}
	return s.store.CreateProject(ctx, models.Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		TeamIDs:     in.TeamIDs,
	})
}

// updateProject saves the edit, then lets the task set decide the status unless
// the project is canceled. An omitted status keeps the stored one.
func (s *Server) updateProject(ctx context.Context, id int64, in models.ProjectInput) (models.Project, error) {
	if err := in.Validate(models.OpUpdate); err != nil {
		return models.Project{}, err
	}
	if in.Status == "" {
		current, err := s.store.GetProject(ctx, id)
		if err != nil {
			return models.Project{}, err
		}
		in.Status = current.Status
	}
	p, err := s.store.UpdateProject(ctx, models.Project{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		TeamIDs:     in.TeamIDs,
	})
	if err != nil {
		return models.Project{}, err
	}
	if p.Status == models.StatusCanceled {
		return p, nil
	}
	s.recompute(ctx, id)
	return s.store.GetProject(ctx, id)
}

type projectProgress struct {
	Project          models.Project `json:"project"`
	CompletedTasks   []models.Task  `json:"completed_tasks"`
	UncompletedTasks []models.Task  `json:"uncompleted_tasks"`
	Completed        int            `json:"completed"`
	Total            int            `json:"total"`
	Percent          int            `json:"percent"`
}

func (s *Server) progressOf(ctx context.Context, p models.Project) (projectProgress, error) {
	tasks, err := s.store.ListTasksByProject(ctx, p.ID)
	if err != nil {
		return projectProgress{}, err
	}
	out := projectProgress{
		Project:          p,
		CompletedTasks:   []models.Task{},
		UncompletedTasks: []models.Task{},
	}
	for _, t := range tasks {
		if t.IsCompleted {
			out.CompletedTasks = append(out.CompletedTasks, t)
		} else {
			out.UncompletedTasks = append(out.UncompletedTasks, t)
		}
	}
	out.Completed, out.Total, out.Percent = projectstatus.Progress(tasks)
	return out, nil
}

// handleProjectProgress returns a project with its tasks split by completion.
func (s *Server) handleProjectProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	progress, err := s.progressOf(ctx, p)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, progress)
}
