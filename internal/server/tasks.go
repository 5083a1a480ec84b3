package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"manager/internal/models"
)

type completeRequest struct {
	IsCompleted *bool `json:"is_completed"`
}

func (s *Server) tasks() resource[models.Task, models.TaskInput] {
	return resource[models.Task, models.TaskInput]{
		s:      s,
		path:   "/tasks",
		key:    "task",
		list:   s.store.ListTasks,
		get:    s.store.GetTask,
		create: s.createTask,
		update: s.updateTask,
		remove: s.deleteTask,
	}
}

func taskFromInput(in models.TaskInput) models.Task {
	return models.Task{
		Name:        in.Name,
		Description: in.Description,
		Deadline:    in.Deadline,
		IsCompleted: in.IsCompleted,
		Priority:    in.Priority,
		TaskTypeID:  in.TaskTypeID,
		ProjectID:   in.ProjectID,
		AssigneeIDs: in.AssigneeIDs,
	}
}

// createTask validates and stores a task, then recomputes its project.
func (s *Server) createTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	if err := in.Validate(s.now(), nil); err != nil {
		return models.Task{}, err
	}
	t, err := s.store.CreateTask(ctx, taskFromInput(in))
	if err != nil {
		return models.Task{}, err
	}
	s.recompute(ctx, t.ProjectID)
	return t, nil
}

// updateTask replaces a task. When it moves to another project both projects are
// recomputed.
func (s *Server) updateTask(ctx context.Context, id int64, in models.TaskInput) (models.Task, error) {
	current, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := in.Validate(s.now(), &current.Deadline); err != nil {
		return models.Task{}, err
	}

	next := taskFromInput(in)
	next.ID = id
	t, err := s.store.UpdateTask(ctx, next)
	if err != nil {
		return models.Task{}, err
	}
	s.recompute(ctx, t.ProjectID)
	if current.ProjectID != t.ProjectID {
		s.recompute(ctx, current.ProjectID)
	}
	return t, nil
}

func (s *Server) deleteTask(ctx context.Context, id int64) error {
	removed, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	s.recompute(ctx, removed.ProjectID)
	return nil
}

// handleCompleteTask sets only the completion flag, defaulting to done.
func (s *Server) handleCompleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	done := true
	if req.IsCompleted != nil {
		done = *req.IsCompleted
	}

	ctx := c.Request.Context()
	t, err := s.store.SetTaskCompleted(ctx, id, done)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.recompute(ctx, t.ProjectID)
	respondSuccess(c, http.StatusOK, gin.H{"task": t})
}
