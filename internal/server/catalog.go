package server

import (
	"context"

	"manager/internal/models"
)

func (s *Server) positions() resource[models.Position, models.PositionInput] {
	return resource[models.Position, models.PositionInput]{
		s:    s,
		path: "/positions",
		key:  "position",
		list: s.store.ListPositions,
		get:  s.store.GetPosition,
		create: func(ctx context.Context, in models.PositionInput) (models.Position, error) {
			if err := in.Validate(); err != nil {
				return models.Position{}, err
			}
			return s.store.CreatePosition(ctx, in.Name)
		},
		update: func(ctx context.Context, id int64, in models.PositionInput) (models.Position, error) {
			if err := in.Validate(); err != nil {
				return models.Position{}, err
			}
			return s.store.UpdatePosition(ctx, id, in.Name)
		},
		remove: s.store.DeletePosition,
	}
}

func (s *Server) taskTypes() resource[models.TaskType, models.TaskTypeInput] {
	return resource[models.TaskType, models.TaskTypeInput]{
		s:    s,
		path: "/task-types",
		key:  "task_type",
		list: s.store.ListTaskTypes,
		get:  s.store.GetTaskType,
		create: func(ctx context.Context, in models.TaskTypeInput) (models.TaskType, error) {
			if err := in.Validate(); err != nil {
				return models.TaskType{}, err
			}
			return s.store.CreateTaskType(ctx, in.Name)
		},
		update: func(ctx context.Context, id int64, in models.TaskTypeInput) (models.TaskType, error) {
			if err := in.Validate(); err != nil {
				return models.TaskType{}, err
			}
			return s.store.UpdateTaskType(ctx, id, in.Name)
		},
		remove: s.deleteTaskType,
	}
}

// deleteTaskType removes a task type with its tasks, then recomputes every project
// that lost tasks.
func (s *Server) deleteTaskType(ctx context.Context, id int64) error {
	projectIDs, err := s.store.DeleteTaskType(ctx, id)
	if err != nil {
		return err
	}
	for _, pid := range projectIDs {
		s.recompute(ctx, pid)
	}
	return nil
}
