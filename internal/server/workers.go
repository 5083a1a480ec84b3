package server

import (
	"context"

	"manager/internal/auth"
	"manager/internal/models"
)

func (s *Server) workers() resource[models.Worker, models.WorkerInput] {
	return resource[models.Worker, models.WorkerInput]{
		s:      s,
		path:   "/workers",
		key:    "worker",
		list:   s.store.ListWorkers,
		get:    s.store.GetWorker,
		create: s.createWorker,
		update: s.updateWorker,
		remove: s.store.DeleteWorker,
	}
}

func (s *Server) createWorker(ctx context.Context, in models.WorkerInput) (models.Worker, error) {
	if err := in.Validate(models.OpCreate); err != nil {
		return models.Worker{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Worker{}, err
	}
	return s.store.CreateWorker(ctx, models.Worker{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PositionID:   in.PositionID,
		PasswordHash: hash,
	})
}

// updateWorker edits the profile; the password changes only when a new one is sent.
func (s *Server) updateWorker(ctx context.Context, id int64, in models.WorkerInput) (models.Worker, error) {
	if err := in.Validate(models.OpUpdate); err != nil {
		return models.Worker{}, err
	}
	w := models.Worker{
		ID:         id,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		PositionID: in.PositionID,
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.Worker{}, err
		}
		w.PasswordHash = hash
	}
	return s.store.UpdateWorker(ctx, w)
}
