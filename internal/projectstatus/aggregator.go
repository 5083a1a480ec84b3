// Package projectstatus keeps a project's status consistent with the completion
// state of its tasks.
//
// A project is completed when it has at least one task and every task is done;
// otherwise it is working. Canceled is set by people, never derived, and once set
// it is left alone until someone changes it back.
package projectstatus

import (
	"context"
	"io"
	"log/slog"
	"math"

	"manager/internal/models"
)

// Repository is the slice of the entity store the aggregator reads and writes.
type Repository interface {
	GetProjectForUpdate(ctx context.Context, projectID int64) (models.Project, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error)
	UpdateProjectStatus(ctx context.Context, projectID int64, status models.ProjectStatus) error
}

// TxFunc runs fn against a Repository bound to one transaction, committing when fn
// returns nil.
type TxFunc func(ctx context.Context, fn func(Repository) error) error

// Aggregator recomputes project statuses.
type Aggregator struct {
	inTx   TxFunc
	logger *slog.Logger
}

// New builds an Aggregator running its reads and write through inTx.
func New(inTx TxFunc, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{inTx: inTx, logger: logger}
}

// Recompute derives the project's status from its current tasks and stores it when
// it changed. It returns the status the project holds afterwards.
//
// A missing project yields models.ErrNotFound; store failures come back as
// *models.PersistenceError. Either way the task write that triggered the call stands.
func (a *Aggregator) Recompute(ctx context.Context, projectID int64) (models.ProjectStatus, error) {
	var result models.ProjectStatus
	err := a.inTx(ctx, func(repo Repository) error {
		project, err := repo.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if project.Status == models.StatusCanceled {
			result = project.Status
			return nil
		}

		tasks, err := repo.ListTasksByProject(ctx, projectID)
		if err != nil {
			return err
		}

		next := Derive(tasks)
		result = next
		if next == project.Status {
			return nil
		}
		if err := repo.UpdateProjectStatus(ctx, projectID, next); err != nil {
			return err
		}
		a.logger.Info("project status changed",
			slog.Int64("project_id", projectID),
			slog.String("from", string(project.Status)),
			slog.String("to", string(next)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// Derive maps a task set to the automatic project status. An empty set is working.
func Derive(tasks []models.Task) models.ProjectStatus {
	if len(tasks) == 0 {
		return models.StatusWorking
	}
	for _, t := range tasks {
		if !t.IsCompleted {
			return models.StatusWorking
		}
	}
	return models.StatusCompleted
}

// Progress reports how many tasks are done and the rounded completion percentage.
func Progress(tasks []models.Task) (completed, total, percent int) {
	total = len(tasks)
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return completed, total, int(math.Round(float64(completed) / float64(total) * 100))
}
