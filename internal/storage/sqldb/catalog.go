package sqldb

import (
	"context"

	"manager/internal/models"
)

// ListPositions returns positions ordered by name, each with its worker count.
func (s *Store) ListPositions(ctx context.Context, q models.ListQuery) (models.Page[models.Position], error) {
	where, args := keywordFilter(q.Keyword, "p.name")
	return listPage(ctx, s, "list positions", q,
		`SELECT COUNT(*) FROM positions p`+where,
		`SELECT p.id, p.name, (SELECT COUNT(*) FROM workers w WHERE w.position_id = p.id)
        FROM positions p`+where+` ORDER BY p.name, p.id`,
		args, scanPosition)
}

// GetPosition fetches a single position by id.
func (s *Store) GetPosition(ctx context.Context, id int64) (models.Position, error) {
	p, err := scanPosition(s.queryRow(ctx, `SELECT p.id, p.name, (SELECT COUNT(*) FROM workers w WHERE w.position_id = p.id)
        FROM positions p WHERE p.id = ?`, id))
	if err != nil {
		return models.Position{}, s.fail("get position", err)
	}
	return p, nil
}

// CreatePosition persists a new position. Names are unique.
func (s *Store) CreatePosition(ctx context.Context, name string) (models.Position, error) {
	id, err := s.insert(ctx, `INSERT INTO positions(name) VALUES(?)`, name)
	if err != nil {
		return models.Position{}, s.fail("insert position", err)
	}
	return s.GetPosition(ctx, id)
}

// UpdatePosition renames a position.
func (s *Store) UpdatePosition(ctx context.Context, id int64, name string) (models.Position, error) {
	if err := s.execOne(ctx, "update position", `UPDATE positions SET name = ? WHERE id = ?`, name, id); err != nil {
		return models.Position{}, err
	}
	return s.GetPosition(ctx, id)
}

// DeletePosition removes a position. Workers holding it keep their accounts with
// the position cleared.
func (s *Store) DeletePosition(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete position", `DELETE FROM positions WHERE id = ?`, id)
}

func scanPosition(r rowScanner) (models.Position, error) {
	var p models.Position
	err := r.Scan(&p.ID, &p.Name, &p.WorkerCount)
	return p, err
}

// ListTaskTypes returns task types ordered by name.
func (s *Store) ListTaskTypes(ctx context.Context, q models.ListQuery) (models.Page[models.TaskType], error) {
	where, args := keywordFilter(q.Keyword, "name")
	return listPage(ctx, s, "list task types", q,
		`SELECT COUNT(*) FROM task_types`+where,
		`SELECT id, name FROM task_types`+where+` ORDER BY name, id`,
		args, scanTaskType)
}

// GetTaskType fetches a single task type by id.
func (s *Store) GetTaskType(ctx context.Context, id int64) (models.TaskType, error) {
	t, err := scanTaskType(s.queryRow(ctx, `SELECT id, name FROM task_types WHERE id = ?`, id))
	if err != nil {
		return models.TaskType{}, s.fail("get task type", err)
	}
	return t, nil
}

// CreateTaskType persists a new task type. Names are unique.
func (s *Store) CreateTaskType(ctx context.Context, name string) (models.TaskType, error) {
	id, err := s.insert(ctx, `INSERT INTO task_types(name) VALUES(?)`, name)
	if err != nil {
		return models.TaskType{}, s.fail("insert task type", err)
	}
	return s.GetTaskType(ctx, id)
}

// UpdateTaskType renames a task type.
func (s *Store) UpdateTaskType(ctx context.Context, id int64, name string) (models.TaskType, error) {
	if err := s.execOne(ctx, "update task type", `UPDATE task_types SET name = ? WHERE id = ?`, name, id); err != nil {
		return models.TaskType{}, err
	}
	return s.GetTaskType(ctx, id)
}

func scanTaskType(r rowScanner) (models.TaskType, error) {
	var t models.TaskType
	err := r.Scan(&t.ID, &t.Name)
	return t, err
}

// DeleteTaskType removes a task type together with every task of that type.
// It returns the ids of the projects that lost tasks so their status can be recomputed.
func (s *Store) DeleteTaskType(ctx context.Context, id int64) ([]int64, error) {
	var projectIDs []int64
	err := s.WithinTx(ctx, func(tx *Store) error {
		rows, err := tx.query(ctx, `SELECT DISTINCT project_id FROM tasks WHERE task_type_id = ? ORDER BY project_id`, id)
		if err != nil {
			return tx.fail("affected projects", err)
		}
		projectIDs, err = collect(rows, func(r rowScanner) (int64, error) {
			var pid int64
			err := r.Scan(&pid)
			return pid, err
		})
		if err != nil {
			return tx.fail("affected projects", err)
		}
		return tx.execOne(ctx, "delete task type", `DELETE FROM task_types WHERE id = ?`, id)
	})
	if err != nil {
		return nil, err
	}
	return projectIDs, nil
}

// Stats counts workers, tasks and completed tasks.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM workers`).Scan(&st.Workers); err != nil {
		return models.Stats{}, s.fail("count workers", err)
	}
	err := s.queryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) FROM tasks`).
		Scan(&st.Tasks, &st.CompletedTasks)
	if err != nil {
		return models.Stats{}, s.fail("count tasks", err)
	}
	return st, nil
}
