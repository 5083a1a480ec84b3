package sqldb

import (
	"context"
	"errors"
	"time"

	"manager/internal/models"
)

const taskColumns = `id, name, description, deadline, is_completed, priority, task_type_id, project_id, created_at`

// taskOrder puts the most pressing priority first, then the latest deadline.
const taskOrder = ` ORDER BY CASE priority
            WHEN 'critical' THEN 5 WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
            deadline DESC, id`

// ListTasks returns tasks whose name contains the keyword.
func (s *Store) ListTasks(ctx context.Context, q models.ListQuery) (models.Page[models.Task], error) {
	where, args := keywordFilter(q.Keyword, "name")
	page, err := listPage(ctx, s, "list tasks", q,
		`SELECT COUNT(*) FROM tasks`+where,
		`SELECT `+taskColumns+` FROM tasks`+where+taskOrder,
		args, scanTask)
	if err != nil {
		return page, err
	}
	if err := s.attachAssignees(ctx, page.Items); err != nil {
		return models.Page[models.Task]{}, err
	}
	return page, nil
}

// ListTasksByProject returns every task owned by the project.
func (s *Store) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	rows, err := s.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ?`+taskOrder, projectID)
	if err != nil {
		return nil, s.fail("list project tasks", err)
	}
	tasks, err := collect(rows, scanTask)
	if err != nil {
		return nil, s.fail("list project tasks", err)
	}
	if err := s.attachAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return models.Task{}, s.fail("get task", err)
	}
	if t.AssigneeIDs, err = taskAssignees.load(ctx, s, id); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// CreateTask inserts a task and its assignees. It does not touch the project status;
// callers recompute it once the write has committed.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	var id int64
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.checkTaskRefs(ctx, t); err != nil {
			return err
		}
		var err error
		id, err = tx.insert(ctx, `INSERT INTO tasks(name, description, deadline, is_completed, priority, task_type_id, project_id, created_at)
            VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Name, t.Description, t.Deadline.UTC().Truncate(time.Microsecond), t.IsCompleted, string(t.Priority), t.TaskTypeID, t.ProjectID, now)
		if err != nil {
			return tx.fail("insert task", err)
		}
		return taskAssignees.replace(ctx, tx, id, t.AssigneeIDs)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask replaces a task's editable fields and assignees.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.checkTaskRefs(ctx, t); err != nil {
			return err
		}
		err := tx.execOne(ctx, "update task", `UPDATE tasks SET name = ?, description = ?, deadline = ?, is_completed = ?,
            priority = ?, task_type_id = ?, project_id = ? WHERE id = ?`,
			t.Name, t.Description, t.Deadline.UTC().Truncate(time.Microsecond), t.IsCompleted, string(t.Priority), t.TaskTypeID, t.ProjectID, t.ID)
		if err != nil {
			return err
		}
		return taskAssignees.replace(ctx, tx, t.ID, t.AssigneeIDs)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, t.ID)
}

// SetTaskCompleted flips only the completion flag.
func (s *Store) SetTaskCompleted(ctx context.Context, id int64, done bool) (models.Task, error) {
	if err := s.execOne(ctx, "complete task", `UPDATE tasks SET is_completed = ? WHERE id = ?`, done, id); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task and returns it as it was before deletion.
func (s *Store) DeleteTask(ctx context.Context, id int64) (models.Task, error) {
	var removed models.Task
	err := s.WithinTx(ctx, func(tx *Store) error {
		var err error
		if removed, err = tx.GetTask(ctx, id); err != nil {
			return err
		}
		return tx.execOne(ctx, "delete task", `DELETE FROM tasks WHERE id = ?`, id)
	})
	if err != nil {
		return models.Task{}, err
	}
	return removed, nil
}

func (s *Store) checkTaskRefs(ctx context.Context, t models.Task) error {
	var ve models.ValidationError
	for _, ref := range []struct {
		table, field string
		ids          []int64
	}{
		{"task_types", "task_type_id", []int64{t.TaskTypeID}},
		{"projects", "project_id", []int64{t.ProjectID}},
		{"workers", "assignee_ids", t.AssigneeIDs},
	} {
		err := s.requireIDs(ctx, ref.table, ref.field, ref.ids...)
		var fe *models.ValidationError
		if errors.As(err, &fe) {
			for k, v := range fe.Fields {
				ve.Add(k, v)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return ve.OrNil()
}

func (s *Store) attachAssignees(ctx context.Context, tasks []models.Task) error {
	for i := range tasks {
		ids, err := taskAssignees.load(ctx, s, tasks[i].ID)
		if err != nil {
			return err
		}
		tasks[i].AssigneeIDs = ids
	}
	return nil
}

func scanTask(r rowScanner) (models.Task, error) {
	var (
		t        models.Task
		priority string
	)
	if err := r.Scan(&t.ID, &t.Name, &t.Description, &t.Deadline, &t.IsCompleted, &priority, &t.TaskTypeID, &t.ProjectID, &t.CreatedAt); err != nil {
		return models.Task{}, err
	}
	t.Priority = models.Priority(priority)
	return t, nil
}
