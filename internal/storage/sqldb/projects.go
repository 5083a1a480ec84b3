package sqldb

import (
	"context"

	"manager/internal/models"
)

const projectColumns = `id, name, description, status`

// ListProjects returns projects ordered by name and status.
func (s *Store) ListProjects(ctx context.Context, q models.ListQuery) (models.Page[models.Project], error) {
	where, args := keywordFilter(q.Keyword, "name")
	page, err := listPage(ctx, s, "list projects", q,
		`SELECT COUNT(*) FROM projects`+where,
		`SELECT `+projectColumns+` FROM projects`+where+` ORDER BY name, status, id`,
		args, scanProject)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		if page.Items[i].TeamIDs, err = projectTeams.load(ctx, s, page.Items[i].ID); err != nil {
			return models.Page[models.Project]{}, err
		}
	}
	return page, nil
}

// GetProject fetches a project with its teams.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	return s.getProject(ctx, id, "")
}

// GetProjectForUpdate fetches a project and, where the database supports it, locks
// the row until the surrounding transaction ends.
func (s *Store) GetProjectForUpdate(ctx context.Context, id int64) (models.Project, error) {
	return s.getProject(ctx, id, s.dialect.forUpdate)
}

func (s *Store) getProject(ctx context.Context, id int64, lock string) (models.Project, error) {
	p, err := scanProject(s.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`+lock, id))
	if err != nil {
		return models.Project{}, s.fail("get project", err)
	}
	if p.TeamIDs, err = projectTeams.load(ctx, s, id); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// CreateProject persists a project and its team set.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if p.Status == "" {
		p.Status = models.StatusWorking
	}

	var id int64
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.requireIDs(ctx, "teams", "team_ids", p.TeamIDs...); err != nil {
			return err
		}
		var err error
		id, err = tx.insert(ctx, `INSERT INTO projects(name, description, status) VALUES(?, ?, ?)`, p.Name, p.Description, string(p.Status))
		if err != nil {
			return tx.fail("insert project", err)
		}
		return projectTeams.replace(ctx, tx, id, p.TeamIDs)
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// UpdateProject edits name, description, status and teams.
func (s *Store) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.requireIDs(ctx, "teams", "team_ids", p.TeamIDs...); err != nil {
			return err
		}
		err := tx.execOne(ctx, "update project", `UPDATE projects SET name = ?, description = ?, status = ? WHERE id = ?`,
			p.Name, p.Description, string(p.Status), p.ID)
		if err != nil {
			return err
		}
		return projectTeams.replace(ctx, tx, p.ID, p.TeamIDs)
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, p.ID)
}

// UpdateProjectStatus writes a project's status as a single statement.
func (s *Store) UpdateProjectStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	return s.execOne(ctx, "update project status", `UPDATE projects SET status = ? WHERE id = ?`, string(status), id)
}

// DeleteProject removes a project along with its tasks.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete project", `DELETE FROM projects WHERE id = ?`, id)
}

func scanProject(r rowScanner) (models.Project, error) {
	var (
		p      models.Project
		status string
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Description, &status); err != nil {
		return models.Project{}, err
	}
	p.Status = models.ProjectStatus(status)
	return p, nil
}
