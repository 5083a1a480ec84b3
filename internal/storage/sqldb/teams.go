package sqldb

import (
	"context"

	"manager/internal/models"
)

// ListTeams returns teams whose name contains the keyword.
func (s *Store) ListTeams(ctx context.Context, q models.ListQuery) (models.Page[models.Team], error) {
	where, args := keywordFilter(q.Keyword, "name")
	page, err := listPage(ctx, s, "list teams", q,
		`SELECT COUNT(*) FROM teams`+where,
		`SELECT id, name FROM teams`+where+` ORDER BY id`,
		args, scanTeam)
	if err != nil {
		return page, err
	}
	for i := range page.Items {
		if page.Items[i].MemberIDs, err = teamMembers.load(ctx, s, page.Items[i].ID); err != nil {
			return models.Page[models.Team]{}, err
		}
	}
	return page, nil
}

// GetTeam fetches a team with its members.
func (s *Store) GetTeam(ctx context.Context, id int64) (models.Team, error) {
	t, err := scanTeam(s.queryRow(ctx, `SELECT id, name FROM teams WHERE id = ?`, id))
	if err != nil {
		return models.Team{}, s.fail("get team", err)
	}
	if t.MemberIDs, err = teamMembers.load(ctx, s, id); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// CreateTeam persists a team and its members.
func (s *Store) CreateTeam(ctx context.Context, t models.Team) (models.Team, error) {
	var id int64
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.requireIDs(ctx, "workers", "member_ids", t.MemberIDs...); err != nil {
			return err
		}
		var err error
		if id, err = tx.insert(ctx, `INSERT INTO teams(name) VALUES(?)`, t.Name); err != nil {
			return tx.fail("insert team", err)
		}
		return teamMembers.replace(ctx, tx, id, t.MemberIDs)
	})
	if err != nil {
		return models.Team{}, err
	}
	return s.GetTeam(ctx, id)
}

// UpdateTeam renames a team and replaces its members.
func (s *Store) UpdateTeam(ctx context.Context, t models.Team) (models.Team, error) {
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.requireIDs(ctx, "workers", "member_ids", t.MemberIDs...); err != nil {
			return err
		}
		if err := tx.execOne(ctx, "update team", `UPDATE teams SET name = ? WHERE id = ?`, t.Name, t.ID); err != nil {
			return err
		}
		return teamMembers.replace(ctx, tx, t.ID, t.MemberIDs)
	})
	if err != nil {
		return models.Team{}, err
	}
	return s.GetTeam(ctx, t.ID)
}

// DeleteTeam removes a team; projects simply lose it from their team set.
func (s *Store) DeleteTeam(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete team", `DELETE FROM teams WHERE id = ?`, id)
}

func scanTeam(r rowScanner) (models.Team, error) {
	var t models.Team
	err := r.Scan(&t.ID, &t.Name)
	return t, err
}
