package sqldb

import (
	"context"
	"fmt"
)

// link describes a many-to-many join table.
type link struct {
	table    string
	ownerCol string
	refCol   string
}

var (
	teamMembers   = link{table: "team_members", ownerCol: "team_id", refCol: "worker_id"}
	projectTeams  = link{table: "project_teams", ownerCol: "project_id", refCol: "team_id"}
	taskAssignees = link{table: "task_assignees", ownerCol: "task_id", refCol: "worker_id"}
)

// replace swaps the owner's linked ids for ids.
func (l link) replace(ctx context.Context, s *Store, ownerID int64, ids []int64) error {
	op := "set " + l.table
	if _, err := s.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, l.table, l.ownerCol), ownerID); err != nil {
		return s.fail(op, err)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s(%s, %s) VALUES(?, ?)`, l.table, l.ownerCol, l.refCol)
	for _, id := range ids {
		if _, err := s.exec(ctx, stmt, ownerID, id); err != nil {
			return s.fail(op, err)
		}
	}
	return nil
}

// load returns the owner's linked ids in ascending order, never nil.
func (l link) load(ctx context.Context, s *Store, ownerID int64) ([]int64, error) {
	op := "list " + l.table
	rows, err := s.query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY %s`, l.refCol, l.table, l.ownerCol, l.refCol), ownerID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	ids, err := collect(rows, func(r rowScanner) (int64, error) {
		var id int64
		err := r.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
