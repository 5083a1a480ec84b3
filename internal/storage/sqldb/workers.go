package sqldb

import (
	"context"
	"database/sql"
	"time"

	"manager/internal/models"
)

const workerColumns = `id, username, first_name, last_name, position_id, is_staff, password_hash, date_joined`

// ListWorkers returns workers whose username, first or last name contains the keyword.
func (s *Store) ListWorkers(ctx context.Context, q models.ListQuery) (models.Page[models.Worker], error) {
	where, args := keywordFilter(q.Keyword, "username", "first_name", "last_name")
	return listPage(ctx, s, "list workers", q,
		`SELECT COUNT(*) FROM workers`+where,
		`SELECT `+workerColumns+` FROM workers`+where+` ORDER BY id`,
		args, scanWorker)
}

// GetWorker fetches a single worker by id.
func (s *Store) GetWorker(ctx context.Context, id int64) (models.Worker, error) {
	w, err := scanWorker(s.queryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id))
	if err != nil {
		return models.Worker{}, s.fail("get worker", err)
	}
	return w, nil
}

// GetWorkerByUsername looks a worker up for sign-in.
func (s *Store) GetWorkerByUsername(ctx context.Context, username string) (models.Worker, error) {
	w, err := scanWorker(s.queryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE username = ?`, username))
	if err != nil {
		return models.Worker{}, s.fail("get worker", err)
	}
	return w, nil
}

// CountWorkers returns the number of accounts.
func (s *Store) CountWorkers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM workers`).Scan(&n); err != nil {
		return 0, s.fail("count workers", err)
	}
	return n, nil
}

// CreateWorker registers an account. PasswordHash must already be set.
func (s *Store) CreateWorker(ctx context.Context, w models.Worker) (models.Worker, error) {
	if w.DateJoined.IsZero() {
		w.DateJoined = time.Now().UTC().Truncate(time.Microsecond)
	}

	var id int64
	err := s.WithinTx(ctx, func(tx *Store) error {
		if w.PositionID != nil {
			if err := tx.requireIDs(ctx, "positions", "position_id", *w.PositionID); err != nil {
				return err
			}
		}
		var err error
		id, err = tx.insert(ctx, `INSERT INTO workers(username, first_name, last_name, position_id, is_staff, password_hash, date_joined)
            VALUES(?, ?, ?, ?, ?, ?, ?)`,
			w.Username, w.FirstName, w.LastName, nullableID(w.PositionID), w.IsStaff, w.PasswordHash, w.DateJoined)
		if err != nil {
			return tx.fail("insert worker", err)
		}
		return nil
	})
	if err != nil {
		return models.Worker{}, err
	}
	return s.GetWorker(ctx, id)
}

// UpdateWorker edits a worker's profile. An empty PasswordHash keeps the current password.
func (s *Store) UpdateWorker(ctx context.Context, w models.Worker) (models.Worker, error) {
	err := s.WithinTx(ctx, func(tx *Store) error {
		if w.PositionID != nil {
			if err := tx.requireIDs(ctx, "positions", "position_id", *w.PositionID); err != nil {
				return err
			}
		}
		if w.PasswordHash == "" {
			return tx.execOne(ctx, "update worker", `UPDATE workers SET first_name = ?, last_name = ?, position_id = ? WHERE id = ?`,
				w.FirstName, w.LastName, nullableID(w.PositionID), w.ID)
		}
		return tx.execOne(ctx, "update worker", `UPDATE workers SET first_name = ?, last_name = ?, position_id = ?, password_hash = ? WHERE id = ?`,
			w.FirstName, w.LastName, nullableID(w.PositionID), w.PasswordHash, w.ID)
	})
	if err != nil {
		return models.Worker{}, err
	}
	return s.GetWorker(ctx, w.ID)
}

// DeleteWorker removes an account along with its team memberships and task assignments.
func (s *Store) DeleteWorker(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete worker", `DELETE FROM workers WHERE id = ?`, id)
}

func scanWorker(r rowScanner) (models.Worker, error) {
	var (
		w        models.Worker
		position sql.NullInt64
	)
	if err := r.Scan(&w.ID, &w.Username, &w.FirstName, &w.LastName, &position, &w.IsStaff, &w.PasswordHash, &w.DateJoined); err != nil {
		return models.Worker{}, err
	}
	w.PositionID = idPtr(position)
	return w, nil
}
