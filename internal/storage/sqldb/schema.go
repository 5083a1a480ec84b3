package sqldb

import (
	"context"
	"fmt"
	"strings"
)

type dialect struct {
	driver string
	// forUpdate is appended to SELECTs that must lock the row until commit.
	forUpdate string
	types     *strings.Replacer
	numbered  bool
}

var sqliteDialect = dialect{
	driver: DriverSQLite,
	types: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{timestamp}}", "DATETIME",
		"{{false}}", "0",
	),
}

var postgresDialect = dialect{
	driver:    DriverPostgres,
	forUpdate: " FOR UPDATE",
	types: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{timestamp}}", "TIMESTAMPTZ",
		"{{false}}", "FALSE",
	),
	numbered: true,
}

// rebind rewrites ? placeholders into the $N form PostgreSQL expects.
func (d dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(placeholderIndex(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS positions (
            id {{pk}},
            name TEXT NOT NULL UNIQUE
        )`,
	`CREATE TABLE IF NOT EXISTS workers (
            id {{pk}},
            username TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            position_id {{ref}} REFERENCES positions(id) ON DELETE SET NULL,
            is_staff BOOLEAN NOT NULL DEFAULT {{false}},
            password_hash TEXT NOT NULL,
            date_joined {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS task_types (
            id {{pk}},
            name TEXT NOT NULL UNIQUE
        )`,
	`CREATE TABLE IF NOT EXISTS teams (
            id {{pk}},
            name TEXT NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS team_members (
            team_id {{ref}} NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
            worker_id {{ref}} NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
            PRIMARY KEY (team_id, worker_id)
        )`,
	`CREATE TABLE IF NOT EXISTS projects (
            id {{pk}},
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'working' CHECK (status IN ('working', 'completed', 'canceled'))
        )`,
	`CREATE TABLE IF NOT EXISTS project_teams (
            project_id {{ref}} NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
            team_id {{ref}} NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
            PRIMARY KEY (project_id, team_id)
        )`,
	`CREATE TABLE IF NOT EXISTS tasks (
            id {{pk}},
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            deadline {{timestamp}} NOT NULL,
            is_completed BOOLEAN NOT NULL DEFAULT {{false}},
            priority TEXT NOT NULL CHECK (priority IN ('low', 'medium', 'high', 'urgent', 'critical')),
            task_type_id {{ref}} NOT NULL REFERENCES task_types(id) ON DELETE CASCADE,
            project_id {{ref}} NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
            created_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS task_assignees (
            task_id {{ref}} NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
            worker_id {{ref}} NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
            PRIMARY KEY (task_id, worker_id)
        )`,
	`CREATE INDEX IF NOT EXISTS idx_workers_position ON workers(position_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project_completed ON tasks(project_id, is_completed)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_task_type ON tasks(task_type_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_assignees_worker ON task_assignees(worker_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_worker ON team_members(worker_id)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, s.dialect.types.Replace(stmt)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
