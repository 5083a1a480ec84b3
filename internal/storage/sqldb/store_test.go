package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"manager/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "data", "test.db")}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var firstPage = models.ListQuery{Page: 1, PageSize: 10}

func mustPosition(t *testing.T, s *Store, name string) models.Position {
	t.Helper()
	p, err := s.CreatePosition(context.Background(), name)
	if err != nil {
		t.Fatalf("CreatePosition(%q) failed: %v", name, err)
	}
	return p
}

func mustWorker(t *testing.T, s *Store, username string, positionID *int64) models.Worker {
	t.Helper()
	w, err := s.CreateWorker(context.Background(), models.Worker{
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last",
		PositionID:   positionID,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateWorker(%q) failed: %v", username, err)
	}
	return w
}

func mustTaskType(t *testing.T, s *Store, name string) models.TaskType {
	t.Helper()
	tt, err := s.CreateTaskType(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateTaskType(%q) failed: %v", name, err)
	}
	return tt
}

func mustProject(t *testing.T, s *Store, name string) models.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), models.Project{Name: name})
	if err != nil {
		t.Fatalf("CreateProject(%q) failed: %v", name, err)
	}
	return p
}

func mustTask(t *testing.T, s *Store, name string, typeID, projectID int64, priority models.Priority, deadline time.Time) models.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), models.Task{
		Name:       name,
		Deadline:   deadline,
		Priority:   priority,
		TaskTypeID: typeID,
		ProjectID:  projectID,
	})
	if err != nil {
		t.Fatalf("CreateTask(%q) failed: %v", name, err)
	}
	return task
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle", DSN: "x"}, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, err := Open(Options{Driver: DriverSQLite}, nil); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestPostgresRebind(t *testing.T) {
	got := postgresDialect.rebind(`SELECT * FROM tasks WHERE project_id = ? AND name LIKE ? LIMIT ? OFFSET ?`)
	want := `SELECT * FROM tasks WHERE project_id = $1 AND name LIKE $2 LIMIT $3 OFFSET $4`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
	if q := sqliteDialect.rebind("SELECT ?"); q != "SELECT ?" {
		t.Errorf("sqlite rebind changed the query: %q", q)
	}
}

func TestPositions_CRUDAndConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := mustPosition(t, s, "Developer")
	if p.ID == 0 || p.Name != "Developer" || p.WorkerCount != 0 {
		t.Fatalf("created position = %+v", p)
	}

	if _, err := s.CreatePosition(ctx, "Developer"); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate name: err = %v, want ErrConflict", err)
	}

	updated, err := s.UpdatePosition(ctx, p.ID, "Engineer")
	if err != nil {
		t.Fatalf("UpdatePosition failed: %v", err)
	}
	if updated.Name != "Engineer" {
		t.Errorf("Name = %q, want Engineer", updated.Name)
	}

	if _, err := s.UpdatePosition(ctx, 999, "Nobody"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
	if err := s.DeletePosition(ctx, 999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("delete missing: err = %v, want ErrNotFound", err)
	}
}

func TestDeletePosition_ClearsWorkerPosition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := mustPosition(t, s, "Designer")
	w := mustWorker(t, s, "ann", &p.ID)

	got, err := s.GetPosition(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if got.WorkerCount != 1 {
		t.Errorf("WorkerCount = %d, want 1", got.WorkerCount)
	}

	if err := s.DeletePosition(ctx, p.ID); err != nil {
		t.Fatalf("DeletePosition failed: %v", err)
	}
	after, err := s.GetWorker(ctx, w.ID)
	if err != nil {
		t.Fatalf("worker should survive position deletion: %v", err)
	}
	if after.PositionID != nil {
		t.Errorf("PositionID = %v, want nil", *after.PositionID)
	}
}

func TestWorkers_SearchAndPasswordKeep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustWorker(t, s, "alice", nil)
	bob := mustWorker(t, s, "bob", nil)
	mustWorker(t, s, "carol_100%", nil)

	page, err := s.ListWorkers(ctx, models.ListQuery{Keyword: "ALI", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListWorkers failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].Username != "alice" {
		t.Errorf("keyword search = %+v", page.Items)
	}

	page, err = s.ListWorkers(ctx, models.ListQuery{Keyword: "%", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListWorkers failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].Username != "carol_100%" {
		t.Errorf("wildcard should match literally, got %+v", page.Items)
	}

	if _, err := s.CreateWorker(ctx, models.Worker{Username: "bob", PasswordHash: "x"}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate username: err = %v, want ErrConflict", err)
	}

	bob.FirstName = "Robert"
	bob.PasswordHash = ""
	updated, err := s.UpdateWorker(ctx, bob)
	if err != nil {
		t.Fatalf("UpdateWorker failed: %v", err)
	}
	if updated.FirstName != "Robert" || updated.PasswordHash != "hash" {
		t.Errorf("updated = %+v, want new name and unchanged hash", updated)
	}

	missing := int64(404)
	bob.PositionID = &missing
	var ve *models.ValidationError
	if _, err := s.UpdateWorker(ctx, bob); !errors.As(err, &ve) {
		t.Errorf("unknown position: err = %v, want ValidationError", err)
	}
}

func TestTeams_Members(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := mustWorker(t, s, "a", nil)
	b := mustWorker(t, s, "b", nil)

	team, err := s.CreateTeam(ctx, models.Team{Name: "Core", MemberIDs: []int64{b.ID, a.ID}})
	if err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}
	if len(team.MemberIDs) != 2 || team.MemberIDs[0] != a.ID {
		t.Errorf("MemberIDs = %v, want sorted [%d %d]", team.MemberIDs, a.ID, b.ID)
	}

	if err := s.DeleteWorker(ctx, a.ID); err != nil {
		t.Fatalf("DeleteWorker failed: %v", err)
	}
	team, err = s.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam failed: %v", err)
	}
	if len(team.MemberIDs) != 1 || team.MemberIDs[0] != b.ID {
		t.Errorf("MemberIDs after delete = %v, want [%d]", team.MemberIDs, b.ID)
	}

	var ve *models.ValidationError
	if _, err := s.CreateTeam(ctx, models.Team{Name: "Ghosts", MemberIDs: []int64{999}}); !errors.As(err, &ve) {
		t.Errorf("unknown member: err = %v, want ValidationError", err)
	}
}

func TestTasks_OrderingAndCompletion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tt := mustTaskType(t, s, "Bug")
	p := mustProject(t, s, "Apollo")
	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	mustTask(t, s, "low soon", tt.ID, p.ID, models.PriorityLow, base)
	mustTask(t, s, "critical", tt.ID, p.ID, models.PriorityCritical, base)
	mustTask(t, s, "high late", tt.ID, p.ID, models.PriorityHigh, base.Add(48*time.Hour))
	high := mustTask(t, s, "high early", tt.ID, p.ID, models.PriorityHigh, base.Add(24*time.Hour))

	tasks, err := s.ListTasksByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTasksByProject failed: %v", err)
	}
	var names []string
	for _, task := range tasks {
		names = append(names, task.Name)
	}
	want := []string{"critical", "high late", "high early", "low soon"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}

	if !high.Deadline.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("Deadline = %v, want round trip", high.Deadline)
	}

	done, err := s.SetTaskCompleted(ctx, high.ID, true)
	if err != nil {
		t.Fatalf("SetTaskCompleted failed: %v", err)
	}
	if !done.IsCompleted {
		t.Error("task should be completed")
	}
	if _, err := s.SetTaskCompleted(ctx, 999, true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing task: err = %v, want ErrNotFound", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Tasks != 4 || stats.CompletedTasks != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestCreateTask_RejectsUnknownReferences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, models.Task{
		Name:        "orphan",
		Deadline:    time.Now().Add(time.Hour),
		Priority:    models.PriorityLow,
		TaskTypeID:  7,
		ProjectID:   8,
		AssigneeIDs: []int64{9},
	})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, f := range []string{"task_type_id", "project_id", "assignee_ids"} {
		if _, ok := ve.Fields[f]; !ok {
			t.Errorf("expected %s error, got %v", f, ve.Fields)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Tasks != 0 {
		t.Errorf("no task row should be written, found %d", stats.Tasks)
	}
}

func TestDeleteTaskType_CascadesAndReportsProjects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bug := mustTaskType(t, s, "Bug")
	feature := mustTaskType(t, s, "Feature")
	p1 := mustProject(t, s, "One")
	p2 := mustProject(t, s, "Two")
	deadline := time.Now().Add(time.Hour)

	mustTask(t, s, "b1", bug.ID, p1.ID, models.PriorityLow, deadline)
	mustTask(t, s, "b2", bug.ID, p2.ID, models.PriorityLow, deadline)
	mustTask(t, s, "b3", bug.ID, p2.ID, models.PriorityLow, deadline)
	keep := mustTask(t, s, "f1", feature.ID, p2.ID, models.PriorityLow, deadline)

	affected, err := s.DeleteTaskType(ctx, bug.ID)
	if err != nil {
		t.Fatalf("DeleteTaskType failed: %v", err)
	}
	if len(affected) != 2 || affected[0] != p1.ID || affected[1] != p2.ID {
		t.Errorf("affected = %v, want [%d %d]", affected, p1.ID, p2.ID)
	}

	remaining, err := s.ListTasksByProject(ctx, p2.ID)
	if err != nil {
		t.Fatalf("ListTasksByProject failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Errorf("remaining = %+v, want only %d", remaining, keep.ID)
	}

	if _, err := s.DeleteTaskType(ctx, bug.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTask_ReturnsRemovedTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tt := mustTaskType(t, s, "Chore")
	p := mustProject(t, s, "Cleanup")
	task := mustTask(t, s, "sweep", tt.ID, p.ID, models.PriorityMedium, time.Now().Add(time.Hour))

	removed, err := s.DeleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if removed.ProjectID != p.ID {
		t.Errorf("ProjectID = %d, want %d", removed.ProjectID, p.ID)
	}
	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetTask after delete: err = %v, want ErrNotFound", err)
	}
}

func TestListProjects_PaginationAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Gamma", "alpha", "Beta", "Alphabet"} {
		mustProject(t, s, name)
	}

	page, err := s.ListProjects(ctx, models.ListQuery{Keyword: "alpha", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("keyword total = %d, want 2", page.Total)
	}

	page, err = s.ListProjects(ctx, models.ListQuery{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("ListProjects page 2 failed: %v", err)
	}
	if len(page.Items) != 1 || page.TotalPages != 2 {
		t.Errorf("page 2 = %+v", page)
	}

	if _, err := s.ListProjects(ctx, models.ListQuery{Page: 5, PageSize: 3}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("page past end: err = %v, want ErrNotFound", err)
	}

	empty, err := s.ListTaskTypes(ctx, firstPage)
	if err != nil {
		t.Fatalf("empty listing failed: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Errorf("expected no task types, got %d", len(empty.Items))
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Atomic")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.UpdateProjectStatus(ctx, p.ID, models.StatusCanceled); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Status != models.StatusWorking {
		t.Errorf("Status = %q, want rollback to working", got.Status)
	}
}
