package projectstatus

import (
	"context"
	"errors"
	"testing"

	"manager/internal/models"
)

// --- Mock repository ---

type mockRepo struct {
	projects map[int64]models.Project
	tasks    map[int64][]models.Task
	writes   int
	listErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		projects: map[int64]models.Project{},
		tasks:    map[int64][]models.Task{},
	}
}

func (r *mockRepo) GetProjectForUpdate(_ context.Context, id int64) (models.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return models.Project{}, models.ErrNotFound
	}
	return p, nil
}

func (r *mockRepo) ListTasksByProject(_ context.Context, id int64) ([]models.Task, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.tasks[id], nil
}

func (r *mockRepo) UpdateProjectStatus(_ context.Context, id int64, status models.ProjectStatus) error {
	p, ok := r.projects[id]
	if !ok {
		return models.ErrNotFound
	}
	p.Status = status
	r.projects[id] = p
	r.writes++
	return nil
}

func (r *mockRepo) addTasks(projectID int64, done ...bool) {
	for _, d := range done {
		r.tasks[projectID] = append(r.tasks[projectID], models.Task{
			ID:          int64(len(r.tasks[projectID]) + 1),
			ProjectID:   projectID,
			IsCompleted: d,
		})
	}
}

func newAggregator(repo *mockRepo) *Aggregator {
	return New(func(ctx context.Context, fn func(Repository) error) error {
		return fn(repo)
	}, nil)
}

func TestRecompute_EmptyTaskSetIsWorking(t *testing.T) {
	repo := newMockRepo()
	repo.projects[1] = models.Project{ID: 1, Status: models.StatusCompleted}

	got, err := newAggregator(repo).Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if got != models.StatusWorking {
		t.Errorf("status = %q, want working", got)
	}
	if repo.projects[1].Status != models.StatusWorking {
		t.Errorf("stored status = %q, want working", repo.projects[1].Status)
	}
}

func TestRecompute_AllCompletedIsCompleted(t *testing.T) {
	repo := newMockRepo()
	repo.projects[1] = models.Project{ID: 1, Status: models.StatusWorking}
	repo.addTasks(1, true, true, true)

	got, err := newAggregator(repo).Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if got != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
	if repo.writes != 1 {
		t.Errorf("writes = %d, want 1", repo.writes)
	}
}

func TestRecompute_OneOpenTaskIsWorking(t *testing.T) {
	repo := newMockRepo()
	repo.projects[1] = models.Project{ID: 1, Status: models.StatusCompleted}
	repo.addTasks(1, true, false, true)

	got, err := newAggregator(repo).Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if got != models.StatusWorking {
		t.Errorf("status = %q, want working", got)
	}
}

func TestRecompute_IsIdempotent(t *testing.T) {
	repo := newMockRepo()
	repo.projects[1] = models.Project{ID: 1, Status: models.StatusWorking}
	repo.addTasks(1, true)
	agg := newAggregator(repo)

	for i := 0; i < 3; i++ {
		got, err := agg.Recompute(context.Background(), 1)
		if err != nil {
			t.Fatalf("Recompute #%d failed: %v", i, err)
		}
		if got != models.StatusCompleted {
			t.Fatalf("Recompute #%d status = %q, want completed", i, got)
		}
	}
	if repo.writes != 1 {
		t.Errorf("writes = %d, want exactly one write for an unchanged status", repo.writes)
	}
}

func TestRecompute_LeavesCanceledAlone(t *testing.T) {
	repo := newMockRepo()
	repo.projects[1] = models.Project{ID: 1, Status: models.StatusCanceled}
	repo.addTasks(1, true, true)

	got, err := newAggregator(repo).Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if got != models.StatusCanceled {
		t.Errorf("status = %q, want canceled", got)
	}
	if repo.writes != 0 {
		t.Errorf("writes = %d, want 0", repo.writes)
	}
}

func TestRecompute_MissingProject(t *testing.T) {
	repo := newMockRepo()

	_, err := newAggregator(repo).Recompute(context.Background(), 42)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecompute_PropagatesStoreErrors(t *testing.T) {
	repo := newMockRepo()
	repo.projects[1] = models.Project{ID: 1, Status: models.StatusWorking}
	boom := &models.PersistenceError{Op: "list project tasks", Err: errors.New("disk I/O error")}
	repo.listErr = boom

	_, err := newAggregator(repo).Recompute(context.Background(), 1)
	var pe *models.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if repo.projects[1].Status != models.StatusWorking {
		t.Error("status should be untouched after a failed read")
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		done []bool
		want models.ProjectStatus
	}{
		{"empty", nil, models.StatusWorking},
		{"single open", []bool{false}, models.StatusWorking},
		{"single done", []bool{true}, models.StatusCompleted},
		{"mixed", []bool{true, false}, models.StatusWorking},
		{"all done", []bool{true, true, true}, models.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := make([]models.Task, len(tt.done))
			for i, d := range tt.done {
				tasks[i].IsCompleted = d
			}
			if got := Derive(tasks); got != tt.want {
				t.Errorf("Derive = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	tasks := []models.Task{{IsCompleted: true}, {IsCompleted: false}, {IsCompleted: false}}
	completed, total, percent := Progress(tasks)
	if completed != 1 || total != 3 || percent != 33 {
		t.Errorf("Progress = (%d, %d, %d), want (1, 3, 33)", completed, total, percent)
	}

	tasks = append(tasks, models.Task{IsCompleted: true})
	if _, _, percent = Progress(tasks); percent != 50 {
		t.Errorf("percent = %d, want 50", percent)
	}

	if c, n, p := Progress(nil); c != 0 || n != 0 || p != 0 {
		t.Errorf("Progress(nil) = (%d, %d, %d), want zeros", c, n, p)
	}
}
