package models

import (
	"fmt"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusWorking   ProjectStatus = "working"
	StatusCompleted ProjectStatus = "completed"
	StatusCanceled  ProjectStatus = "canceled"
)

// ValidProjectStatuses enumerates the statuses a project may hold.
var ValidProjectStatuses = map[ProjectStatus]struct{}{
	StatusWorking:   {},
	StatusCompleted: {},
	StatusCanceled:  {},
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// PriorityRanks orders priorities from least to most pressing.
var PriorityRanks = map[Priority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityUrgent:   4,
	PriorityCritical: 5,
}

// Position is a role category workers can hold.
type Position struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkerCount int64  `json:"worker_count"`
}

func (p Position) String() string { return p.Name }

// Worker is an account that can sign in, join teams and be assigned tasks.
type Worker struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PositionID   *int64    `json:"position_id"`
	IsStaff      bool      `json:"is_staff"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

func (w Worker) String() string {
	return fmt.Sprintf("%s (%s %s)", w.Username, w.FirstName, w.LastName)
}

// TaskType is a category of tasks.
type TaskType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (t TaskType) String() string { return t.Name }

// Team groups workers.
type Team struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids"`
}

func (t Team) String() string { return t.Name }

// Project is a named effort whose status is derived from its tasks.
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	TeamIDs     []int64       `json:"team_ids"`
}

func (p Project) String() string { return p.Name }

// Task is a unit of work owned by exactly one project.
type Task struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	IsCompleted bool      `json:"is_completed"`
	Priority    Priority  `json:"priority"`
	TaskTypeID  int64     `json:"task_type_id"`
	ProjectID   int64     `json:"project_id"`
	AssigneeIDs []int64   `json:"assignee_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t Task) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.Priority)
}

// Stats summarises the whole workspace for the dashboard.
type Stats struct {
	Workers        int64 `json:"num_workers"`
	Tasks          int64 `json:"num_tasks"`
	CompletedTasks int64 `json:"num_of_done_tasks"`
}
