package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Op tells validators whether a record is being created or edited.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, ok := PriorityRanks[Priority(fl.Field().String())]
		return ok
	})
	_ = v.RegisterValidation("projectstatus", func(fl validator.FieldLevel) bool {
		_, ok := ValidProjectStatuses[ProjectStatus(fl.Field().String())]
		return ok
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// fieldErrors converts validator output into a ValidationError.
func fieldErrors(err error, into *ValidationError) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		into.Add("non_field_errors", err.Error())
		return
	}
	for _, fe := range verrs {
		into.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
	case "eqfield":
		return "the two password fields didn't match"
	case "priority", "projectstatus":
		return fmt.Sprintf("%q is not one of the available choices", fe.Value())
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	case "gt":
		return "must reference an existing record"
	default:
		return "invalid value"
	}
}

// PositionInput is the writable form of a Position.
type PositionInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Validate trims the name and checks it.
func (in *PositionInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	var ve ValidationError
	fieldErrors(validate.Struct(in), &ve)
	return ve.OrNil()
}

// TaskTypeInput is the writable form of a TaskType.
type TaskTypeInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Validate trims the name and checks it.
func (in *TaskTypeInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	var ve ValidationError
	fieldErrors(validate.Struct(in), &ve)
	return ve.OrNil()
}

// WorkerInput carries registration and profile edits. Username is fixed after creation.
type WorkerInput struct {
	Username        string `json:"username" validate:"required,max=150,username"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	PositionID      *int64 `json:"position_id" validate:"required"`
	Password        string `json:"password" validate:"omitempty,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
}

// Validate checks the input for op. A password is required on create and optional on
// update, where an empty one keeps the current password.
func (in *WorkerInput) Validate(op Op) error {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var ve ValidationError
	if op == OpCreate {
		fieldErrors(validate.Struct(in), &ve)
		if in.Password == "" {
			ve.Add("password", "this field is required")
		}
	} else {
		fieldErrors(validate.StructExcept(in, "Username"), &ve)
	}
	if in.PositionID != nil && *in.PositionID <= 0 {
		ve.Add("position_id", "must reference an existing record")
	}
	return ve.OrNil()
}

// TeamInput is the writable form of a Team.
type TeamInput struct {
	Name      string  `json:"name" validate:"required,max=255"`
	MemberIDs []int64 `json:"member_ids" validate:"dive,gt=0"`
}

// Validate trims the name and removes duplicate member ids.
func (in *TeamInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.MemberIDs = uniqueIDs(in.MemberIDs)
	var ve ValidationError
	fieldErrors(validate.Struct(in), &ve)
	return ve.OrNil()
}

// ProjectInput is the writable form of a Project.
type ProjectInput struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status" validate:"omitempty,projectstatus"`
	TeamIDs     []int64       `json:"team_ids" validate:"dive,gt=0"`
}

// Validate checks the input. A project can never start out completed; that state is
// only reached through its tasks. An empty status defaults to working on create and
// is left empty on update so the caller keeps the stored one.
func (in *ProjectInput) Validate(op Op) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.TeamIDs = uniqueIDs(in.TeamIDs)
	if op == OpCreate && in.Status == "" {
		in.Status = StatusWorking
	}

	var ve ValidationError
	fieldErrors(validate.Struct(in), &ve)
	if op == OpCreate && in.Status == StatusCompleted {
		ve.Add("status", "status can't be set as 'completed' during project creation")
	}
	return ve.OrNil()
}

// TaskInput is the writable form of a Task.
type TaskInput struct {
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	IsCompleted bool      `json:"is_completed"`
	Priority    Priority  `json:"priority" validate:"required,priority"`
	TaskTypeID  int64     `json:"task_type_id" validate:"required,gt=0"`
	ProjectID   int64     `json:"project_id" validate:"required,gt=0"`
	AssigneeIDs []int64   `json:"assignee_ids" validate:"dive,gt=0"`
}

// Validate checks the input against now. When previous is set (an edit), an unchanged
// deadline is accepted even if it has already lapsed.
func (in *TaskInput) Validate(now time.Time, previous *time.Time) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.AssigneeIDs = uniqueIDs(in.AssigneeIDs)

	var ve ValidationError
	fieldErrors(validate.Struct(in), &ve)

	switch {
	case in.Deadline.IsZero():
		ve.Add("deadline", "this field is required")
	case previous != nil && previous.Equal(in.Deadline):
	case in.Deadline.Before(now):
		ve.Add("deadline", "deadline can't be earlier than current date")
	}
	return ve.OrNil()
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
