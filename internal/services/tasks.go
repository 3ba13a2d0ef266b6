package services

import (
	"context"
	"strings"

	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
)

type TaskService struct {
	store *store.Store
}

func NewTaskService(s *store.Store) *TaskService {
	return &TaskService{store: s}
}

// Prepare validates t, fills its defaults and resolves its assignee. An
// explicit assignee_id must name an existing staff member, whose name then
// replaces assigned_to.
func (s *TaskService) Prepare(ctx context.Context, t *models.Task) error {
	v := validation.Violations{}
	validation.Required("title", t.Title, v)
	validation.Required("client_id", t.ClientID, v)
	validation.Required("task_type", string(t.TaskType), v)
	validation.RequiredFunc("due_date", !t.DueDate.IsZero(), v)
	validation.OneOf("task_type", t.TaskType, models.TaskTypes, v)
	validation.OneOf("status", t.Status, models.TaskStatuses, v)
	validation.OneOf("priority", t.Priority, models.Priorities, v)
	if t.Quarter != 0 && (t.Quarter < 1 || t.Quarter > 4) {
		v["quarter"] = "out_of_range"
	}
	if err := v.Err(); err != nil {
		return err
	}
	stage, err := compliance.ParseWIPStage(string(t.WIPStage))
	if err != nil {
		return err
	}
	t.WIPStage = stage

	if err := s.ResolveAssignee(ctx, t); err != nil {
		return err
	}
	if t.AssigneeID != nil {
		st, err := s.store.Staff.Get(ctx, *t.AssigneeID)
		if err != nil {
			return err
		}
		t.AssignedTo = st.Name
	}
	t.Normalize()
	return nil
}

// ResolveAssignee links a task that names its assignee by AssignedTo alone to
// the staff member with exactly that name. Unmatched names stay as a label.
func (s *TaskService) ResolveAssignee(ctx context.Context, t *models.Task) error {
	if t.AssigneeID != nil && *t.AssigneeID != "" {
		return nil
	}
	t.AssigneeID = nil
	name := strings.TrimSpace(t.AssignedTo)
	if name == "" {
		return nil
	}
	st, ok, err := s.store.StaffByName(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		t.AssigneeID = &st.ID
		t.AssignedTo = st.Name
	}
	return nil
}

// AdvanceStage moves a task to its next WIP stage. Reaching the last stage
// completes the task; advancing a completed pipeline changes nothing.
func (s *TaskService) AdvanceStage(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.store.Tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stage := t.WIPStage
	if stage == "" {
		stage = compliance.StageDataCollection
	}
	next, err := compliance.NextStage(stage)
	if err != nil {
		return nil, err
	}
	if next == t.WIPStage {
		return t, nil
	}
	cols := map[string]any{"wip_stage": next}
	if next == compliance.StageCompleted {
		cols["status"] = models.TaskCompleted
	}
	if err := s.store.Tasks.UpdateColumns(ctx, id, cols); err != nil {
		return nil, err
	}
	return s.store.Tasks.Get(ctx, id)
}
