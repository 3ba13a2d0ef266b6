package handlers

import (
	"net/http"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/services"
	"github.com/diewo77/ca-practice/internal/store"
	"go.uber.org/zap"
)

type TaskHandler struct {
	store    *store.Store
	tasks    *services.TaskService
	notifier services.Notifier
	log      *zap.Logger
	now      Clock
}

func NewTaskHandler(s *store.Store, tasks *services.TaskService, n services.Notifier, log *zap.Logger, now Clock) *TaskHandler {
	return &TaskHandler{store: s, tasks: tasks, notifier: n, log: log, now: now}
}

// taskRequest shadows DueDate so date-only values are accepted.
type taskRequest struct {
	models.Task
	DueDate flexTime `json:"due_date"`
}

// List: GET /api/tasks[?status=&task_type=&client_id=&assignee_id=]
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.Tasks.List(r.Context(), filterFrom(r, "status", "task_type", "client_id", "assignee_id"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Tasks.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, err := h.decode(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.store.Tasks.Create(r.Context(), t); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	created, err := h.store.Tasks.Get(r.Context(), t.ID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, err := h.decode(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	updated, err := h.store.Tasks.Update(r.Context(), pathID(r), t)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Tasks.Delete(r.Context(), pathID(r)); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Message(w, "Task deleted successfully")
}

// AdvanceStage: POST /api/tasks/{id}/advance-stage
func (h *TaskHandler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	t, err := h.tasks.AdvanceStage(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

// Remind: POST /api/notifications/deadline-reminder/{id}
func (h *TaskHandler) Remind(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Tasks.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	c, err := h.store.Clients.Get(r.Context(), t.ClientID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	days := int(t.DueDate.Sub(h.now()).Hours() / 24)
	if err := h.notifier.DeadlineReminder(r.Context(), c.Email, *t, days); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "to": c.Email, "task_id": t.ID})
}

func (h *TaskHandler) decode(r *http.Request) (*models.Task, error) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	t := req.Task
	t.DueDate = req.DueDate.Time
	t.ID = ""
	t.ClientName = ""

	if err := h.tasks.Prepare(r.Context(), &t); err != nil {
		return nil, err
	}
	return &t, nil
}
