package handlers

import (
	"net/http"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
)

// QueryHandler serves the questions raised to clients while a task is open.
type QueryHandler struct {
	store *store.Store
	log   *zap.Logger
	now   Clock
}

func NewQueryHandler(s *store.Store, log *zap.Logger, now Clock) *QueryHandler {
	return &QueryHandler{store: s, log: log, now: now}
}

// List: GET /api/queries[?status=&task_id=&client_id=]
func (h *QueryHandler) List(w http.ResponseWriter, r *http.Request) {
	qs, err := h.store.Queries.List(r.Context(), filterFrom(r, "status", "task_id", "client_id"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, qs)
}

func (h *QueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.Queries.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QueryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var q models.Query
	if err := httpx.DecodeJSON(r, &q); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	v := validation.Violations{}
	validation.Required("task_id", q.TaskID, v)
	validation.Required("client_id", q.ClientID, v)
	validation.Required("query_text", q.QueryText, v)
	validation.Required("raised_by", q.RaisedBy, v)
	validation.OneOf("status", q.Status, models.QueryStatuses, v)
	if err := v.Err(); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	q = models.Query{
		TaskID:    q.TaskID,
		ClientID:  q.ClientID,
		QueryText: q.QueryText,
		RaisedBy:  q.RaisedBy,
		Status:    q.Status,
		RaisedAt:  h.now().UTC(),
	}
	if err := h.store.Queries.Create(r.Context(), &q); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	created, err := h.store.Queries.Get(r.Context(), q.ID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Respond: POST /api/queries/{id}/respond {"response": "..."}
func (h *QueryHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Response string `json:"response"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	v := validation.Violations{}
	validation.Required("response", body.Response, v)
	if err := v.Err(); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	id := pathID(r)
	at := h.now().UTC()
	err := h.store.Transaction(r.Context(), func(tx *store.Store) error {
		q, err := tx.Queries.Get(r.Context(), id)
		if err != nil {
			return err
		}
		if q.Status == models.QueryClosed {
			return apperr.InvalidFormat("status", "query is closed")
		}
		return tx.Queries.UpdateColumns(r.Context(), id, map[string]any{
			"response":     body.Response,
			"responded_at": &at,
			"status":       models.QueryResolved,
		})
	})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	updated, err := h.store.Queries.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
