package handlers

import (
	"net/http"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/services"
	"github.com/diewo77/ca-practice/internal/store"
	"go.uber.org/zap"
)

type ClientHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewClientHandler(s *store.Store, log *zap.Logger) *ClientHandler {
	return &ClientHandler{store: s, log: log}
}

// List: GET /api/clients[?status=]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.Clients.List(r.Context(), filterFrom(r, "status"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Clients.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := decodeClient(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.store.Clients.Create(r.Context(), c); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	created, err := h.store.Clients.Get(r.Context(), c.ID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Update replaces every mutable field of the client.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := decodeClient(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	updated, err := h.store.Clients.Update(r.Context(), pathID(r), c)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clients.Delete(r.Context(), pathID(r)); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Message(w, "Client deleted successfully")
}

// Export: GET /api/export/clients
func (h *ClientHandler) Export(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.Clients.List(r.Context(), filterFrom(r, "status"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="clients.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := services.WriteClientsCSV(w, clients); err != nil {
		h.log.Error("export clients", zap.Error(err))
	}
}

func decodeClient(r *http.Request) (*models.Client, error) {
	var c models.Client
	if err := httpx.DecodeJSON(r, &c); err != nil {
		return nil, err
	}
	c.ID = ""
	if err := services.ValidateClient(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
