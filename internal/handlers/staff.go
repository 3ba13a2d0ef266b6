package handlers

import (
	"fmt"
	"net/http"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen applies to staff passwords set through the API.
const minPasswordLen = 8

type StaffHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewStaffHandler(s *store.Store, log *zap.Logger) *StaffHandler {
	return &StaffHandler{store: s, log: log}
}

type staffRequest struct {
	models.Staff
	JoinedDate flexTime `json:"joined_date"`
	Password   string   `json:"password,omitempty"`
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	staff, err := h.store.Staff.List(r.Context(), nil)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, staff)
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Staff.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, err := decodeStaff(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.store.Staff.Create(r.Context(), st); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

// Update replaces a staff member. The joined date and password hash are kept
// unless the body supplies new ones.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, err := decodeStaff(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	id := pathID(r)
	existing, err := h.store.Staff.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if st.JoinedDate.IsZero() {
		st.JoinedDate = existing.JoinedDate
	}
	if st.PasswordHash == "" {
		st.PasswordHash = existing.PasswordHash
	}
	updated, err := h.store.Staff.Update(r.Context(), id, st)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Staff.Delete(r.Context(), pathID(r)); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Message(w, "Staff deleted successfully")
}

func decodeStaff(r *http.Request) (*models.Staff, error) {
	var req staffRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	st := req.Staff
	st.ID = ""
	st.JoinedDate = req.JoinedDate.Time

	v := validation.Violations{}
	validation.Required("name", st.Name, v)
	validation.Required("email", st.Email, v)
	validation.Required("role", st.Role, v)
	validation.Required("phone", st.Phone, v)
	if req.Password != "" && len(req.Password) < minPasswordLen {
		v["password"] = "too_short"
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		st.PasswordHash = string(hash)
	}
	return &st, nil
}
