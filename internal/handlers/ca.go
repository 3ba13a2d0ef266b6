package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/compliance"
	"go.uber.org/zap"
)

// CAHandler serves the stateless compliance lookups under /api/ca.
type CAHandler struct {
	log *zap.Logger
	now Clock
}

func NewCAHandler(log *zap.Logger, now Clock) *CAHandler {
	return &CAHandler{log: log, now: now}
}

func (h *CAHandler) BusinessTypes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"business_types": compliance.BusinessTypes()})
}

func (h *CAHandler) WIPStages(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"stages": compliance.WIPStages()})
}

// date reads ?date=, defaulting to now.
func (h *CAHandler) date(r *http.Request) (compliance.FinancialYear, int, error) {
	t := h.now()
	d, err := queryTime(r, "date")
	if err != nil {
		return compliance.FinancialYear{}, 0, err
	}
	if d != nil {
		t = *d
	}
	return compliance.FinancialYearOf(t), compliance.QuarterOf(t), nil
}

func (h *CAHandler) FinancialYear(w http.ResponseWriter, r *http.Request) {
	fy, _, err := h.date(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fy)
}

func (h *CAHandler) Quarter(w http.ResponseWriter, r *http.Request) {
	fy, q, err := h.date(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quarter":        q,
		"label":          "Q" + strconv.Itoa(q),
		"financial_year": fy.Code,
	})
}

func (h *CAHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	service := pathVar(r, "service")
	items, err := compliance.ServiceChecklist(service)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"service_type": strings.ToUpper(service),
		"items":        items,
	})
}

// ComplianceRequirements: POST /api/ca/compliance-requirements?business_type=&turnover=
func (h *CAHandler) ComplianceRequirements(w http.ResponseWriter, r *http.Request) {
	bt, err := compliance.ParseBusinessType(r.URL.Query().Get("business_type"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	turnover, err := queryFloat(r, "turnover")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if turnover != nil && *turnover < 0 {
		httpx.Error(w, h.log, apperr.InvalidFormat("turnover", "must not be negative"))
		return
	}
	req, err := compliance.RequirementsFor(bt, turnover)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *CAHandler) ValidateGSTIN(w http.ResponseWriter, r *http.Request) {
	info, err := compliance.ValidateGSTIN(r.URL.Query().Get("gstin"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Valid bool `json:"valid"`
		compliance.GSTINInfo
	}{true, info})
}

func (h *CAHandler) ValidatePAN(w http.ResponseWriter, r *http.Request) {
	info, err := compliance.ValidatePAN(r.URL.Query().Get("pan"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Valid bool `json:"valid"`
		compliance.PANInfo
	}{true, info})
}

// LateFee: POST /api/ca/calculate-late-fee?task_type=&due_date=[&now=]
func (h *CAHandler) LateFee(w http.ResponseWriter, r *http.Request) {
	taskType := strings.TrimSpace(r.URL.Query().Get("task_type"))
	if taskType == "" {
		httpx.Error(w, h.log, apperr.MissingField("task_type"))
		return
	}
	due, err := queryTime(r, "due_date")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if due == nil {
		httpx.Error(w, h.log, apperr.MissingField("due_date"))
		return
	}
	now := h.now()
	at, err := queryTime(r, "now")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if at != nil {
		now = *at
	}
	httpx.JSON(w, http.StatusOK, compliance.CalculateLateFee(taskType, *due, now))
}
