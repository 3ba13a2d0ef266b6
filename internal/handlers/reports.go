package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/services"
	"go.uber.org/zap"
)

type ReportHandler struct {
	dashboard *services.DashboardService
	reports   *services.ReportService
	log       *zap.Logger
	now       Clock
}

func NewReportHandler(d *services.DashboardService, rs *services.ReportService, log *zap.Logger, now Clock) *ReportHandler {
	return &ReportHandler{dashboard: d, reports: rs, log: log, now: now}
}

// Dashboard: GET /api/dashboard/stats
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

// Compliance: GET /api/reports/compliance[?start_date=&end_date=]
func (h *ReportHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	start, err := queryTime(r, "start_date")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	end, err := queryTime(r, "end_date")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	rep, err := h.reports.Compliance(r.Context(), start, end)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

// Calendar: GET /api/calendar/tasks[?month=&year=], defaulting to this month.
func (h *ReportHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	cal, err := h.reports.Calendar(r.Context(), year, month)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cal)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidFormat(name, "not an integer")
	}
	return n, nil
}

type TemplateHandler struct {
	svc *services.TemplateService
	log *zap.Logger
	now Clock
}

func NewTemplateHandler(svc *services.TemplateService, log *zap.Logger, now Clock) *TemplateHandler {
	return &TemplateHandler{svc: svc, log: log, now: now}
}

// List: GET /api/templates/services
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": services.Templates()})
}

// CreateTask: POST /api/templates/create-task
func (h *TemplateHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req services.TemplateTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	task, err := h.svc.CreateTask(r.Context(), req, h.now())
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

type AutomationHandler struct {
	automation *services.Automation
	scheduler  *services.Scheduler
	log        *zap.Logger
}

func NewAutomationHandler(a *services.Automation, sched *services.Scheduler, log *zap.Logger) *AutomationHandler {
	return &AutomationHandler{automation: a, scheduler: sched, log: log}
}

var scheduledJobs = []string{
	"Deadline reminders (daily)",
	"Recurring task generation (daily)",
	"Overdue task updates (interval)",
	"Auto task assignment (daily)",
}

// Start: POST /api/automation/start
func (h *AutomationHandler) Start(w http.ResponseWriter, r *http.Request) {
	msg := "Automation started successfully"
	if !h.scheduler.Start() {
		msg = "Automation already running"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        msg,
		"running":        true,
		"scheduled_jobs": scheduledJobs,
	})
}

// Stop: POST /api/automation/stop
func (h *AutomationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	msg := "Automation stopped"
	if !h.scheduler.Stop() {
		msg = "Automation was not running"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": msg, "running": false})
}

// Status: GET /api/automation/status
func (h *AutomationHandler) Status(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"running": h.scheduler.Running(),
		"jobs":    h.scheduler.Entries(),
	})
}

// Trigger: POST /api/automation/trigger/{job}
func (h *AutomationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	job := pathVar(r, "job")
	res, err := h.automation.Run(r.Context(), job)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	h.log.Info("automation triggered", zap.String("job", res.Job), zap.Int64("affected", res.Affected))
	httpx.JSON(w, http.StatusOK, res)
}
