package services

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
)

// dueRule computes a deadline from the moment a task is created.
type dueRule struct {
	label string
	due   func(now time.Time) time.Time
}

// ServiceTemplate is a preset for a recurring CA engagement.
type ServiceTemplate struct {
	Name         string
	TitlePattern string
	Description  string
	TaskType     models.TaskType
	Priority     models.Priority
	Rule         dueRule
	Checklist    []string
}

// TemplateSummary is the public view of a ServiceTemplate.
type TemplateSummary struct {
	Name           string          `json:"name"`
	TitlePattern   string          `json:"title_pattern"`
	Description    string          `json:"description"`
	TaskType       models.TaskType `json:"task_type"`
	Priority       models.Priority `json:"priority"`
	DueDateRule    string          `json:"due_date_rule"`
	ChecklistItems int             `json:"checklist_items"`
}

var serviceTemplates = []ServiceTemplate{
	{
		Name: "GST_MONTHLY", TitlePattern: "GSTR-3B Filing - {month} {year}",
		Description: "Monthly GST return filing", TaskType: models.TaskGST, Priority: models.PriorityHigh,
		Rule: dueRule{"20th of next month", nextMonthDay(20)},
		Checklist: []string{"Collect sales invoices", "Collect purchase invoices", "Verify GSTR-2A",
			"Prepare GSTR-3B", "File return", "Save acknowledgment"},
	},
	{
		Name: "GST_QUARTERLY", TitlePattern: "GSTR-1 Filing - Q{quarter} {fy}",
		Description: "Quarterly GST return filing", TaskType: models.TaskGST, Priority: models.PriorityHigh,
		Rule:      dueRule{"13th of month after quarter", afterQuarterDay(13)},
		Checklist: []string{"Collect all invoices for quarter", "Verify details", "Upload invoices", "File GSTR-1"},
	},
	{
		Name: "ITR_INDIVIDUAL", TitlePattern: "ITR Filing - FY {fy}",
		Description: "Individual Income Tax Return", TaskType: models.TaskITR, Priority: models.PriorityUrgent,
		Rule: dueRule{"31st July", annualDay(time.July, 31)},
		Checklist: []string{"Collect Form 16", "Bank statements", "Investment proofs (80C, 80D)",
			"House property details", "Other income details", "Compute tax", "File ITR", "Verify return"},
	},
	{
		Name: "ITR_BUSINESS", TitlePattern: "ITR Filing - Business - FY {fy}",
		Description: "Business/Professional Income Tax Return", TaskType: models.TaskITR, Priority: models.PriorityUrgent,
		Rule: dueRule{"31st October", annualDay(time.October, 31)},
		Checklist: []string{"Finalize books of accounts", "Prepare P&L and Balance Sheet",
			"Tax audit report (if applicable)", "Compute income and tax", "File ITR", "Pay advance tax/self-assessment"},
	},
	{
		Name: "TDS_QUARTERLY", TitlePattern: "TDS Return - Q{quarter} {fy}",
		Description: "Quarterly TDS return filing", TaskType: models.TaskGeneral, Priority: models.PriorityHigh,
		Rule: dueRule{"31st of month after quarter", afterQuarterDay(31)},
		Checklist: []string{"Collect TDS challan details", "Prepare deductee details", "Download FVU",
			"Upload TDS return", "Generate Form 16/16A"},
	},
	{
		Name: "AUDIT", TitlePattern: "Tax Audit - FY {fy}",
		Description: "Annual tax audit", TaskType: models.TaskAudit, Priority: models.PriorityUrgent,
		Rule: dueRule{"30th September", annualDay(time.September, 30)},
		Checklist: []string{"Collect books of accounts", "Prepare trial balance", "Verify transactions",
			"Check compliance", "Draft audit report", "Finalize and sign", "Upload audit report"},
	},
	{
		Name: "ROC_ANNUAL", TitlePattern: "ROC Annual Filing - FY {fy}",
		Description: "Annual return and financial statements filing with ROC", TaskType: models.TaskROC, Priority: models.PriorityUrgent,
		Rule: dueRule{"30th November", annualDay(time.November, 30)},
		Checklist: []string{"Board meeting for accounts approval", "AGM notice", "Conduct AGM",
			"Prepare AOC-4", "Prepare MGT-7", "File with ROC"},
	},
}

// Deadlines fall at 23:59 UTC on their day.
func endOfDay(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day = min(day, last)
	return time.Date(year, month, day, 23, 59, 0, 0, time.UTC)
}

func nextMonthDay(day int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return endOfDay(first.Year(), first.Month(), day)
	}
}

// afterQuarterDay is the given day of the month following the end of the
// quarter containing now. Days past the month's end clamp to its last day.
func afterQuarterDay(day int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		quarterEnd := ((int(now.Month())-1)/3 + 1) * 3
		first := time.Date(now.Year(), time.Month(quarterEnd), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return endOfDay(first.Year(), first.Month(), day)
	}
}

// annualDay is the next occurrence of month/day, this year while month has
// not yet passed.
func annualDay(month time.Month, day int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		year := now.Year()
		if now.Month() > month {
			year++
		}
		return endOfDay(year, month, day)
	}
}

// FindTemplate looks a template up by name, case-insensitively.
func FindTemplate(name string) (ServiceTemplate, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return ServiceTemplate{}, apperr.MissingField("template_name")
	}
	i := slices.IndexFunc(serviceTemplates, func(t ServiceTemplate) bool { return t.Name == key })
	if i < 0 {
		return ServiceTemplate{}, apperr.UnknownCategory("template_name", name)
	}
	return serviceTemplates[i], nil
}

// Templates summarises every template in a stable order.
func Templates() []TemplateSummary {
	out := make([]TemplateSummary, 0, len(serviceTemplates))
	for _, t := range serviceTemplates {
		out = append(out, TemplateSummary{
			Name:           t.Name,
			TitlePattern:   t.TitlePattern,
			Description:    t.Description,
			TaskType:       t.TaskType,
			Priority:       t.Priority,
			DueDateRule:    t.Rule.label,
			ChecklistItems: len(t.Checklist),
		})
	}
	return out
}

// Title fills the pattern's placeholders for the period containing now.
func (t ServiceTemplate) Title(now time.Time) string {
	r := strings.NewReplacer(
		"{month}", now.Month().String(),
		"{year}", strconv.Itoa(now.Year()),
		"{fy}", compliance.FinancialYearOf(now).ShortCode(),
		"{quarter}", strconv.Itoa(compliance.QuarterOf(now)),
	)
	return r.Replace(t.TitlePattern)
}

// DueDate applies the template's deadline rule.
func (t ServiceTemplate) DueDate(now time.Time) time.Time {
	if t.Rule.due == nil {
		return now.AddDate(0, 0, 30)
	}
	return t.Rule.due(now.UTC())
}

// NewTask builds an unsaved task for clientID from the template.
func (t ServiceTemplate) NewTask(clientID string, now time.Time) models.Task {
	checklist := make([]models.ChecklistItem, len(t.Checklist))
	for i, item := range t.Checklist {
		checklist[i] = models.ChecklistItem{Item: item}
	}
	due := t.DueDate(now)
	return models.Task{
		Title:         t.Title(now),
		Description:   t.Description,
		ClientID:      clientID,
		TaskType:      t.TaskType,
		DueDate:       due,
		Status:        models.TaskPending,
		Priority:      t.Priority,
		Checklist:     checklist,
		Template:      t.Name,
		Quarter:       compliance.QuarterOf(due),
		FinancialYear: compliance.FinancialYearOf(due).Code,
	}
}

// TemplateTaskRequest creates a task from a template. Optional fields
// override the template's values.
type TemplateTaskRequest struct {
	TemplateName string          `json:"template_name"`
	ClientID     string          `json:"client_id"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	Priority     models.Priority `json:"priority,omitempty"`
	AssignedTo   string          `json:"assigned_to,omitempty"`
	AssigneeID   *string         `json:"assignee_id,omitempty"`
}

type TemplateService struct {
	store *store.Store
	tasks *TaskService
}

func NewTemplateService(s *store.Store, tasks *TaskService) *TemplateService {
	return &TemplateService{store: s, tasks: tasks}
}

func (s *TemplateService) CreateTask(ctx context.Context, req TemplateTaskRequest, now time.Time) (*models.Task, error) {
	tpl, err := FindTemplate(req.TemplateName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, apperr.MissingField("client_id")
	}
	if req.Priority != "" && !slices.Contains(models.Priorities, req.Priority) {
		return nil, apperr.InvalidFormat("priority", "unknown priority %q", req.Priority)
	}
	if _, err := s.store.Clients.Get(ctx, req.ClientID); err != nil {
		return nil, err
	}

	task := tpl.NewTask(req.ClientID, now)
	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	task.AssigneeID = req.AssigneeID
	task.AssignedTo = req.AssignedTo
	if err := s.tasks.Prepare(ctx, &task); err != nil {
		return nil, err
	}
	if err := s.store.Tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	return s.store.Tasks.Get(ctx, task.ID)
}
